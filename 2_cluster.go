package codice

import (
	"log"

	"github.com/spf13/cobra"
)

// NewClusterCmd returns the cluster command: datasets/<name>/<name>_normalized.json
// -> datasets/<name>/<name>_kmeans.json.
func NewClusterCmd(cfg *Config) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "cluster <dataset>",
		Short: "Run deterministic KMeans on a normalized dataset",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ds := mustFindDataset(cfg, args[0])
			if cmd.Flags().Changed("k") {
				ds.K = k
			}

			log.Printf("[Analytics] Running deterministic KMeans for: %s", ds.Name)
			result, err := NewPipeline(cfg, nil).ClusterDataset(ds.Name, ds.K)
			if err != nil {
				log.Fatalf("Failed to cluster %s: %v", ds.Name, err)
			}
			log.Printf("[Analytics] Cluster sizes: %v", result.Sizes())
		},
	}
	cmd.Flags().IntVar(&k, "k", 0, "number of clusters (default: the dataset's k)")
	return cmd
}

package codice

import (
	"log"

	"github.com/spf13/cobra"
)

// NewNormalizeCmd returns the normalize command: datasets/<name>/<name>_raw.csv
// -> datasets/<name>/<name>_normalized.json.
func NewNormalizeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <dataset>",
		Short: "Normalize a dataset's raw CSV into canonical JSON",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ds := mustFindDataset(cfg, args[0])
			if _, err := NewPipeline(cfg, nil).NormalizeDataset(ds.Name); err != nil {
				log.Fatalf("Failed to normalize %s: %v", ds.Name, err)
			}
		},
	}
}

// mustFindDataset looks name up in the configured registry and exits when
// it is not there.
func mustFindDataset(cfg *Config, name string) DatasetConfig {
	datasets, err := LoadDatasets(cfg.DatasetsFile, cfg.DefaultK)
	if err != nil {
		log.Fatalf("Failed to load datasets: %v", err)
	}
	ds, err := FindDataset(datasets, name)
	if err != nil {
		log.Fatal(err)
	}
	return ds
}

// mustOpenPipeline returns a pipeline with an open ledger and the function
// that closes it.
func mustOpenPipeline(cfg *Config) (*Pipeline, func()) {
	ledger, err := OpenLedger(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	return NewPipeline(cfg, ledger), func() {
		if err := ledger.Close(); err != nil {
			log.Printf("Failed to close ledger: %v", err)
		}
	}
}

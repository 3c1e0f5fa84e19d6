package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/codice"
	"github.com/spf13/cobra"
)

func main() {
	cfg, err := codice.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	rootCmd := &cobra.Command{
		Use:   "codice",
		Short: "Deterministic normalization and KMeans pipeline with reproducible outputs",
	}

	rootCmd.AddCommand(codice.NewNormalizeCmd(cfg))
	rootCmd.AddCommand(codice.NewClusterCmd(cfg))
	rootCmd.AddCommand(codice.NewDigestCmd(cfg))
	rootCmd.AddCommand(codice.NewHashCheckCmd(cfg))
	rootCmd.AddCommand(codice.NewBuildDigestCmd(cfg))
	rootCmd.AddCommand(codice.NewReportCmd(cfg))
	rootCmd.AddCommand(codice.NewSchemaCmd(cfg))
	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newCleanCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRunCmd(cfg *codice.Config) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run [dataset]",
		Short: "Run the full pipeline: normalize -> cluster -> digest",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			datasets, err := codice.LoadDatasets(cfg.DatasetsFile, cfg.DefaultK)
			if err != nil {
				log.Fatalf("Failed to load datasets: %v", err)
			}

			switch {
			case all && len(args) == 0:
			case !all && len(args) == 1:
				ds, err := codice.FindDataset(datasets, args[0])
				if err != nil {
					log.Fatal(err)
				}
				datasets = []codice.DatasetConfig{ds}
			default:
				log.Fatal("Usage: codice run <dataset> | codice run --all")
			}

			ledger, err := codice.OpenLedger(cfg.LedgerPath)
			if err != nil {
				log.Fatalf("Failed to open ledger: %v", err)
			}
			defer func() {
				if err := ledger.Close(); err != nil {
					log.Printf("Failed to close ledger: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			log.Printf("Running full pipeline for %d dataset(s)...", len(datasets))
			p := codice.NewPipeline(cfg, ledger)
			digests, err := p.RunAll(ctx, datasets)
			if err != nil {
				log.Fatalf("Pipeline failed: %v", err)
			}
			for _, d := range digests {
				log.Printf("[%s] normalized=%s kmeans=%s (%s)", d.Dataset, d.Normalized, d.KMeans, d.Env)
			}
			log.Println("Pipeline complete.")
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every dataset in the registry")
	return cmd
}

func newCleanCmd(cfg *codice.Config) *cobra.Command {
	var olderThan string
	cmd := &cobra.Command{
		Use:   "clean [dataset...]",
		Short: "Remove generated artifacts, digests and reports; optionally prune the ledger",
		Run: func(cmd *cobra.Command, args []string) {
			datasets, err := codice.LoadDatasets(cfg.DatasetsFile, cfg.DefaultK)
			if err != nil {
				log.Fatalf("Failed to load datasets: %v", err)
			}
			if len(args) > 0 {
				var selected []codice.DatasetConfig
				for _, name := range args {
					ds, err := codice.FindDataset(datasets, name)
					if err != nil {
						log.Fatal(err)
					}
					selected = append(selected, ds)
				}
				datasets = selected
			}

			p := codice.NewPipeline(cfg, nil)
			for _, ds := range datasets {
				removed, err := p.Clean(ds.Name)
				if err != nil {
					log.Printf("Failed to clean %s: %v", ds.Name, err)
					continue
				}
				for _, path := range removed {
					log.Printf("Removed %s", path)
				}
			}

			if olderThan == "" {
				return
			}
			cutoff, err := codice.RetentionCutoff(olderThan, time.Now())
			if err != nil {
				log.Fatal(err)
			}
			ledger, err := codice.OpenLedger(cfg.LedgerPath)
			if err != nil {
				log.Fatalf("Failed to open ledger: %v", err)
			}
			defer func() {
				if err := ledger.Close(); err != nil {
					log.Printf("Failed to close ledger: %v", err)
				}
			}()
			n, err := ledger.Prune(cutoff)
			if err != nil {
				log.Fatalf("Failed to prune ledger: %v", err)
			}
			log.Printf("Pruned %d ledger entries recorded before %s", n, cutoff.UTC().Format(time.RFC3339))
		},
	}
	cmd.Flags().StringVar(&olderThan, "older-than", "", "prune ledger entries older than this ISO 8601 duration (e.g. P30D)")
	return cmd
}

package codice

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
)

// maxParallelDatasets bounds RunAll.
const maxParallelDatasets = 4

// Pipeline runs the stages of one or more datasets: raw CSV, normalized
// JSON, clustered JSON, digests. Ledger may be nil.
type Pipeline struct {
	Config   *Config
	Resolver Resolver
	Ledger   *Ledger
}

// NewPipeline returns a pipeline over cfg's layout.
func NewPipeline(cfg *Config, ledger *Ledger) *Pipeline {
	return &Pipeline{Config: cfg, Resolver: NewResolver(cfg), Ledger: ledger}
}

// NormalizeDataset reads the raw CSV of name and writes its normalized artifact.
func (p *Pipeline) NormalizeDataset(name string) (DatasetPaths, error) {
	paths, err := p.Resolver.Resolve(name)
	if err != nil {
		return DatasetPaths{}, err
	}
	if !Exists(paths.Raw) {
		return paths, fmt.Errorf("raw dataset missing: %s", paths.Raw)
	}

	data, err := os.ReadFile(paths.Raw)
	if err != nil {
		return paths, fmt.Errorf("failed to read raw dataset: %w", err)
	}

	rows, err := Normalize(string(data))
	if err != nil {
		return paths, fmt.Errorf("failed to normalize %s: %w", name, err)
	}

	if err := WriteArtifact(paths.Normalized, rows); err != nil {
		return paths, err
	}
	log.Printf("[%s] Normalized %d rows -> %s", name, len(rows), paths.Normalized)
	return paths, nil
}

// ClusterDataset clusters the normalized artifact of name into k clusters
// and writes the kmeans artifact.
func (p *Pipeline) ClusterDataset(name string, k int) (ClusterResult, error) {
	paths, err := p.Resolver.Resolve(name)
	if err != nil {
		return ClusterResult{}, err
	}
	if !Exists(paths.Normalized) {
		return ClusterResult{}, fmt.Errorf("missing normalized file: %s", paths.Normalized)
	}

	rows, err := ReadRecords(paths.Normalized)
	if err != nil {
		return ClusterResult{}, err
	}

	m, columns, err := extractWithWarnings(name, rows)
	if err != nil {
		return ClusterResult{}, err
	}
	log.Printf("[%s] Extracted %d x %d matrix (columns: %v)", name, len(m), len(columns), columns)

	result, err := Cluster(m, k)
	if err != nil {
		return ClusterResult{}, fmt.Errorf("failed to cluster %s: %w", name, err)
	}

	if err := WriteArtifact(paths.KMeans, result); err != nil {
		return ClusterResult{}, err
	}
	log.Printf("[%s] KMeans k=%d converged after %d rounds -> %s", name, k, result.Iterations, paths.KMeans)
	return result, nil
}

// extractWithWarnings extracts the numeric matrix and logs one warning per
// column that had cells filled with 0.
func extractWithWarnings(name string, rows []Record) (Matrix, []string, error) {
	coerced := map[string]int{}
	firstRow := map[string]int{}
	m, columns, err := ExtractNumericMatrix(rows, WithCoerceHook(func(row int, field string, value any) {
		if coerced[field] == 0 {
			firstRow[field] = row
		}
		coerced[field]++
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract matrix for %s: %w", name, err)
	}

	fields := make([]string, 0, len(coerced))
	for f := range coerced {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		log.Printf("[%s] Warning: column %q is numeric in row 0 but not in %d row(s) (first: row %d); those cells were set to 0",
			name, f, coerced[f], firstRow[f])
	}
	return m, columns, nil
}

// Run normalizes and clusters name, then records its digests.
func (p *Pipeline) Run(name string, k int) (Digest, error) {
	if _, err := p.NormalizeDataset(name); err != nil {
		return Digest{}, err
	}
	if _, err := p.ClusterDataset(name, k); err != nil {
		return Digest{}, err
	}
	return p.RecordDigests(name)
}

// RunAll runs every dataset, a few at a time. Datasets share no state, so
// their artifacts are the same as with sequential runs. The first failure
// cancels datasets that have not started yet.
func (p *Pipeline) RunAll(ctx context.Context, datasets []DatasetConfig) ([]Digest, error) {
	digests := make([]Digest, len(datasets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDatasets)
	for i, ds := range datasets {
		i, ds := i, ds
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := p.Run(ds.Name, ds.K)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
			digests[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

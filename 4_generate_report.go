package codice

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ColumnProfile summarizes one numeric column.
type ColumnProfile struct {
	Name   string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// DatasetProfile is the content of an audit report.
type DatasetProfile struct {
	Dataset string
	Rows    int
	Columns []ColumnProfile
	Result  ClusterResult
	Digest  Digest
}

// ProfileColumns computes per-column statistics of m. The statistics are
// for people reading the report; they never enter an artifact.
func ProfileColumns(columns []string, m Matrix) []ColumnProfile {
	d := m.Dense()
	if d == nil {
		return nil
	}
	rows, _ := d.Dims()

	profiles := make([]ColumnProfile, len(columns))
	for j, name := range columns {
		col := mat.Col(nil, j, d)
		mean, std := stat.MeanStdDev(col, nil)
		if rows < 2 {
			std = 0
		}
		profiles[j] = ColumnProfile{
			Name:   name,
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(col),
			Max:    floats.Max(col),
		}
	}
	return profiles
}

// FormatReport renders p as markdown.
func FormatReport(p DatasetProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Codice Report: %s\n\n", p.Dataset)
	fmt.Fprintf(&b, "- Rows: %d\n", p.Rows)
	fmt.Fprintf(&b, "- Numeric columns: %d\n", len(p.Columns))
	fmt.Fprintf(&b, "- Clusters: %d\n\n", p.Result.K)

	b.WriteString("## Column profile\n\n")
	if len(p.Columns) == 0 {
		b.WriteString("No numeric columns.\n\n")
	} else {
		b.WriteString("| Column | Mean | Std. dev. | Min | Max |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, c := range p.Columns {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				escapeCell(c.Name), formatStat(c.Mean), formatStat(c.StdDev), formatStat(c.Min), formatStat(c.Max))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Clusters\n\n")
	b.WriteString("| Cluster | Rows | Centroid |\n")
	b.WriteString("|---:|---:|---|\n")
	sizes := p.Result.Sizes()
	for c, centroid := range p.Result.Centroids {
		coords := make([]string, len(centroid))
		for d, x := range centroid {
			coords[d] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		fmt.Fprintf(&b, "| %d | %d | (%s) |\n", c, sizes[c], strings.Join(coords, ", "))
	}
	b.WriteString("\n")

	b.WriteString("## Artifact hashes\n\n")
	b.WriteString("| Artifact | SHA-256 |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(&b, "| %s | `%s` |\n", ArtifactNormalized, p.Digest.Normalized)
	fmt.Fprintf(&b, "| %s | `%s` |\n", ArtifactKMeans, p.Digest.KMeans)

	return b.String()
}

func formatStat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// LoadClusterResult reads a kmeans artifact.
func LoadClusterResult(path string) (ClusterResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClusterResult{}, fmt.Errorf("failed to read clusters file: %w", err)
	}
	var result ClusterResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ClusterResult{}, fmt.Errorf("failed to parse clusters: %w", err)
	}
	if len(result.Centroids) != result.K {
		return ClusterResult{}, fmt.Errorf("clusters file %s: %d centroids for k=%d", path, len(result.Centroids), result.K)
	}
	for i, c := range result.Assignments {
		if c < 0 || c >= result.K {
			return ClusterResult{}, fmt.Errorf("clusters file %s: assignment %d of row %d out of range", path, c, i)
		}
	}
	return result, nil
}

// ProfileDataset builds the report content of name from its artifacts.
func (p *Pipeline) ProfileDataset(name string) (DatasetProfile, error) {
	paths, err := p.Resolver.Resolve(name)
	if err != nil {
		return DatasetProfile{}, err
	}

	rows, err := ReadRecords(paths.Normalized)
	if err != nil {
		return DatasetProfile{}, err
	}
	m, columns, err := ExtractNumericMatrix(rows)
	if err != nil {
		return DatasetProfile{}, fmt.Errorf("failed to extract matrix for %s: %w", name, err)
	}

	result, err := LoadClusterResult(paths.KMeans)
	if err != nil {
		return DatasetProfile{}, err
	}
	if len(result.Assignments) != len(rows) {
		return DatasetProfile{}, fmt.Errorf("clusters file has %d assignments for %d rows; re-run cluster", len(result.Assignments), len(rows))
	}

	d := Digest{Dataset: name, Env: paths.Env}
	if d.Normalized, err = HashFile(paths.Normalized); err != nil {
		return DatasetProfile{}, err
	}
	if d.KMeans, err = HashFile(paths.KMeans); err != nil {
		return DatasetProfile{}, err
	}

	return DatasetProfile{
		Dataset: name,
		Rows:    len(rows),
		Columns: ProfileColumns(columns, m),
		Result:  result,
		Digest:  d,
	}, nil
}

// GenerateReport writes the markdown and HTML reports of name into the
// reports directory and returns their paths.
func (p *Pipeline) GenerateReport(name string) (string, string, error) {
	profile, err := p.ProfileDataset(name)
	if err != nil {
		return "", "", err
	}
	report := FormatReport(profile)

	htmlContent, err := RenderHTML("Codice Report: "+name, report)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(p.Config.ReportsDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	mdPath := filepath.Join(p.Config.ReportsDir, name+"_report.md")
	htmlPath := filepath.Join(p.Config.ReportsDir, name+"_report.html")
	if err := writeFileAtomic(mdPath, []byte(report)); err != nil {
		return "", "", err
	}
	if err := writeFileAtomic(htmlPath, []byte(htmlContent)); err != nil {
		return "", "", err
	}
	return mdPath, htmlPath, nil
}

// NewReportCmd returns the report command.
func NewReportCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report <dataset>",
		Short: "Generate the audit report of a dataset in markdown and HTML",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ds := mustFindDataset(cfg, args[0])
			mdPath, htmlPath, err := NewPipeline(cfg, nil).GenerateReport(ds.Name)
			if err != nil {
				log.Fatalf("Failed to generate report: %v", err)
			}
			log.Printf("Report generated: %s", mdPath)
			log.Printf("HTML report generated: %s", htmlPath)
		},
	}
}

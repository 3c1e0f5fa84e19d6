package codice

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileColumns(t *testing.T) {
	profiles := ProfileColumns([]string{"a", "b"}, Matrix{{1, 10}, {3, 10}})
	require.Len(t, profiles, 2)

	assert.Equal(t, "a", profiles[0].Name)
	assert.InDelta(t, 2.0, profiles[0].Mean, 1e-12)
	assert.InDelta(t, math.Sqrt2, profiles[0].StdDev, 1e-12)
	assert.Equal(t, 1.0, profiles[0].Min)
	assert.Equal(t, 3.0, profiles[0].Max)

	assert.Equal(t, 0.0, profiles[1].StdDev)
}

func TestProfileColumns_SingleRowAndEmpty(t *testing.T) {
	profiles := ProfileColumns([]string{"a"}, Matrix{{4}})
	require.Len(t, profiles, 1)
	assert.Equal(t, 0.0, profiles[0].StdDev)

	assert.Nil(t, ProfileColumns(nil, Matrix{{}, {}}))
}

func TestFormatReport(t *testing.T) {
	report := FormatReport(DatasetProfile{
		Dataset: "toy",
		Rows:    4,
		Columns: []ColumnProfile{{Name: "x|y", Mean: 5, StdDev: 1, Min: 1, Max: 9}},
		Result: ClusterResult{
			K:           2,
			Dim:         1,
			Centroids:   [][]float64{{1.5}, {9}},
			Assignments: []int{0, 0, 1, 0},
		},
		Digest: Digest{Normalized: "AAA", KMeans: "BBB"},
	})

	assert.Contains(t, report, "# Codice Report: toy\n")
	assert.Contains(t, report, "- Rows: 4\n")
	assert.Contains(t, report, "| x\\|y | 5.000000 | 1.000000 | 1.000000 | 9.000000 |\n")
	assert.Contains(t, report, "| 0 | 3 | (1.5) |\n")
	assert.Contains(t, report, "| 1 | 1 | (9) |\n")
	assert.Contains(t, report, "| kmeans | `BBB` |\n")
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML("Codice Report: <toy>", "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Codice Report: &lt;toy&gt;</title>")
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>1</td>")

	again, err := RenderHTML("Codice Report: <toy>", "# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestGenerateReport(t *testing.T) {
	p := newTestPipeline(t, false)
	writeRaw(t, p, "toy", toyCSV)
	d, err := p.Run("toy", 2)
	require.NoError(t, err)

	mdPath, htmlPath, err := p.GenerateReport("toy")
	require.NoError(t, err)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "- Numeric columns: 2\n")
	assert.Contains(t, string(md), "| 0 | 2 | (1, 1.5) |")
	assert.Contains(t, string(md), d.KMeans)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Codice Report: toy</title>")
}

func TestLoadClusterResult_Invalid(t *testing.T) {
	p := newTestPipeline(t, false)
	paths := writeRaw(t, p, "toy", toyCSV)

	require.NoError(t, os.WriteFile(paths.KMeans, []byte(`{"k":2,"dim":1,"centroids":[[1]],"assignments":[0]}`), 0644))
	_, err := LoadClusterResult(paths.KMeans)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(paths.KMeans, []byte(`{"k":1,"dim":1,"centroids":[[1]],"assignments":[0,1]}`), 0644))
	_, err = LoadClusterResult(paths.KMeans)
	assert.Error(t, err)
}

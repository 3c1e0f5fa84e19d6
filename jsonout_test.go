package codice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalArtifact(t *testing.T) {
	data, err := MarshalArtifact(Record{"z": nil, "label": "<a & b>", "n": 0.1})
	require.NoError(t, err)

	want := `{
  "label": "<a & b>",
  "n": 0.1,
  "z": null
}`
	assert.Equal(t, want, string(data))
}

func TestMarshalArtifact_Numbers(t *testing.T) {
	data, err := MarshalArtifact([]float64{1, -2.5, 1e21, 1e-7, 123456789.125})
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  -2.5,\n  1e+21,\n  1e-7,\n  123456789.125\n]", string(data))
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	rows := []Record{{"a": 1.0, "b": "x"}}
	require.NoError(t, WriteArtifact(path, rows))
	require.NoError(t, WriteArtifact(path, rows))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, byte('\n'), data[len(data)-1])

	back, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestReadRecords_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRecords(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = ReadRecords(bad)
	assert.Error(t, err)
}

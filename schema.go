package codice

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

// Schema file names written by WriteSchemas.
const (
	KMeansSchemaFile     = "kmeans.schema.json"
	NormalizedSchemaFile = "normalized.schema.json"
)

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
}

// KMeansSchema describes the kmeans artifact.
func KMeansSchema() *jsonschema.Schema {
	s := newReflector().Reflect(&ClusterResult{})
	if s.Type == "" {
		s.Type = "object"
	}
	s.Title = "Deterministic KMeans result"
	return s
}

// NormalizedSchema describes the normalized artifact: an array of objects
// whose values are numbers, strings or null.
func NormalizedSchema() *jsonschema.Schema {
	s := newReflector().Reflect(&[]Record{})
	s.Type = "array"
	s.Title = "Canonical rows"
	s.Items = &jsonschema.Schema{
		Type: "object",
		AdditionalProperties: &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				{Type: "number"},
				{Type: "string"},
				{Type: "null"},
			},
		},
	}
	return s
}

// WriteSchemas writes both artifact schemas into dir.
func WriteSchemas(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	for name, s := range map[string]*jsonschema.Schema{
		KMeansSchemaFile:     KMeansSchema(),
		NormalizedSchemaFile: NormalizedSchema(),
	} {
		if err := WriteArtifact(filepath.Join(dir, name), s); err != nil {
			return err
		}
	}
	return nil
}

// NewSchemaCmd returns the schema command.
func NewSchemaCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Write JSON Schemas of the normalized and kmeans artifacts",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			dir := filepath.Join(cfg.ReportsDir, "schemas")
			if err := WriteSchemas(dir); err != nil {
				log.Fatalf("Failed to write schemas: %v", err)
			}
			log.Printf("Schemas written -> %s", dir)
		},
	}
}

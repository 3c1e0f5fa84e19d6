package codice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the settings of the orchestration layer. The core functions
// take no configuration.
type Config struct {
	// ContainerRoot is the root of the container layout (/app in the image).
	ContainerRoot string
	// LocalRoot is the root of the local layout, normally the working directory.
	LocalRoot string
	// DatasetsFile is the YAML dataset registry. A missing file means the
	// built-in registry.
	DatasetsFile string
	// LedgerPath is the SQLite digest ledger.
	LedgerPath string
	// ReportsDir receives digests, the combined runtime digest, reports and schemas.
	ReportsDir string
	// DefaultK is used for datasets that do not set k.
	DefaultK int
}

// LoadConfig reads .env (if present) and the CODICE_* environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg := &Config{
		ContainerRoot: getenv("CODICE_CONTAINER_ROOT", "/app"),
		LocalRoot:     getenv("CODICE_LOCAL_ROOT", cwd),
		DatasetsFile:  getenv("CODICE_DATASETS_FILE", "datasets.yaml"),
		LedgerPath:    getenv("CODICE_LEDGER", "ledger.db"),
		ReportsDir:    getenv("CODICE_REPORTS_DIR", "reports"),
		DefaultK:      3,
	}

	if v := os.Getenv("CODICE_DEFAULT_K"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 1 {
			return nil, fmt.Errorf("invalid CODICE_DEFAULT_K %q", v)
		}
		cfg.DefaultK = k
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package codice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// RuntimeDigestFile is the combined digest written by BuildRuntimeDigest.
const RuntimeDigestFile = "FITGEN_RUNTIME_DIGEST.json"

// Digest holds the artifact hashes of one dataset run.
type Digest struct {
	Dataset    string
	Env        string
	Normalized string
	KMeans     string
}

// String renders the digest file body.
func (d Digest) String() string {
	return fmt.Sprintf("%s %s\n%s %s\n", ArtifactNormalized, d.Normalized, ArtifactKMeans, d.KMeans)
}

// HashFile returns the SHA-256 of the file at path as uppercase hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

func (p *Pipeline) digestsDir() string {
	return filepath.Join(p.Config.ReportsDir, "digests")
}

// DigestPath returns the digest file of dataset name.
func (p *Pipeline) DigestPath(name string) string {
	return filepath.Join(p.digestsDir(), "digest_"+name+".txt")
}

// RecordDigests hashes both artifacts of name, writes its digest file and,
// with a ledger, appends both hashes to it.
func (p *Pipeline) RecordDigests(name string) (Digest, error) {
	paths, err := p.Resolver.Resolve(name)
	if err != nil {
		return Digest{}, err
	}

	d := Digest{Dataset: name, Env: paths.Env}
	if d.Normalized, err = HashFile(paths.Normalized); err != nil {
		return Digest{}, fmt.Errorf("failed to hash normalized artifact: %w", err)
	}
	if d.KMeans, err = HashFile(paths.KMeans); err != nil {
		return Digest{}, fmt.Errorf("failed to hash kmeans artifact: %w", err)
	}

	if err := os.MkdirAll(p.digestsDir(), 0755); err != nil {
		return Digest{}, fmt.Errorf("failed to create digests directory: %w", err)
	}
	if err := writeFileAtomic(p.DigestPath(name), []byte(d.String())); err != nil {
		return Digest{}, err
	}

	if p.Ledger != nil {
		for _, e := range []DigestEntry{
			{Dataset: name, Artifact: ArtifactNormalized, SHA256: d.Normalized, Env: d.Env},
			{Dataset: name, Artifact: ArtifactKMeans, SHA256: d.KMeans, Env: d.Env},
		} {
			if err := p.Ledger.Record(e); err != nil {
				return Digest{}, err
			}
		}
	}

	log.Printf("[%s] Digest -> %s", name, p.DigestPath(name))
	return d, nil
}

// CheckGolden compares the artifacts of ds with its golden hashes and
// writes a report to w. It returns false when any artifact is missing or
// differs, or when ds has no golden hashes.
func (p *Pipeline) CheckGolden(ds DatasetConfig, w io.Writer) (bool, error) {
	paths, err := p.Resolver.Resolve(ds.Name)
	if err != nil {
		return false, err
	}

	fmt.Fprintf(w, "=== Hash Check (%s) ===\n\n", ds.Name)

	allMatch := true
	for _, c := range []struct {
		artifact string
		path     string
		expected string
	}{
		{ArtifactNormalized, paths.Normalized, ds.Golden.Normalized},
		{ArtifactKMeans, paths.KMeans, ds.Golden.KMeans},
	} {
		if c.expected == "" {
			fmt.Fprintf(w, "%-12s -> NO GOLDEN HASH\n", c.artifact)
			allMatch = false
			continue
		}
		actual, err := HashFile(c.path)
		if err != nil {
			fmt.Fprintf(w, "%-12s -> FILE MISSING: %s\n", c.artifact, c.path)
			allMatch = false
			continue
		}

		status := "MATCH"
		if actual != c.expected {
			status = "MISMATCH"
			allMatch = false
		}
		fmt.Fprintf(w, "%-12s -> %s\n  Expected: %s\n  Actual:   %s\n\n", c.artifact, status, c.expected, actual)
	}

	if allMatch {
		fmt.Fprintln(w, "Hashcheck PASSED: outputs match golden hashes.")
	} else {
		fmt.Fprintln(w, "Hashcheck FAILED: outputs differ from golden hashes.")
	}
	return allMatch, nil
}

type runtimeDigestEntry struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

// BuildRuntimeDigest combines every digest_* file of the digests directory,
// in file name order, into RuntimeDigestFile and returns its path.
func (p *Pipeline) BuildRuntimeDigest() (string, error) {
	dir := p.digestsDir()
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("no digests found: %w", err)
	}

	var entries []runtimeDigestEntry
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), "digest_") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file.Name(), err)
		}
		entries = append(entries, runtimeDigestEntry{File: file.Name(), Content: string(content)})
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no digest files found in %s", dir)
	}

	outPath := filepath.Join(p.Config.ReportsDir, RuntimeDigestFile)
	if err := WriteArtifact(outPath, entries); err != nil {
		return "", err
	}
	return outPath, nil
}

// NewDigestCmd returns the digest command.
func NewDigestCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "digest <dataset>",
		Short: "Hash a dataset's artifacts and record them",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ds := mustFindDataset(cfg, args[0])
			p, closeFn := mustOpenPipeline(cfg)
			defer closeFn()

			d, err := p.RecordDigests(ds.Name)
			if err != nil {
				log.Fatalf("Failed to record digests: %v", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), d.String())
		},
	}
}

// NewHashCheckCmd returns the hashcheck command.
func NewHashCheckCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "hashcheck <dataset>",
		Short: "Compare a dataset's artifacts with its golden hashes",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ds := mustFindDataset(cfg, args[0])
			p := NewPipeline(cfg, nil)

			ok, err := p.CheckGolden(ds, cmd.OutOrStdout())
			if err != nil {
				log.Fatalf("Hash check failed: %v", err)
			}
			if !ok {
				os.Exit(1)
			}
		},
	}
}

// NewBuildDigestCmd returns the build-digest command.
func NewBuildDigestCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "build-digest",
		Short: "Combine all digest files into " + RuntimeDigestFile,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out, err := NewPipeline(cfg, nil).BuildRuntimeDigest()
			if err != nil {
				log.Fatalf("Failed to build runtime digest: %v", err)
			}
			log.Printf("Combined digest written -> %s", out)
		},
	}
}

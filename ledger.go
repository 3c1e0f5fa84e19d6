package codice

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Artifact names used in digests and the ledger.
const (
	ArtifactNormalized = "normalized"
	ArtifactKMeans     = "kmeans"
)

// ledgerTimeLayout is fixed width so recorded_at sorts as text.
const ledgerTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DigestEntry is one recorded artifact hash.
type DigestEntry struct {
	ID         int64
	Dataset    string
	Artifact   string
	SHA256     string
	Env        string
	RecordedAt time.Time
}

// Ledger is the SQLite history of artifact digests. It is audit metadata
// only; nothing read from it feeds back into the artifacts.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (creating if needed) the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS digests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset TEXT NOT NULL,
		artifact TEXT NOT NULL,
		sha256 TEXT NOT NULL,
		env TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_dataset_artifact ON digests(dataset, artifact);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close ledger: %v", err)
		}
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	// one writer at a time; concurrent dataset runs share the ledger
	db.SetMaxOpenConns(1)

	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends e. A zero RecordedAt is set to the current time.
func (l *Ledger) Record(e DigestEntry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	insertSQL := `
	INSERT INTO digests (dataset, artifact, sha256, env, recorded_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := l.db.Exec(insertSQL, e.Dataset, e.Artifact, e.SHA256, e.Env, e.RecordedAt.UTC().Format(ledgerTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert digest: %w", err)
	}
	return nil
}

// Latest returns the most recent entry for dataset and artifact.
func (l *Ledger) Latest(dataset, artifact string) (DigestEntry, bool, error) {
	row := l.db.QueryRow(`
	SELECT id, dataset, artifact, sha256, env, recorded_at
	FROM digests
	WHERE dataset = ? AND artifact = ?
	ORDER BY id DESC
	LIMIT 1
	`, dataset, artifact)

	e, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DigestEntry{}, false, nil
	}
	if err != nil {
		return DigestEntry{}, false, err
	}
	return e, true, nil
}

// History returns all entries of dataset, oldest first.
func (l *Ledger) History(dataset string) ([]DigestEntry, error) {
	rows, err := l.db.Query(`
	SELECT id, dataset, artifact, sha256, env, recorded_at
	FROM digests
	WHERE dataset = ?
	ORDER BY id
	`, dataset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	var entries []DigestEntry
	for rows.Next() {
		e, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (l *Ledger) Prune(cutoff time.Time) (int64, error) {
	res, err := l.db.Exec("DELETE FROM digests WHERE recorded_at < ?", cutoff.UTC().Format(ledgerTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDigest(s scanner) (DigestEntry, error) {
	var e DigestEntry
	var recordedAt string
	if err := s.Scan(&e.ID, &e.Dataset, &e.Artifact, &e.SHA256, &e.Env, &recordedAt); err != nil {
		return DigestEntry{}, err
	}
	t, err := time.Parse(ledgerTimeLayout, recordedAt)
	if err != nil {
		return DigestEntry{}, fmt.Errorf("failed to parse recorded_at for digest %d: %w", e.ID, err)
	}
	e.RecordedAt = t
	return e, nil
}

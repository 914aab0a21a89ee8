// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains a SQLite index over the stored summaries for
// filtering by president, category and text.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/propagate/internal/normalize"
	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

const (
	indexDir          = "index"
	dbFile            = "propagate.db"
	defaultMaxResults = 20
)

// Store manages the summary index database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Path returns the database location for a summaries directory.
func Path(summariesDir string) string {
	return filepath.Join(summariesDir, indexDir, dbFile)
}

// NewStore opens or creates summariesDir/index/propagate.db and its schema.
func NewStore(summariesDir string) (*Store, error) {
	dbPath := Path(summariesDir)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, maxResults: defaultMaxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			eo_number INTEGER PRIMARY KEY,
			title TEXT,
			president TEXT,
			publication_date TEXT,
			signing_date TEXT,
			effective_date TEXT,
			expiration_date TEXT,
			summary TEXT,
			purpose TEXT,
			deeper_dive TEXT,
			key_industries TEXT,
			original_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			eo_number INTEGER NOT NULL REFERENCES orders(eo_number) ON DELETE CASCADE,
			axis TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (eo_number, axis)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_axis_value ON categories(axis, value)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_president ON orders(president)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			file TEXT PRIMARY KEY,
			eo_number INTEGER,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of summary files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest indexes every summary file of st. Files whose modification time
// matches the last indexing run are skipped.
func (s *Store) Ingest(ctx context.Context, st *store.Store, w io.Writer) (IngestSummary, error) {
	paths, err := st.SummaryFiles()
	if err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE file = ?`, name,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		rec, err := store.ReadSummary(path)
		if err == nil {
			err = normalize.Renormalize(rec)
		}
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := s.ingestSummary(ctx, name, rec, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if isUpdate {
			fmt.Fprintf(w, "updated %s\n", name)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s\n", name)
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestSummary(ctx context.Context, file string, rec *types.Summary, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (eo_number, title, president, publication_date, signing_date,
			effective_date, expiration_date, summary, purpose, deeper_dive, key_industries, original_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(eo_number) DO UPDATE SET
			title=excluded.title, president=excluded.president,
			publication_date=excluded.publication_date, signing_date=excluded.signing_date,
			effective_date=excluded.effective_date, expiration_date=excluded.expiration_date,
			summary=excluded.summary, purpose=excluded.purpose, deeper_dive=excluded.deeper_dive,
			key_industries=excluded.key_industries, original_url=excluded.original_url`,
		rec.EONumber, rec.Title, rec.President,
		rec.PublicationDate.String(), rec.SigningDate.String(),
		rec.EffectiveDate.String(), rec.ExpirationDate.String(),
		rec.Summary, rec.Purpose, rec.DeeperDive, string(rec.KeyIndustries), rec.OriginalURL,
	)
	if err != nil {
		return fmt.Errorf("upserting order %d: %w", rec.EONumber, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE eo_number = ?`, rec.EONumber); err != nil {
		return fmt.Errorf("deleting old categories: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (eo_number, axis, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, axis := range types.CategoryAxes {
		value := rec.Categories.Get(axis.Name)
		if value == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, rec.EONumber, string(axis.Name), value); err != nil {
			return fmt.Errorf("inserting category %s: %w", axis.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (file, eo_number, file_mod_time) VALUES (?, ?, ?)
		 ON CONFLICT(file) DO UPDATE SET eo_number=excluded.eo_number, file_mod_time=excluded.file_mod_time`,
		file, rec.EONumber, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}
	return tx.Commit()
}

// Package db is the SQLite gene store behind the reference API: protein
// sequences, the sample layout and per-gene expression values.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	ErrNoGenes = errors.New("no genes requested")

	// ErrSampleLayout is returned when loaded expression data has a
	// different number of samples than the data already stored.
	ErrSampleLayout = errors.New("sample layout does not match stored samples")
)

// DefaultSamples is reported while no expression data has been loaded.
var DefaultSamples = []string{"Sample1", "Sample2", "Sample3", "Sample4", "Sample5", "Sample6"}

type GeneDB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*GeneDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	g, err := NewGeneDB(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return g, nil
}

// NewGeneDB wraps an open connection and makes sure the schema exists.
func NewGeneDB(sqlDB *sql.DB) (*GeneDB, error) {
	g := &GeneDB{db: sqlDB}
	if err := g.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return g, nil
}

func (g *GeneDB) Close() error {
	return g.db.Close()
}

func (g *GeneDB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS protein_sequence (
		gene_name TEXT PRIMARY KEY,
		sequence TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sample (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gene_expression (
		gene_name TEXT NOT NULL REFERENCES protein_sequence(gene_name) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (gene_name, position)
	);
	`
	_, err := g.db.Exec(schema)
	return err
}

// Samples returns the sample names in column order.
func (g *GeneDB) Samples(ctx context.Context) ([]string, error) {
	samples, err := querySamples(ctx, g.db)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return append([]string(nil), DefaultSamples...), nil
	}
	return samples, nil
}

// Sequences returns the stored sequence of every requested gene that
// exists. Lookup is exact and case-sensitive.
func (g *GeneDB) Sequences(ctx context.Context, genes []string) (map[string]string, error) {
	if len(genes) == 0 {
		return nil, ErrNoGenes
	}

	query := "SELECT gene_name, sequence FROM protein_sequence WHERE gene_name IN (" + placeholders(len(genes)) + ")"
	rows, err := g.db.QueryContext(ctx, query, toArgs(genes)...)
	if err != nil {
		return nil, fmt.Errorf("query sequences: %w", err)
	}
	defer rows.Close()

	found := make(map[string]string, len(genes))
	for rows.Next() {
		var name, seq string
		if err := rows.Scan(&name, &seq); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		found[name] = seq
	}
	return found, rows.Err()
}

// Expressions returns the expression vector of every requested gene that
// has one. Vectors are in sample order.
func (g *GeneDB) Expressions(ctx context.Context, genes []string) (map[string][]float64, error) {
	if len(genes) == 0 {
		return nil, ErrNoGenes
	}
	return queryExpressions(ctx, g.db, genes)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func querySamples(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM sample ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, name)
	}
	return samples, rows.Err()
}

func queryExpressions(ctx context.Context, q queryer, genes []string) (map[string][]float64, error) {
	query := "SELECT gene_name, position, value FROM gene_expression WHERE gene_name IN (" +
		placeholders(len(genes)) + ") ORDER BY gene_name, position"
	rows, err := q.QueryContext(ctx, query, toArgs(genes)...)
	if err != nil {
		return nil, fmt.Errorf("query expressions: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float64, len(genes))
	for rows.Next() {
		var (
			name  string
			pos   int
			value float64
		)
		if err := rows.Scan(&name, &pos, &value); err != nil {
			return nil, fmt.Errorf("scan expression: %w", err)
		}
		out[name] = append(out[name], value)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

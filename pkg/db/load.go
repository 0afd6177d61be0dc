package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/yumyai/genepanel/logger"
	"go.uber.org/zap"
)

type LoadReport struct {
	ParsedSequences    int
	ParsedExpressions  int
	CreatedSequences   int
	CreatedExpressions int
	UpdatedExpressions int
}

func (r LoadReport) String() string {
	return fmt.Sprintf("Created sequences: %d; Created expressions: %d; Updated expressions: %d",
		r.CreatedSequences, r.CreatedExpressions, r.UpdatedExpressions)
}

// LoadFiles parses a FASTA file and an expression table (either may be
// gzipped) and loads both in one transaction.
func (g *GeneDB) LoadFiles(ctx context.Context, fastaPath, tsvPath string) (LoadReport, error) {

	fr, err := OpenReader(fastaPath)
	if err != nil {
		return LoadReport{}, fmt.Errorf("open fasta: %w", err)
	}
	defer fr.Close()

	records, err := ParseFASTA(fr)
	if err != nil {
		return LoadReport{}, err
	}
	logger.Info("Parsed sequences", zap.String("file", fastaPath), zap.Int("count", len(records)))

	tr, err := OpenReader(tsvPath)
	if err != nil {
		return LoadReport{}, fmt.Errorf("open tsv: %w", err)
	}
	defer tr.Close()

	table, err := ParseTSV(tr)
	if err != nil {
		return LoadReport{}, err
	}
	logger.Info("Parsed expression rows", zap.String("file", tsvPath), zap.Int("count", len(table.Rows)))

	return g.Load(ctx, records, table)
}

// Load upserts sequences, then expression values for the genes that have a
// sequence. Expression rows for unknown genes are skipped.
func (g *GeneDB) Load(ctx context.Context, records []FastaRecord, table *ExpressionTable) (LoadReport, error) {

	report := LoadReport{ParsedSequences: len(records)}
	if table != nil {
		report.ParsedExpressions = len(table.Rows)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		created, err := upsertSequence(ctx, tx, rec)
		if err != nil {
			return report, err
		}
		if created {
			report.CreatedSequences++
		}
	}

	if table != nil && len(table.Rows) > 0 {
		if err := syncSamples(ctx, tx, table.Samples); err != nil {
			return report, err
		}
		if err := loadExpressions(ctx, tx, table, &report); err != nil {
			return report, err
		}
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit load: %w", err)
	}
	return report, nil
}

func upsertSequence(ctx context.Context, tx *sql.Tx, rec FastaRecord) (bool, error) {
	var existing string
	err := tx.QueryRowContext(ctx, "SELECT sequence FROM protein_sequence WHERE gene_name = ?", rec.ID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, "INSERT INTO protein_sequence (gene_name, sequence) VALUES (?, ?)", rec.ID, rec.Sequence); err != nil {
			return false, fmt.Errorf("insert sequence %s: %w", rec.ID, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("lookup sequence %s: %w", rec.ID, err)
	}

	if existing != rec.Sequence {
		if _, err := tx.ExecContext(ctx, "UPDATE protein_sequence SET sequence = ? WHERE gene_name = ?", rec.Sequence, rec.ID); err != nil {
			return false, fmt.Errorf("update sequence %s: %w", rec.ID, err)
		}
	}
	return false, nil
}

func syncSamples(ctx context.Context, tx *sql.Tx, samples []string) error {
	stored, err := querySamples(ctx, tx)
	if err != nil {
		return err
	}
	if len(stored) > 0 && len(stored) != len(samples) {
		return fmt.Errorf("%w: stored %d, loading %d", ErrSampleLayout, len(stored), len(samples))
	}
	for i, name := range samples {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sample (position, name) VALUES (?, ?) ON CONFLICT(position) DO UPDATE SET name = excluded.name",
			i, name); err != nil {
			return fmt.Errorf("store sample %s: %w", name, err)
		}
	}
	return nil
}

func loadExpressions(ctx context.Context, tx *sql.Tx, table *ExpressionTable, report *LoadReport) error {

	genes := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		genes = append(genes, row.Gene)
	}

	known := make(map[string]bool, len(genes))
	for _, part := range chunk(genes, 500) {
		rows, err := tx.QueryContext(ctx,
			"SELECT gene_name FROM protein_sequence WHERE gene_name IN ("+placeholders(len(part))+")", toArgs(part)...)
		if err != nil {
			return fmt.Errorf("query known genes: %w", err)
		}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("scan gene: %w", err)
			}
			known[name] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	for _, row := range table.Rows {
		if !known[row.Gene] {
			logger.Debug("Skipping expression without sequence", zap.String("gene", row.Gene))
			continue
		}

		current, err := queryExpressions(ctx, tx, []string{row.Gene})
		if err != nil {
			return err
		}
		existing, ok := current[row.Gene]
		if ok && slices.Equal(existing, row.Values) {
			continue
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM gene_expression WHERE gene_name = ?", row.Gene); err != nil {
			return fmt.Errorf("clear expression %s: %w", row.Gene, err)
		}
		for pos, v := range row.Values {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO gene_expression (gene_name, position, value) VALUES (?, ?, ?)", row.Gene, pos, v); err != nil {
				return fmt.Errorf("insert expression %s: %w", row.Gene, err)
			}
		}

		if ok {
			report.UpdatedExpressions++
		} else {
			report.CreatedExpressions++
		}
	}
	return nil
}

func chunk(values []string, size int) [][]string {
	var out [][]string
	for len(values) > size {
		out = append(out, values[:size])
		values = values[size:]
	}
	if len(values) > 0 {
		out = append(out, values)
	}
	return out
}

package db

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/genepanel/pkg/model"
)

const testFasta = `; comment before any record
>GeneA protein A
MKT
AYI
>GeneB
MSS

>GeneC  third
MAA
`

const testHeaderTSV = "Gene\tSample1\tSample2\tSample3\n" +
	"GeneA\t1\t2\t3\n" +
	"GeneB\t4\tx\t6\n" +
	"broken\t1\n" +
	"Orphan\t7\t8\t9\n"

func openTestDB(t *testing.T) *GeneDB {
	t.Helper()
	g, err := Open(filepath.Join(t.TempDir(), "db", "genes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestParseFASTA(t *testing.T) {
	records, err := ParseFASTA(strings.NewReader(testFasta))
	require.NoError(t, err)

	assert.Equal(t, []FastaRecord{
		{ID: "GeneA", Sequence: "MKTAYI"},
		{ID: "GeneB", Sequence: "MSS"},
		{ID: "GeneC", Sequence: "MAA"},
	}, records)
}

func TestParseFASTARepeatedID(t *testing.T) {
	records, err := ParseFASTA(strings.NewReader(">G\nAA\r\n>H\nCC\n>G again\nTT\n"))
	require.NoError(t, err)

	assert.Equal(t, []FastaRecord{{ID: "G", Sequence: "AATT"}, {ID: "H", Sequence: "CC"}}, records)
}

func TestParseTSVHeader(t *testing.T) {
	table, err := ParseTSV(strings.NewReader(testHeaderTSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Sample1", "Sample2", "Sample3"}, table.Samples)
	assert.Equal(t, []model.ExpressionRow{
		{Gene: "GeneA", Values: []float64{1, 2, 3}},
		{Gene: "GeneB", Values: []float64{4, 0, 6}},
		{Gene: "Orphan", Values: []float64{7, 8, 9}},
	}, table.Rows)
}

func TestParseTSVPaired(t *testing.T) {
	in := "GeneA\t1\ts2\t2\ts3\t3\ts4\t4\ts5\t5\ts6\t6\n" +
		"short\t1\t2\n" +
		"GeneB\t10\ts2\t20\ts3\tbad\ts4\t40\ts5\t50\ts6\t60\textra\n"

	table, err := ParseTSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, DefaultSamples, table.Samples)
	assert.Equal(t, []model.ExpressionRow{
		{Gene: "GeneA", Values: []float64{1, 2, 3, 4, 5, 6}},
		{Gene: "GeneB", Values: []float64{10, 20, 0, 40, 50, 60}},
	}, table.Rows)
}

func TestParseTSVEmpty(t *testing.T) {
	table, err := ParseTSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestLoadAndQuery(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	records, err := ParseFASTA(strings.NewReader(testFasta))
	require.NoError(t, err)
	table, err := ParseTSV(strings.NewReader(testHeaderTSV))
	require.NoError(t, err)

	report, err := g.Load(ctx, records, table)
	require.NoError(t, err)
	assert.Equal(t, 3, report.CreatedSequences)
	assert.Equal(t, 2, report.CreatedExpressions)
	assert.Equal(t, 0, report.UpdatedExpressions)
	assert.Equal(t, "Created sequences: 3; Created expressions: 2; Updated expressions: 0", report.String())

	samples, err := g.Samples(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sample1", "Sample2", "Sample3"}, samples)

	seqs, err := g.Sequences(ctx, []string{"GeneA", "genea", "Missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"GeneA": "MKTAYI"}, seqs)

	exprs, err := g.Expressions(ctx, []string{"GeneA", "GeneB", "GeneC", "Orphan"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{
		"GeneA": {1, 2, 3},
		"GeneB": {4, 0, 6},
	}, exprs)
}

func TestLoadIsIdempotentAndUpdates(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	records := []FastaRecord{{ID: "GeneA", Sequence: "MKT"}, {ID: "GeneB", Sequence: "MSS"}}
	table := &ExpressionTable{
		Samples: []string{"S1", "S2"},
		Rows: []model.ExpressionRow{
			{Gene: "GeneA", Values: []float64{1, 2}},
			{Gene: "GeneB", Values: []float64{3, 4}},
		},
	}
	_, err := g.Load(ctx, records, table)
	require.NoError(t, err)

	report, err := g.Load(ctx, records, table)
	require.NoError(t, err)
	assert.Equal(t, LoadReport{ParsedSequences: 2, ParsedExpressions: 2}, report)

	records[0].Sequence = "MKTT"
	table.Rows[1].Values = []float64{3, 5}
	report, err = g.Load(ctx, records, table)
	require.NoError(t, err)
	assert.Equal(t, 0, report.CreatedSequences)
	assert.Equal(t, 1, report.UpdatedExpressions)

	seqs, err := g.Sequences(ctx, []string{"GeneA"})
	require.NoError(t, err)
	assert.Equal(t, "MKTT", seqs["GeneA"])

	exprs, err := g.Expressions(ctx, []string{"GeneB"})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5}, exprs["GeneB"])
}

func TestLoadRejectsDifferentSampleLayout(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	records := []FastaRecord{{ID: "GeneA", Sequence: "MKT"}}
	_, err := g.Load(ctx, records, &ExpressionTable{
		Samples: []string{"S1", "S2"},
		Rows:    []model.ExpressionRow{{Gene: "GeneA", Values: []float64{1, 2}}},
	})
	require.NoError(t, err)

	_, err = g.Load(ctx, records, &ExpressionTable{
		Samples: []string{"S1", "S2", "S3"},
		Rows:    []model.ExpressionRow{{Gene: "GeneA", Values: []float64{1, 2, 3}}},
	})
	assert.ErrorIs(t, err, ErrSampleLayout)
}

func TestEmptyStore(t *testing.T) {
	g := openTestDB(t)
	ctx := context.Background()

	samples, err := g.Samples(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSamples, samples)

	_, err = g.Sequences(ctx, nil)
	assert.ErrorIs(t, err, ErrNoGenes)
	_, err = g.Expressions(ctx, []string{})
	assert.ErrorIs(t, err, ErrNoGenes)
}

func TestLoadFilesGzip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(testFasta))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// No .gz suffix: detected by magic bytes.
	fastaPath := filepath.Join(dir, "proteins.faa")
	require.NoError(t, os.WriteFile(fastaPath, buf.Bytes(), 0644))
	tsvPath := filepath.Join(dir, "expr.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte(testHeaderTSV), 0644))

	g := openTestDB(t)
	report, err := g.LoadFiles(context.Background(), fastaPath, tsvPath)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ParsedSequences)
	assert.Equal(t, 3, report.CreatedSequences)
	assert.Equal(t, 2, report.CreatedExpressions)
}

func TestLoadFilesMissing(t *testing.T) {
	g := openTestDB(t)
	_, err := g.LoadFiles(context.Background(), filepath.Join(t.TempDir(), "nope.fa"), "x.tsv")
	assert.Error(t, err)
}

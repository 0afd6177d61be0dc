package db

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yumyai/genepanel/pkg/model"
)

const maxLineSize = 16 * 1024 * 1024

// pairedValueColumns are the value columns of a header-less expression
// table laid out as name/value pairs.
var pairedValueColumns = []int{1, 3, 5, 7, 9, 11}

type FastaRecord struct {
	ID       string
	Sequence string
}

// ParseFASTA reads protein records. The id is the first word of the header;
// sequence lines are trimmed and joined. Lines before the first header are
// ignored and a repeated id extends the earlier record.
func ParseFASTA(r io.Reader) ([]FastaRecord, error) {

	var (
		order []string
		parts = make(map[string]*strings.Builder)
		cur   *strings.Builder
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				cur = nil
				continue
			}
			id := fields[0]
			b, ok := parts[id]
			if !ok {
				b = &strings.Builder{}
				parts[id] = b
				order = append(order, id)
			}
			cur = b
			continue
		}
		if cur == nil {
			continue
		}
		cur.WriteString(strings.TrimSpace(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}

	records := make([]FastaRecord, 0, len(order))
	for _, id := range order {
		records = append(records, FastaRecord{ID: id, Sequence: parts[id].String()})
	}
	return records, nil
}

// ExpressionTable is a parsed expression file. Every row has one value per
// sample.
type ExpressionTable struct {
	Samples []string
	Rows    []model.ExpressionRow
}

// ParseTSV reads an expression table in one of two layouts:
//
//	Gene    S1  S2  ...      header line, one value column per sample
//	g  n1  v1  n2  v2 ...    no header, six name/value pairs
//
// Rows with the wrong number of columns are skipped and values that do not
// parse are stored as 0. A later row for the same gene replaces the earlier.
func ParseTSV(r io.Reader) (*ExpressionTable, error) {

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read tsv: %w", err)
		}
		return &ExpressionTable{}, nil
	}

	first := splitTSV(sc.Text())
	table := newTableBuilder()

	if isHeader(first) {
		table.samples = make([]string, 0, len(first)-1)
		for _, name := range first[1:] {
			table.samples = append(table.samples, strings.TrimSpace(name))
		}
		for sc.Scan() {
			cols := splitTSV(sc.Text())
			if len(cols) != len(first) {
				continue
			}
			values := make([]float64, 0, len(cols)-1)
			for _, c := range cols[1:] {
				values = append(values, parseValue(c))
			}
			table.put(cols[0], values)
		}
	} else {
		table.samples = append([]string(nil), DefaultSamples...)
		addPaired := func(cols []string) {
			if len(cols) < 12 {
				return
			}
			values := make([]float64, 0, len(pairedValueColumns))
			for _, idx := range pairedValueColumns {
				values = append(values, parseValue(cols[idx]))
			}
			table.put(cols[0], values)
		}
		addPaired(first)
		for sc.Scan() {
			addPaired(splitTSV(sc.Text()))
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	return table.build(), nil
}

func isHeader(cols []string) bool {
	if len(cols) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(cols[0]), 64)
	if err == nil {
		return false
	}
	// A paired data line has a numeric second column.
	if len(cols) >= 12 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64); err == nil {
			return false
		}
	}
	return true
}

func splitTSV(line string) []string {
	return strings.Split(strings.TrimRight(line, "\r\n"), "\t")
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

type tableBuilder struct {
	samples []string
	order   []string
	values  map[string][]float64
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{values: make(map[string][]float64)}
}

func (b *tableBuilder) put(gene string, values []float64) {
	gene = strings.TrimSpace(gene)
	if gene == "" {
		return
	}
	if _, ok := b.values[gene]; !ok {
		b.order = append(b.order, gene)
	}
	b.values[gene] = values
}

func (b *tableBuilder) build() *ExpressionTable {
	t := &ExpressionTable{Samples: b.samples}
	for _, gene := range b.order {
		t.Rows = append(t.Rows, model.ExpressionRow{Gene: gene, Values: b.values[gene]})
	}
	return t
}

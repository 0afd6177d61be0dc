package model

import "fmt"

// Validate checks the shape of a query result against the genes that were
// requested: every row is as wide as the sample list, and the not-found
// genes are a subset of the request that never shows up as a row.
func (r *ExpressionQueryResult) Validate(requested []string) error {

	found := make(map[string]struct{}, len(r.Rows))

	for i, row := range r.Rows {
		if len(row.Values) != len(r.Samples) {
			return fmt.Errorf("row %d (%s) has %d values for %d samples", i, row.Gene, len(row.Values), len(r.Samples))
		}
		found[row.Gene] = struct{}{}
	}

	asked := make(map[string]struct{}, len(requested))
	for _, g := range requested {
		asked[g] = struct{}{}
	}

	for _, g := range r.NotFound {
		if _, ok := found[g]; ok {
			return fmt.Errorf("gene %s is reported both found and not found", g)
		}
		if _, ok := asked[g]; !ok {
			return fmt.Errorf("gene %s reported not found but was never requested", g)
		}
	}

	return nil
}

// Package heatmap turns expression query results into the matrix and labels
// a heatmap is drawn from, and draws it.
package heatmap

import (
	"github.com/yumyai/genepanel/pkg/model"
)

// Project reshapes a query result into a heatmap projection. Genes and
// samples keep the order they were received in, so Matrix[i][j] is the
// value of YLabels[i] in XLabels[j]. Nothing in the result is shared with
// the projection.
func Project(result *model.ExpressionQueryResult) model.HeatmapProjection {

	if result == nil {
		return model.HeatmapProjection{}
	}

	p := model.HeatmapProjection{
		XLabels:  append([]string(nil), result.Samples...),
		YLabels:  make([]string, 0, len(result.Rows)),
		Matrix:   make([][]float64, 0, len(result.Rows)),
		Rows:     make([]model.ExpressionRow, 0, len(result.Rows)),
		NotFound: append([]string(nil), result.NotFound...),
	}

	for _, row := range result.Rows {
		values := append([]float64(nil), row.Values...)
		p.YLabels = append(p.YLabels, row.Gene)
		p.Matrix = append(p.Matrix, values)
		p.Rows = append(p.Rows, model.ExpressionRow{Gene: row.Gene, Values: values})
	}

	return p
}

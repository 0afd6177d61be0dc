package model

// One row of expression values, aligned with ExpressionQueryResult.Samples.
type ExpressionRow struct {
	Gene   string    `json:"gene"`
	Values []float64 `json:"values"`
}

// Return from the expression query endpoint
type ExpressionQueryResult struct {
	Samples  []string        `json:"samples"`
	Rows     []ExpressionRow `json:"rows"`
	NotFound []string        `json:"not_found"`
}

// HeatmapProjection is what the display layer draws: x/y labels, the value
// matrix and the original rows for the data table.
type HeatmapProjection struct {
	XLabels  []string
	YLabels  []string
	Matrix   [][]float64
	Rows     []ExpressionRow
	NotFound []string
}

// Blob is a downloadable payload together with the name it is saved under.
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
}

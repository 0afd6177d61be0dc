package heatmap

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/yumyai/genepanel/pkg/colormap"
	"github.com/yumyai/genepanel/pkg/model"
)

var ErrEmptyProjection = errors.New("heatmap has no rows or no samples")

var ErrUnknownColormap = errors.New("unknown colormap")

const (
	marginTop    = 40
	marginBottom = 60
	marginRight  = 20
	labelPad     = 8
	legendWidth  = 16
	legendGap    = 12
	legendLabelW = 48
)

type RenderOptions struct {
	Colormap  string
	CellWidth int
	Title     string
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Colormap:  "viridis",
		CellWidth: 56,
		Title:     "Expression Heatmap",
	}
}

func (o RenderOptions) withDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Colormap == "" {
		o.Colormap = d.Colormap
	}
	if o.CellWidth <= 0 {
		o.CellWidth = d.CellWidth
	}
	if o.Title == "" {
		o.Title = d.Title
	}
	return o
}

// FigureHeight grows with the number of genes so labels stay readable.
func FigureHeight(rows int) int {
	return max(320, 28*rows)
}

// RenderPNG draws the projection as a PNG: one cell per gene/sample, gene
// labels on the left, sample labels under the cells, a color bar on the
// right.
func RenderPNG(p model.HeatmapProjection, opts RenderOptions) ([]byte, error) {

	if len(p.Matrix) == 0 || len(p.XLabels) == 0 {
		return nil, ErrEmptyProjection
	}
	opts = opts.withDefaults()
	cmap, ok := colormap.Lookup(opts.Colormap)
	if !ok {
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownColormap, opts.Colormap, strings.Join(colormap.Names(), ", "))
	}

	rows, cols := len(p.Matrix), len(p.XLabels)
	lo, hi := valueRange(p.Matrix)

	// Measure labels before sizing the canvas
	measure := gg.NewContext(1, 1)
	yLabelW := 0.0
	for _, y := range p.YLabels {
		w, _ := measure.MeasureString(y)
		yLabelW = math.Max(yLabelW, w)
	}
	xLabelExtent := 0.0
	for _, x := range p.XLabels {
		w, _ := measure.MeasureString(x)
		xLabelExtent = math.Max(xLabelExtent, w*math.Sin(math.Pi/4)+labelPad)
	}

	bottom := math.Max(marginBottom, xLabelExtent+labelPad*2)
	left := yLabelW + labelPad*2
	plotW := float64(opts.CellWidth * cols)
	plotH := float64(FigureHeight(rows) - marginTop - marginBottom)
	cellW := float64(opts.CellWidth)
	cellH := plotH / float64(rows)

	width := int(math.Ceil(left + plotW + legendGap + legendWidth + legendLabelW + marginRight))
	height := int(math.Ceil(marginTop + plotH + bottom))

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(opts.Title, left+plotW/2, marginTop/2, 0.5, 0.5)

	span := hi - lo
	if span == 0 {
		span = 1
	}

	for i, values := range p.Matrix {
		y := marginTop + float64(i)*cellH
		for j, v := range values {
			if j >= cols {
				break
			}
			dc.SetColor(cmap.At((v - lo) / span))
			dc.DrawRectangle(left+float64(j)*cellW, y, cellW, cellH)
			dc.Fill()
		}
	}

	dc.SetColor(color.Black)
	for i, label := range p.YLabels {
		dc.DrawStringAnchored(label, left-labelPad, marginTop+(float64(i)+0.5)*cellH, 1, 0.5)
	}

	for j, label := range p.XLabels {
		x := left + (float64(j)+0.5)*cellW
		y := marginTop + plotH + labelPad
		dc.Push()
		dc.RotateAbout(gg.Radians(-45), x, y)
		dc.DrawStringAnchored(label, x, y, 1, 0.5)
		dc.Pop()
	}

	drawLegend(dc, cmap, left+plotW+legendGap, marginTop, plotH, lo, hi)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func drawLegend(dc *gg.Context, cmap colormap.Colormap, x, y, h, lo, hi float64) {

	steps := int(h)
	for s := 0; s < steps; s++ {
		t := 1 - float64(s)/float64(max(steps-1, 1))
		dc.SetColor(cmap.At(t))
		dc.DrawRectangle(x, y+float64(s), legendWidth, 1)
		dc.Fill()
	}

	dc.SetColor(color.Black)
	dc.DrawStringAnchored(formatValue(hi), x+legendWidth+4, y, 0, 0.5)
	dc.DrawStringAnchored(formatValue(lo), x+legendWidth+4, y+h, 0, 0.5)
}

func valueRange(matrix [][]float64) (lo, hi float64) {

	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range matrix {
		for _, v := range row {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

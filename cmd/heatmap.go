package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yumyai/genepanel/pkg/colormap"
	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/heatmap"
	"github.com/yumyai/genepanel/pkg/model"
)

var (
	heatmapGenes    string
	heatmapOut      string
	heatmapColormap string
)

// heatmapCmd draws the expression heatmap to a PNG file
var heatmapCmd = &cobra.Command{
	Use:   "heatmap [genes...]",
	Short: "Draw the expression heatmap of a gene selection to a PNG file",
	Example: `  genepanel heatmap GeneA GeneB GeneC -o panel.png
  genepanel heatmap --genes "GeneA,GeneB" --colormap magma`,
	RunE: func(cmd *cobra.Command, args []string) error {

		cmapName := firstNonEmpty(heatmapColormap, cfg.Heatmap.Colormap)
		if !colormap.Valid(cmapName) {
			return fmt.Errorf("unknown colormap %q (want one of %s)", cmapName, strings.Join(colormap.Names(), ", "))
		}

		c := newSelection(args, heatmapGenes)
		if err := c.ViewHeatmap(cmd.Context()); err != nil {
			return selectionError(c, err)
		}

		state := c.Snapshot()
		out := cmd.OutOrStdout()
		printMissing(out, state.NotFound)
		if state.Projection == nil || len(state.Projection.Rows) == 0 {
			fmt.Fprintln(out, "No expression data for the selected genes.")
			return nil
		}

		opts := heatmap.RenderOptions{
			Colormap:  cmapName,
			CellWidth: cfg.Heatmap.CellWidth,
			Title:     "Expression Heatmap",
		}
		data, err := heatmap.RenderPNG(*state.Projection, opts)
		if err != nil {
			return err
		}

		saver := controller.FileSaver{Dir: filepath.Dir(heatmapOut)}
		blob := &model.Blob{Filename: filepath.Base(heatmapOut), ContentType: "image/png", Data: data}
		if err := saver.Save(cmd.Context(), blob); err != nil {
			return err
		}

		writeTable(out, state.Projection)
		fmt.Fprintln(out, saver.Path(blob))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(heatmapCmd)

	heatmapCmd.Flags().StringVarP(&heatmapGenes, "genes", "g", "", "genes separated by comma or space")
	heatmapCmd.Flags().StringVarP(&heatmapOut, "out", "o", "heatmap.png", "PNG file to write")
	heatmapCmd.Flags().StringVar(&heatmapColormap, "colormap", "",
		"colormap: "+strings.Join(colormap.Names(), ", ")+" (default heatmap.colormap)")
}

// writeTable prints the data behind the heatmap, one gene per line.
func writeTable(w io.Writer, p *model.HeatmapProjection) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Gene\t%s\t\n", strings.Join(p.XLabels, "\t"))
	for _, row := range p.Rows {
		values := make([]string, len(row.Values))
		for i, v := range row.Values {
			values[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", row.Gene, strings.Join(values, "\t"))
	}
	tw.Flush()
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/logger"
	"github.com/yumyai/genepanel/pkg/client"
	"github.com/yumyai/genepanel/pkg/controller"
	"github.com/yumyai/genepanel/pkg/model"
	"github.com/yumyai/genepanel/pkg/selection"
)

var (
	fetchGenes  string
	fetchOutDir string
	fetchExt    string
	fetchWrap   string
)

// fetchCmd downloads sequences or expression values for a gene selection
var fetchCmd = &cobra.Command{
	Use:       "fetch fasta|tsv [genes...]",
	Short:     "Download protein sequences (fasta) or expression values (tsv)",
	ValidArgs: []string{"fasta", "tsv"},
	Args:      cobra.MinimumNArgs(1),
	Example: `  genepanel fetch fasta GeneA GeneB --wrap 60 --ext fa
  genepanel fetch tsv --genes "GeneA, GeneB" --out ./downloads`,
	RunE: func(cmd *cobra.Command, args []string) error {

		kind := args[0]
		var download func(*controller.Controller, context.Context, controller.Saver) error
		switch kind {
		case "fasta":
			download = (*controller.Controller).DownloadFASTA
		case "tsv":
			download = (*controller.Controller).DownloadTSV
		default:
			return fmt.Errorf("unknown download %q (want fasta or tsv)", kind)
		}

		opts, err := parseFetchOptions(fetchExt, fetchWrap)
		if err != nil {
			return err
		}

		c := newSelection(args[1:], fetchGenes)
		if err := c.SetOptions(opts); err != nil {
			return err
		}

		saver := controller.FileSaver{Dir: fetchOutDir}
		var saved string
		err = download(c, cmd.Context(), controller.SaverFunc(func(ctx context.Context, blob *model.Blob) error {
			saved = saver.Path(blob)
			return saver.Save(ctx, blob)
		}))
		if err != nil {
			return selectionError(c, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), saved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchGenes, "genes", "g", "", "genes separated by comma or space")
	fetchCmd.Flags().StringVarP(&fetchOutDir, "out", "o", ".", "directory the download is saved to")
	fetchCmd.Flags().StringVar(&fetchExt, "ext", "fasta", "sequence file extension: fasta or fa")
	fetchCmd.Flags().StringVar(&fetchWrap, "wrap", "0", "sequence line width: 0 (no wrap), 60 or 80")
}

func parseFetchOptions(ext, wrap string) (model.DownloadOptions, error) {
	e, err := model.ParseFileExtension(ext)
	if err != nil {
		return model.DownloadOptions{}, err
	}
	w, err := model.ParseWrapWidth(wrap)
	if err != nil {
		return model.DownloadOptions{}, err
	}
	return model.DownloadOptions{Ext: e, Wrap: w}, nil
}

// newSelection builds a controller against the configured API and commits
// the genes from args and the --genes flag.
func newSelection(args []string, genes string) *controller.Controller {
	api := client.New(cfg.API.BaseURL, client.WithLogger(logger.L()))
	c := controller.New(api, controller.WithLogger(logger.L()))

	text := strings.Join(args, " ") + " " + genes
	selected := c.Commit(text)
	logger.Debug("Selection", zap.Strings("genes", selected), zap.String("api", api.BaseURL()))

	if len(selected) < countDistinct(selection.Normalize(text)) {
		logger.Warn("Selection is limited", zap.Int("max", selection.MaxGenes), zap.Strings("kept", selected))
	}
	return c
}

func countDistinct(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return len(seen)
}

// selectionError prefers the message the controller shows to the user.
func selectionError(c *controller.Controller, err error) error {
	state := c.Snapshot()
	if state.Error == "" {
		return err
	}
	logger.Debug("Request failed", zap.Error(err))
	if errors.Is(err, controller.ErrBusy) {
		return err
	}
	return errors.New(state.Error)
}

func printMissing(w io.Writer, notFound []string) {
	if len(notFound) == 0 {
		return
	}
	fmt.Fprintf(w, "Missing genes: %s\n", strings.Join(notFound, ", "))
}

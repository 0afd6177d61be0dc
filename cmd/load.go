package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/genepanel/logger"
	"github.com/yumyai/genepanel/pkg/db"
)

var (
	loadFastaPath string
	loadTSVPath   string
	loadDBPath    string
)

// loadCmd fills the gene database
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load protein sequences and gene expression data into the database",
	Long: `Load protein sequences (FASTA) and expression values (TSV) into the gene
database. Either file may be gzipped.

The TSV is either a header line "Gene<TAB>sample..." followed by one line per
gene, or header-less lines of six name/value pairs. Expression values are only
stored for genes that also have a sequence.`,
	Example: `  genepanel load --fasta proteins.faa.gz --tsv expression.tsv
  genepanel load --fasta proteins.faa --tsv expression.tsv --db ./data/db/genepanel.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {

		dbPath := firstNonEmpty(loadDBPath, cfg.Backend.DBPath)
		store, err := db.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := store.LoadFiles(cmd.Context(), loadFastaPath, loadTSVPath)
		if err != nil {
			return err
		}

		logger.Info("Load complete",
			zap.String("db", dbPath),
			zap.Int("parsed_sequences", report.ParsedSequences),
			zap.Int("parsed_expressions", report.ParsedExpressions),
		)
		fmt.Fprintln(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadFastaPath, "fasta", "", "path to FASTA file")
	loadCmd.Flags().StringVar(&loadTSVPath, "tsv", "", "path to TSV file")
	loadCmd.Flags().StringVar(&loadDBPath, "db", "", "path to the gene database (default backend.db_path)")

	loadCmd.MarkFlagRequired("fasta")
	loadCmd.MarkFlagRequired("tsv")
}

package cmd

import (
	"fmt"

	"github.com/jjtimmons/felix/config"
	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCmd is the parent of the export formats
var exportCmd = &cobra.Command{
	Use:                        "export",
	Short:                      "Export annotated constructs to other formats",
	SuggestionsMinimumDistance: 2,
}

// exportLeanCmd is for writing constructs as Lean definitions
var exportLeanCmd = &cobra.Command{
	Use:                        "lean [file]",
	Short:                      "Annotate a GenBank file and write each record as a Lean Plasmid",
	RunE:                       runExportLean,
	Args:                       cobra.ExactArgs(1),
	SuggestionsMinimumDistance: 2,
	Long: `Annotate each record of a GenBank file and write it as a Lean 4 Plasmid definition
with its parts' sequences, roles, overhangs, metadata and orientations.`,
	Example: "  felix export lean pMOCK.gb > pMOCK.lean",
}

func runExportLean(cmd *cobra.Command, args []string) error {
	conf := config.New()
	engine, err := felix.LoadEngine(cmd.Context(), conf, logger)
	if err != nil {
		return err
	}

	records, err := felix.ReadGenbankFile(args[0])
	if err != nil {
		return err
	}

	for _, record := range records {
		if record.Err != nil {
			logger.Error("skipping record", zap.String("file", args[0]), zap.Error(record.Err))
			continue
		}
		if _, err := engine.Annotate(cmd.Context(), record.Construct); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), felix.LeanDefinition(record.Construct))
	}
	return nil
}

// set flags
func init() {
	exportCmd.AddCommand(exportLeanCmd)

	RootCmd.AddCommand(exportCmd)
}

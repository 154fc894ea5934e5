package cmd

import (
	"fmt"

	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// junctionsCmd is for checking the junctions of records without inferring roles
var junctionsCmd = &cobra.Command{
	Use:                        "junctions [files or directories]",
	Short:                      "Check that neighboring parts have matching junctions",
	RunE:                       runJunctions,
	Args:                       cobra.MinimumNArgs(1),
	SuggestionsMinimumDistance: 3,
	Long: `Check the 4bp junctions between each pair of neighboring parts in GenBank records.
The last and first parts are only compared in circular records.

Each mismatch is written with the part that would close it.`,
	Aliases: []string{"gaps"},
	Example: "  felix junctions pMOCK.gb",
}

func runJunctions(cmd *cobra.Command, args []string) error {
	files, err := felix.GenbankFiles(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, file := range files {
		records, err := felix.ReadGenbankFile(file)
		if err != nil {
			logger.Error("skipping file", zap.String("file", file), zap.Error(err))
			continue
		}

		for _, record := range records {
			if record.Err != nil {
				logger.Error("skipping record", zap.String("file", file), zap.Error(record.Err))
				continue
			}

			c := record.Construct
			gaps := c.Gaps()
			fmt.Fprintln(w, c)
			if len(gaps) == 0 {
				fmt.Fprintf(w, "  junction-consistent (%d parts)\n\n", len(c.Layout))
				continue
			}

			fmt.Fprintf(w, "  %d gaps\n", len(gaps))
			for _, g := range gaps {
				fmt.Fprintf(w, "  %s\n", g.Patch())
			}
			fmt.Fprintln(w)
		}
	}

	return nil
}

// set flags
func init() {
	RootCmd.AddCommand(junctionsCmd)
}

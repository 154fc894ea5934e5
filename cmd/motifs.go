package cmd

import (
	"fmt"
	"strings"

	"github.com/jjtimmons/felix/config"
	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
)

// motifsCmd is for listing the motif library
var motifsCmd = &cobra.Command{
	Use:                        "motifs [keyword]",
	Short:                      "List the motifs in the motif library",
	RunE:                       runMotifs,
	Args:                       cobra.MaximumNArgs(1),
	SuggestionsMinimumDistance: 2,
	Long: `List the keys of the motif matrices loaded from the motif directory.
Keys are the matrix file's folder and the motif's name, ex: "promoters_tata".
With a keyword, only keys containing it are listed.`,
	Example: "  felix motifs tata",
}

func runMotifs(cmd *cobra.Command, args []string) error {
	conf := config.New()
	lib, err := felix.LoadMotifLibrary(conf.MotifDir, conf.Pseudocount)
	if err != nil {
		return err
	}

	keyword := ""
	if len(args) > 0 {
		keyword = strings.ToLower(args[0])
	}

	for _, key := range lib.Keys() {
		if strings.Contains(key, keyword) {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
	}
	return nil
}

// set flags
func init() {
	RootCmd.AddCommand(motifsCmd)
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jjtimmons/felix/config"
	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
)

// libraryCmd is the parent of the parts library commands
var libraryCmd = &cobra.Command{
	Use:                        "library",
	Short:                      "List or assemble parts in the parts library",
	SuggestionsMinimumDistance: 2,
	Long: `The parts library is a sqlite database of annotated parts,
filled with 'felix annotate --library'`,
}

// libraryListCmd is for listing parts, optionally of a single role
var libraryListCmd = &cobra.Command{
	Use:                        "ls [role]",
	Short:                      "List parts in the library",
	RunE:                       runLibraryList,
	Args:                       cobra.MaximumNArgs(1),
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"list", "find"},
	Example:                    "  felix library ls promoter",
}

// libraryAssembleCmd is for building a naive construct from a list of roles
var libraryAssembleCmd = &cobra.Command{
	Use:                        "assemble [roles]",
	Short:                      "Assemble a linear construct from the best part for each role",
	RunE:                       runLibraryAssemble,
	Args:                       cobra.MinimumNArgs(1),
	SuggestionsMinimumDistance: 2,
	Long: `Assemble a linear construct by picking the most confident part in the library
for each role, in order. Roles without a part are skipped. The junctions of the assembly
are checked and each gap is written with the part that would close it.`,
	Example: "  felix library assemble promoter rbs cds terminator --name pDEMO --genbank pDEMO.gb",
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	conf := config.New()
	lib, err := felix.OpenLibrary(conf.LibraryDB)
	if err != nil {
		return err
	}
	defer lib.Close()

	var parts []*felix.Part
	if len(args) > 0 {
		role, err := felix.ParseRole(args[0])
		if err != nil {
			return err
		}
		parts, err = lib.ByRole(cmd.Context(), role)
		if err != nil {
			return err
		}
	} else if parts, err = lib.Parts(cmd.Context()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "parts (%d)\troles\tconfidence\tlength\tjunctions\t\n", len(parts))
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%v\t%v\t%d\t%s..%s\t\n", p.Name, p.Roles, p.Score.Confidence, len(p.Seq()), p.LeftJunction, p.RightJunction)
	}
	return tw.Flush()
}

func runLibraryAssemble(cmd *cobra.Command, args []string) error {
	conf := config.New()
	roles := make([]felix.Role, len(args))
	for i, arg := range args {
		role, err := felix.ParseRole(arg)
		if err != nil {
			return err
		}
		roles[i] = role
	}

	lib, err := felix.OpenLibrary(conf.LibraryDB)
	if err != nil {
		return err
	}
	defer lib.Close()

	name, _ := cmd.Flags().GetString("name")
	c, missing, err := lib.Assemble(cmd.Context(), name, roles)
	if err != nil {
		return err
	}
	for _, role := range missing {
		stderr.Printf("warning: no part for role %s, skipping", role)
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "%s\trole\tstart\tend\tlength\t\n", c.Name)
	start := 1
	for _, p := range c.Parts() {
		end := start + len(p.Seq()) - 1
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t\n", p.Name, p.Primary(), start, end, len(p.Seq()))
		start = end + 1
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, g := range c.Gaps() {
		fmt.Fprintln(w, g.Patch())
	}

	if out, _ := cmd.Flags().GetString("genbank"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		return felix.WriteGenbank(f, c)
	}
	return nil
}

// set flags
func init() {
	libraryAssembleCmd.Flags().StringP("name", "n", "assembly", "name of the assembled construct")
	libraryAssembleCmd.Flags().StringP("genbank", "g", "", "GenBank file to write the assembly to")

	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryAssembleCmd)

	RootCmd.AddCommand(libraryCmd)
}

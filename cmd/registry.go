package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jjtimmons/felix/config"
	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
)

// registryCmd is the parent of the hash registry commands
var registryCmd = &cobra.Command{
	Use:                        "registry",
	Short:                      "Find or set sequences in the hash registry",
	SuggestionsMinimumDistance: 2,
	Long: `The hash registry is a TSV of known sequences and their roles.
A part whose sequence is in the registry, with the role it's been assigned,
has a physical confidence of 1.0`,
}

// registryFindCmd is for looking up a sequence's role
var registryFindCmd = &cobra.Command{
	Use:                        "find [sequence]",
	Short:                      "Find the role of a sequence in the hash registry",
	RunE:                       runRegistryFind,
	Args:                       cobra.ExactArgs(1),
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"ls", "read"},
	Example:                    "  felix registry find AGGAGGTTATGATAAGG",
}

// registrySetCmd is for adding, or updating, a sequence in the registry
var registrySetCmd = &cobra.Command{
	Use:                        "set [sequence] [role]",
	Short:                      "Add a sequence and its role to the hash registry",
	RunE:                       runRegistrySet,
	Args:                       cobra.ExactArgs(2),
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"add", "update"},
	Example:                    "  felix registry set AGGAGGTTATGATAAGG rbs",
}

func runRegistryFind(cmd *cobra.Command, args []string) error {
	conf := config.New()
	registry, err := felix.LoadHashRegistry(conf.HashRegistry)
	if err != nil {
		return err
	}

	role, ok := registry.Lookup(args[0])
	if !ok {
		return fmt.Errorf("sequence isn't in the hash registry (%d entries)", registry.Len())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", role, role.SOTerm())
	return nil
}

func runRegistrySet(cmd *cobra.Command, args []string) error {
	conf := config.New()
	role, err := felix.ParseRole(args[1])
	if err != nil {
		return err
	}

	registry, err := felix.LoadHashRegistry(conf.HashRegistry)
	if err != nil {
		return err
	}
	registry.Set(args[0], role)

	if err := os.MkdirAll(filepath.Dir(conf.HashRegistry), 0755); err != nil {
		return err
	}
	return registry.Save(conf.HashRegistry)
}

// set flags
func init() {
	registryCmd.AddCommand(registryFindCmd)
	registryCmd.AddCommand(registrySetCmd)

	RootCmd.AddCommand(registryCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jjtimmons/felix/config"
	"github.com/jjtimmons/felix/internal/felix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// annotateCmd is for inferring the roles of each part of GenBank records
var annotateCmd = &cobra.Command{
	Use:                        "annotate [files or directories]",
	Short:                      "Infer the role of each part of GenBank records",
	RunE:                       runAnnotate,
	Args:                       cobra.MinimumNArgs(1),
	SuggestionsMinimumDistance: 3,
	Long: `Parse GenBank records into parts, check the junctions between neighboring parts
and infer the role of each part.

Each feature of a record is a part. A part's role is guessed by a classifier (the rule
table, or Gemini if there's an API key in the settings) and checked against the part's sequence.
Parts whose fused confidence is too low are left as 'unknown'.

Directories are searched for .gb, .gbk, .genbank and .gbff files (optionally gzipped).
Results are written as a table to stdout or as JSON with --out.`,
	Example: `  felix annotate pUC19.gb
  felix annotate plasmids/ --out annotations.json --genbank annotated/`,
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	conf := config.New()

	files, err := felix.GenbankFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no GenBank files found in %v", args)
	}

	engine, err := felix.LoadEngine(cmd.Context(), conf, logger)
	if err != nil {
		return err
	}

	var progress io.Writer
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		progress = os.Stderr
	}

	runID := uuid.NewString()
	logger.Debug("annotating", zap.String("run", runID), zap.Int("files", len(files)))
	results, err := engine.AnnotateFiles(cmd.Context(), runID, files, progress)
	if err != nil {
		return err
	}

	outputs := make([]felix.Output, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if _, err := felix.WriteJSON(out, outputs); err != nil {
			return err
		}
	} else {
		for _, o := range outputs {
			if err := felix.WriteTable(cmd.OutOrStdout(), o); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	if dir, _ := cmd.Flags().GetString("genbank"); dir != "" {
		if err := writeGenbanks(dir, results); err != nil {
			return err
		}
	}

	if save, _ := cmd.Flags().GetBool("library"); save {
		lib, err := felix.OpenLibrary(conf.LibraryDB)
		if err != nil {
			return err
		}
		defer lib.Close()

		for _, r := range results {
			n, err := lib.Save(cmd.Context(), r.Construct)
			if err != nil {
				return err
			}
			logger.Info("saved parts", zap.String("construct", r.Construct.Name), zap.Int("parts", n))
		}
	}

	return nil
}

// writeGenbanks writes an annotated GenBank file per construct to dir
func writeGenbanks(dir string, results []felix.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, r := range results {
		f, err := os.Create(filepath.Join(dir, r.Construct.Name+".gb"))
		if err != nil {
			return err
		}
		if err := felix.WriteGenbank(f, r.Construct); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// set flags
func init() {
	annotateCmd.Flags().StringP("out", "o", "", "output JSON file name")
	annotateCmd.Flags().StringP("genbank", "g", "", "directory to write annotated GenBank files to")
	annotateCmd.Flags().BoolP("library", "l", false, "save annotated parts to the parts library")
	annotateCmd.Flags().BoolP("quiet", "q", false, "don't draw a progress bar")
	annotateCmd.Flags().IntP("workers", "w", 0, "number of parts inferred in parallel")

	viper.BindPFlag("workers", annotateCmd.Flags().Lookup("workers"))

	RootCmd.AddCommand(annotateCmd)
}

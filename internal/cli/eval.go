package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Brownie44l1/riceleaf-api/internal/app"
	"github.com/Brownie44l1/riceleaf-api/internal/evaluate"
	"github.com/spf13/cobra"
)

func newEvalCmd(rt *runtime) *cobra.Command {
	var (
		dataDir          string
		output           string
		maxMisclassified int
		noProgress       bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score the model on a labelled image directory",
		Long:  "Classifies every image under <data-dir>/<Class>/ with no leaf gate and no threshold, then prints accuracy, a confusion table and sample misclassifications.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := evaluate.Collect(dataDir)
			if err != nil {
				return err
			}

			a, err := app.New(rt.cfg, app.WithLogger(rt.logger))
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.ModelLoaded() {
				return errors.New("model is not loaded, see the log above")
			}

			var progress io.Writer
			if !noProgress {
				progress = cmd.ErrOrStderr()
			}

			report, err := evaluate.Run(cmd.Context(), a.Pipeline, samples, evaluate.Options{
				ImageSize:        a.Pipeline.ImageSize(),
				MaxMisclassified: maxMisclassified,
				Progress:         progress,
				Logger:           rt.logger,
			})
			if err != nil {
				return err
			}

			if _, err := report.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			if output == "" {
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := report.WriteTo(f); err != nil {
				return err
			}
			PrintString(cmd.OutOrStdout(), fmt.Sprintf("\nWrote %s\n", output))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dataDir, "data-dir", "data/val", "Directory with one sub-directory of images per class")
	flags.StringVarP(&output, "output", "o", "", "Also write the summary to this file (e.g. eval_summary.txt)")
	flags.IntVar(&maxMisclassified, "max-misclassified", evaluate.DefaultMaxMisclassified, "Number of misclassified samples to list")
	flags.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

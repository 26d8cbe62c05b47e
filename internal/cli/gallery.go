package cli

import (
	"fmt"
	"os"

	"github.com/Brownie44l1/riceleaf-api/internal/gallery"
	"github.com/spf13/cobra"
)

func newGalleryCmd(_ *runtime) *cobra.Command {
	var (
		summaryFile string
		output      string
		maxItems    int
	)

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Render misclassified samples from an eval summary as HTML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := os.ReadFile(summaryFile)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", summaryFile, err)
			}

			items := gallery.ParseMisclassified(string(text), maxItems)
			if len(items) == 0 {
				PrintWarning(cmd.OutOrStdout(), fmt.Sprintf("No misclassified entries found in %s\n", summaryFile))
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := gallery.Render(f, summaryFile, items); err != nil {
				return err
			}

			PrintString(cmd.OutOrStdout(), fmt.Sprintf("Wrote %s (%d samples)\n", output, len(items)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&summaryFile, "summary", "eval_summary.txt", "Eval summary to read")
	flags.StringVarP(&output, "output", "o", "misclassified_gallery.html", "HTML file to write")
	flags.IntVar(&maxItems, "max", gallery.DefaultMaxItems, "Maximum number of samples to render")

	return cmd
}

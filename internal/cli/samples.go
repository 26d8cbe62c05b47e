package cli

import (
	"fmt"
	"time"

	"github.com/Brownie44l1/riceleaf-api/internal/client"
	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/Brownie44l1/riceleaf-api/internal/samples"
	"github.com/spf13/cobra"
)

func newSamplesCmd(rt *runtime) *cobra.Command {
	var (
		dataDirs         []string
		classes          []string
		resultsFile      string
		misclassifiedDir string
		timeout          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "POST one sample image per class to a running API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			c := client.New(rt.cfg.APIBaseURL, timeout)
			PrintYellow(out, fmt.Sprintf("Using API base: %s\n", c.BaseURL()))

			summary, err := samples.Run(cmd.Context(), c, samples.Options{
				DataDirs:         dataDirs,
				Classes:          classes,
				ResultsFile:      resultsFile,
				MisclassifiedDir: misclassifiedDir,
				Logger:           rt.logger,
			})
			if err != nil {
				return err
			}

			for _, class := range summary.Missing {
				PrintWarning(out, fmt.Sprintf("[%s] no sample found, skipped\n", class))
			}
			for _, record := range summary.Records {
				switch {
				case record.Status == nil:
					PrintWarning(out, fmt.Sprintf("[%s] request failed: %v\n", record.Class, record.Response["error"]))
				default:
					fmt.Fprintf(out, "[%s] HTTP %d -> %v\n", record.Class, *record.Status, record.Response)
				}
			}
			for _, dest := range summary.Copied {
				PrintYellow(out, fmt.Sprintf("  Copied misclassified to %s\n", dest))
			}

			PrintString(out, fmt.Sprintf("Wrote %s\n", resultsFile))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("api-base-url", "", "Base URL of the API (default http://127.0.0.1:5000, or $API_BASE_URL)")
	flags.StringSliceVar(&dataDirs, "data-dirs", samples.DefaultDataDirs, "Directories searched, in order, for <dir>/<Class>/ images")
	flags.StringSliceVar(&classes, "classes", model.DefaultClasses, "Class names to sample")
	flags.StringVar(&resultsFile, "results-file", samples.DefaultResultsFile, "Where to write the collected responses")
	flags.StringVar(&misclassifiedDir, "misclassified-dir", samples.DefaultMisclassifiedDir, "Where to copy misclassified samples")
	flags.DurationVar(&timeout, "timeout", client.DefaultTimeout, "Per-request timeout")

	return cmd
}

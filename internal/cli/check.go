package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Brownie44l1/riceleaf-api/internal/client"
	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/spf13/cobra"
)

var errCheckFailed = errors.New("one or more checks failed")

func newCheckCmd(rt *runtime) *cobra.Command {
	var (
		health    bool
		skipModel bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the model, metadata and disease info load, and optionally that a server is healthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			ok := true

			metadata, err := model.LoadMetadata(rt.cfg.MetadataPath)
			ok = report(out, "metadata "+rt.cfg.MetadataPath, err) && ok
			if err == nil {
				fmt.Fprintf(out, "    classes=%v image_size=%d layout=%s\n", metadata.Classes, metadata.ImageSize, metadata.Layout)
			}

			advisory, err := model.LoadAdvisory(rt.cfg.DiseaseInfoPath)
			ok = report(out, "disease info "+rt.cfg.DiseaseInfoPath, err) && ok
			if err == nil {
				fmt.Fprintf(out, "    %d entries\n", len(advisory))
			}

			if !skipModel {
				server, err := model.NewServer(model.Options{
					ModelPath:     rt.cfg.ModelPath,
					MetadataPath:  rt.cfg.MetadataPath,
					LibraryPath:   rt.cfg.OrtLibraryPath,
					Normalization: rt.cfg.Normalization,
					Layout:        rt.cfg.Layout,
				})
				ok = report(out, "model "+rt.cfg.ModelPath, err) && ok
				if err == nil {
					server.Close()
				}
			}

			if health {
				c := client.New(rt.cfg.APIBaseURL, 5*time.Second)
				resp, err := c.Health(cmd.Context())
				if err == nil && resp.Status != http.StatusOK {
					err = fmt.Errorf("HTTP %d", resp.Status)
				}
				ok = report(out, "GET "+c.BaseURL()+"/health", err) && ok
			}

			if !ok {
				return errCheckFailed
			}
			PrintString(out, "\nAll checks passed.\n")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&health, "health", false, "Also GET /health on the API at --api-base-url")
	flags.BoolVar(&skipModel, "skip-model", false, "Do not open an ONNX session")
	flags.String("api-base-url", "", "Base URL of the API (default http://127.0.0.1:5000, or $API_BASE_URL)")

	return cmd
}

func report(out io.Writer, name string, err error) bool {
	if err != nil {
		PrintWarning(out, fmt.Sprintf("MISSING: %s: %v\n", name, err))
		return false
	}
	PrintString(out, fmt.Sprintf("OK: %s\n", name))
	return true
}

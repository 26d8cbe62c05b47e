package cli

import (
	"fmt"
	"os"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/Brownie44l1/riceleaf-api/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// runtime is shared by every subcommand of one root command. It is filled
// in by the root PersistentPreRunE.
type runtime struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	rt := &runtime{v: viper.New()}
	config.Configure(rt.v)

	serve := newServeCmd(rt)

	cmd := &cobra.Command{
		Use:   "riceleaf",
		Short: "Rice leaf disease inference API",
		Long:  "Serves a rice leaf disease classifier over HTTP and ships the tooling to evaluate it.",

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(rt.v, cmd.Flags()); err != nil {
				return err
			}

			envFile, _ := cmd.Flags().GetString("env-file")
			configFile, _ := cmd.Flags().GetString("config-file")
			if err := config.LoadEnvAndConfigFiles(rt.v, envFile, configFile); err != nil {
				return err
			}

			cfg, err := config.Load(rt.v)
			if err != nil {
				return err
			}
			rt.cfg = cfg

			log, err := logger.Init(cfg.Environment)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			rt.logger = log
			return nil
		},
		RunE: serve.RunE,
	}

	pflags := cmd.PersistentFlags()
	pflags.String("config-file", "", "Path to a YAML config file")
	pflags.String("env-file", "", "Path to the env file (default .env)")
	pflags.String("environment", "", "Environment: dev, test or prod")
	pflags.String("model-path", "", "Path to the ONNX model")
	pflags.String("metadata-path", "", "Path to the model metadata JSON")
	pflags.String("disease-info-path", "", "Path to the disease info JSON or YAML")
	pflags.String("ort-library-path", "", "Path to the onnxruntime shared library")

	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(
		serve,
		newEvalCmd(rt),
		newSamplesCmd(rt),
		newGalleryCmd(rt),
		newCheckCmd(rt),
	)
	cmd.CompletionOptions.HiddenDefaultCmd = true

	return cmd
}

// bindFlags binds every flag the user actually set, so defaults on the
// flag set never shadow env or config file values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

var flagKeys = map[string]string{
	"environment":          "environment",
	"model-path":           "model_path",
	"metadata-path":        "metadata_path",
	"disease-info-path":    "disease_info_path",
	"ort-library-path":     "ort_library_path",
	"host":                 "host",
	"port":                 "port",
	"public-dir":           "public_dir",
	"confidence-threshold": "confidence_threshold",
	"cache-size":           "cache_size",
	"archive":              "archive.enabled",
	"api-base-url":         "api_base_url",
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

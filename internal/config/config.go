package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const envPrefix = "RICELEAF"

type Config struct {
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	Environment         string        `mapstructure:"environment"`
	ModelPath           string        `mapstructure:"model_path"`
	MetadataPath        string        `mapstructure:"metadata_path"`
	DiseaseInfoPath     string        `mapstructure:"disease_info_path"`
	OrtLibraryPath      string        `mapstructure:"ort_library_path"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	ImageSize           int           `mapstructure:"image_size"`
	Normalization       string        `mapstructure:"normalization"`
	Layout              string        `mapstructure:"layout"`
	MaxUploadMB         int           `mapstructure:"max_upload_mb"`
	MaxImagePixels      int           `mapstructure:"max_image_pixels"`
	PublicDir           string        `mapstructure:"public_dir"`
	CacheSize           int           `mapstructure:"cache_size"`
	APIBaseURL          string        `mapstructure:"api_base_url"`
	Gate                GateConfig    `mapstructure:"gate"`
	Archive             ArchiveConfig `mapstructure:"archive"`
}

type GateConfig struct {
	Size          int     `mapstructure:"size"`
	GreenRatio    float64 `mapstructure:"green_ratio"`
	MinGreen      int     `mapstructure:"min_green"`
	MinProportion float64 `mapstructure:"min_proportion"`
}

type ArchiveConfig struct {
	Enabled    bool      `mapstructure:"enabled"`
	Filesystem string    `mapstructure:"filesystem_type"`
	Dir        string    `mapstructure:"dir"`
	Workers    int       `mapstructure:"workers"`
	S3         *S3Config `mapstructure:"s3"`
}

type S3Config struct {
	EndpointUrl string `mapstructure:"endpoint_url"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	Folder      string `mapstructure:"folder"`
}

// Configure installs defaults and environment bindings on v.
// Keys are read from RICELEAF_<KEY>; a few keys also honour the
// unprefixed variables the deployment scripts export.
func Configure(v *viper.Viper) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(
		`-`, `_`,
		`.`, `_`,
	))
	v.AutomaticEnv()

	v.BindEnv("confidence_threshold", "RICELEAF_CONFIDENCE_THRESHOLD", "CONFIDENCE_THRESHOLD")
	v.BindEnv("port", "RICELEAF_PORT", "PORT")
	v.BindEnv("api_base_url", "RICELEAF_API_BASE_URL", "API_BASE_URL")

	v.BindEnv("archive.s3.access_key", "RICELEAF_ARCHIVE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	v.BindEnv("archive.s3.secret_key", "RICELEAF_ARCHIVE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
}

// LoadEnvAndConfigFiles loads the .env file (if any) into the process
// environment and points v at the YAML config file (if any).
func LoadEnvAndConfigFiles(v *viper.Viper, envFile, configFile string) error {
	if envFile == "" {
		envFile = DefaultEnvFile
	}

	if _, err := os.Stat(envFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat env file: %w", err)
		}
	} else if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	if configFile == "" {
		return nil
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) || os.IsNotExist(err) {
			return fmt.Errorf("config file %s not found: %w", configFile, err)
		}
		return fmt.Errorf("error reading config: %w", err)
	}

	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be within [0, 1], got %v", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("%w: image_size must be positive, got %d", ErrInvalidConfig, c.ImageSize)
	}
	if c.Gate.Size <= 0 {
		return fmt.Errorf("%w: gate.size must be positive, got %d", ErrInvalidConfig, c.Gate.Size)
	}
	if c.Gate.MinGreen < 0 || c.Gate.MinGreen > 255 {
		return fmt.Errorf("%w: gate.min_green must be within [0, 255], got %d", ErrInvalidConfig, c.Gate.MinGreen)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: max_upload_mb must be positive, got %d", ErrInvalidConfig, c.MaxUploadMB)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("%w: max_image_pixels must be positive, got %d", ErrInvalidConfig, c.MaxImagePixels)
	}
	if err := model.CheckRecipe(c.Normalization, c.Layout); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if !c.Archive.Enabled {
		return nil
	}

	switch strings.ToLower(c.Archive.Filesystem) {
	case FilesystemLocal:
		if c.Archive.Dir == "" {
			return fmt.Errorf("%w: archive.dir is required for local archive", ErrInvalidConfig)
		}
	case FilesystemS3:
		if c.Archive.S3 == nil || c.Archive.S3.Bucket == "" {
			return fmt.Errorf("%w: archive.s3.bucket_name is required for s3 archive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: invalid archive filesystem type %q", ErrInvalidConfig, c.Archive.Filesystem)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

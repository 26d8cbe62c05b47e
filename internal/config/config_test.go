package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, DefaultConfidenceThreshold, cfg.ConfidenceThreshold)
	assert.Equal(t, 224, cfg.ImageSize)
	assert.Empty(t, cfg.Normalization)
	assert.Empty(t, cfg.Layout)
	assert.Equal(t, 1.2, cfg.Gate.GreenRatio)
	assert.Equal(t, 40, cfg.Gate.MinGreen)
	assert.Equal(t, 0.05, cfg.Gate.MinProportion)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, DefaultMaxImagePixels, cfg.MaxImagePixels)
}

func TestConfidenceThresholdFromEnv(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("PORT", "8081")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.ConfidenceThreshold)
	assert.Equal(t, 8081, cfg.Port)
}

func TestPrefixedEnvWins(t *testing.T) {
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("RICELEAF_CONFIDENCE_THRESHOLD", "0.9")
	t.Setenv("RICELEAF_GATE_MIN_GREEN", "50")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.ConfidenceThreshold)
	assert.Equal(t, 50, cfg.Gate.MinGreen)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
confidence_threshold: 0.5
archive:
  enabled: true
  filesystem_type: local
  dir: /tmp/riceleaf
`), 0o644))

	v := newViper()
	require.NoError(t, LoadEnvAndConfigFiles(v, filepath.Join(dir, "missing.env"), path))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "/tmp/riceleaf", cfg.Archive.Dir)
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RICELEAF_CACHE_SIZE=7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RICELEAF_CACHE_SIZE") })

	v := newViper()
	require.NoError(t, LoadEnvAndConfigFiles(v, envFile, ""))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.CacheSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"threshold above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"negative threshold", func(c *Config) { c.ConfidenceThreshold = -0.1 }},
		{"zero image size", func(c *Config) { c.ImageSize = 0 }},
		{"zero gate size", func(c *Config) { c.Gate.Size = 0 }},
		{"min green out of range", func(c *Config) { c.Gate.MinGreen = 300 }},
		{"unknown normalization", func(c *Config) { c.Normalization = "imagenet" }},
		{"unknown layout", func(c *Config) { c.Layout = "hwc" }},
		{"zero upload limit", func(c *Config) { c.MaxUploadMB = 0 }},
		{"zero pixel limit", func(c *Config) { c.MaxImagePixels = 0 }},
		{"s3 archive without bucket", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Filesystem = FilesystemS3
			c.Archive.S3 = &S3Config{}
		}},
		{"unknown archive filesystem", func(c *Config) {
			c.Archive.Enabled = true
			c.Archive.Filesystem = "ftp"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newViper())
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateAcceptsModelRecipes(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	for _, norm := range []string{model.NormalizeMobileNetV2, model.NormalizeUnit, model.NormalizeRaw} {
		for _, layout := range []string{model.LayoutNHWC, model.LayoutNCHW, "NCHW"} {
			cfg.Normalization, cfg.Layout = norm, layout
			assert.NoError(t, cfg.Validate(), "%s/%s", norm, layout)
		}
	}
}

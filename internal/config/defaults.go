package config

import (
	"errors"

	"github.com/spf13/viper"
)

const (
	DefaultEnvFile             = ".env"
	DefaultConfidenceThreshold = 0.6
	DefaultImageSize           = 224
	DefaultMaxImagePixels      = 50_000_000
	DefaultAPIBaseURL          = "http://127.0.0.1:5000"
)

var ErrInvalidConfig = errors.New("invalid config")

func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5000)
	v.SetDefault("environment", "dev")

	v.SetDefault("model_path", "model/rice_disease_mobilenetv2.onnx")
	v.SetDefault("metadata_path", "model/model_metadata.json")
	v.SetDefault("disease_info_path", "model/disease_info.json")
	v.SetDefault("ort_library_path", "")

	v.SetDefault("confidence_threshold", DefaultConfidenceThreshold)
	v.SetDefault("image_size", DefaultImageSize)
	// Empty normalization and layout defer to the model metadata.
	v.SetDefault("normalization", "")
	v.SetDefault("layout", "")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("max_image_pixels", DefaultMaxImagePixels)
	v.SetDefault("public_dir", "")
	v.SetDefault("cache_size", 256)
	v.SetDefault("api_base_url", DefaultAPIBaseURL)

	v.SetDefault("gate.size", DefaultImageSize)
	v.SetDefault("gate.green_ratio", 1.2)
	v.SetDefault("gate.min_green", 40)
	v.SetDefault("gate.min_proportion", 0.05)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.filesystem_type", FilesystemLocal)
	v.SetDefault("archive.dir", "data/archive")
	v.SetDefault("archive.workers", 4)
	v.SetDefault("archive.s3.endpoint_url", "")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")
	v.SetDefault("archive.s3.region_name", "auto")
	v.SetDefault("archive.s3.bucket_name", "")
	v.SetDefault("archive.s3.folder", "uploads")
}

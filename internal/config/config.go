package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string `mapstructure:"port"`
	ModelPath           string `mapstructure:"model_path"`
	MetadataPath        string `mapstructure:"metadata_path"`
	LabelsPath          string `mapstructure:"labels_path"`
	RecommendationsPath string `mapstructure:"recommendations_path"`
	ReplaceActions      bool   `mapstructure:"replace_actions"`
	OrtLibraryPath      string `mapstructure:"ort_library_path"`
	ImageSize           int    `mapstructure:"image_size"`
	MaxUploadBytes      int64  `mapstructure:"max_upload_bytes"`
	MaxImagePixels      int    `mapstructure:"max_image_pixels"`
	LogFilePath         string `mapstructure:"log_file_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("model_path", "models/waste_classifier.onnx")
	v.SetDefault("metadata_path", "models/model_metadata.json")
	v.SetDefault("labels_path", "models/labels.txt")
	v.SetDefault("recommendations_path", "")
	v.SetDefault("replace_actions", false)
	v.SetDefault("ort_library_path", "")
	v.SetDefault("image_size", 224)
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("max_image_pixels", 64<<20)
	v.SetDefault("log_file_path", "")
}

// Load reads config.yaml from the given directories (the working directory and
// ./configs when none are given). A missing file is not an error. Every key can
// be overridden through WASTESORT_<KEY>; PORT is honoured for hosting platforms.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("wastesort")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "WASTESORT_PORT", "PORT"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Port == "":
		return errors.New("port must be set")
	case c.ModelPath == "":
		return errors.New("model_path must be set")
	case c.MetadataPath == "":
		return errors.New("metadata_path must be set")
	case c.LabelsPath == "":
		return errors.New("labels_path must be set")
	case c.ImageSize <= 0:
		return fmt.Errorf("image_size must be positive, got %d", c.ImageSize)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	case c.MaxImagePixels <= 0:
		return fmt.Errorf("max_image_pixels must be positive, got %d", c.MaxImagePixels)
	}
	return nil
}

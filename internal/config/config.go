package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Storage StorageConfig
	Logger  LoggerConfig
}

type ServerConfig struct {
	Host          string
	Port          int
	MaxConcurrent int64
}

type ModelConfig struct {
	RuntimeURL     string
	RuntimeTimeout time.Duration
	CheckpointURL  string
	CacheDir       string
	CheckpointName string
	InputSize      int
	// FocalEstimateFactor is the empirical multiplier used when no focal
	// length is supplied: f_px = max(width, height) * factor. Tunable, not
	// physically derived.
	FocalEstimateFactor float64
	InferenceTimeout    time.Duration
}

type StorageConfig struct {
	Bucket        string
	Region        string
	KeyPrefix     string
	PresignExpiry time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("MAX_CONCURRENT_REQUESTS", 10)
	v.SetDefault("MODEL_RUNTIME_URL", "http://localhost:8501")
	v.SetDefault("MODEL_RUNTIME_TIMEOUT", "600s")
	v.SetDefault("MODEL_CHECKPOINT_URL", "https://ml-site.cdn-apple.com/models/sharp/sharp_2572gikvuh.pt")
	v.SetDefault("MODEL_CACHE_DIR", "/cache")
	v.SetDefault("MODEL_CHECKPOINT_NAME", "sharp_2572gikvuh.pt")
	v.SetDefault("MODEL_INPUT_SIZE", 1536)
	v.SetDefault("FOCAL_ESTIMATE_FACTOR", 1.2)
	v.SetDefault("INFERENCE_TIMEOUT", "600s")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET_NAME", "")
	v.SetDefault("S3_KEY_PREFIX", "ply-files")
	v.SetDefault("PRESIGN_EXPIRY", "1h")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:          v.GetString("SERVER_HOST"),
			Port:          v.GetInt("SERVER_PORT"),
			MaxConcurrent: v.GetInt64("MAX_CONCURRENT_REQUESTS"),
		},
		Model: ModelConfig{
			RuntimeURL:          v.GetString("MODEL_RUNTIME_URL"),
			RuntimeTimeout:      duration(v, "MODEL_RUNTIME_TIMEOUT", 600*time.Second),
			CheckpointURL:       v.GetString("MODEL_CHECKPOINT_URL"),
			CacheDir:            v.GetString("MODEL_CACHE_DIR"),
			CheckpointName:      v.GetString("MODEL_CHECKPOINT_NAME"),
			InputSize:           v.GetInt("MODEL_INPUT_SIZE"),
			FocalEstimateFactor: v.GetFloat64("FOCAL_ESTIMATE_FACTOR"),
			InferenceTimeout:    duration(v, "INFERENCE_TIMEOUT", 600*time.Second),
		},
		Storage: StorageConfig{
			Bucket:        v.GetString("S3_BUCKET_NAME"),
			Region:        v.GetString("AWS_REGION"),
			KeyPrefix:     v.GetString("S3_KEY_PREFIX"),
			PresignExpiry: duration(v, "PRESIGN_EXPIRY", time.Hour),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

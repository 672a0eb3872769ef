package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	GapOpen       float64 `validate:"gte=0"`
	GapExtend     float64 `validate:"gte=0"`
	Scorer        string  `validate:"oneof=cosine embedding blosum45 blosum62"`
	Workers       int     `validate:"min=1"`
	LogLevel      string  `validate:"oneof=debug info warn error"`
	LogFormat     string  `validate:"oneof=text json"`
	EmbeddingsDir string
}

var validate = validator.New()

// Load reads configuration from the environment, after loading a .env file
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scorer:        getEnv("VECALIGN_SCORER", "cosine"),
		LogLevel:      getEnv("VECALIGN_LOG_LEVEL", "info"),
		LogFormat:     getEnv("VECALIGN_LOG_FORMAT", "text"),
		EmbeddingsDir: getEnv("VECALIGN_EMBEDDINGS_DIR", "embeddings"),
	}

	var err error
	if cfg.GapOpen, err = getFloat("VECALIGN_GAP_OPEN", 11); err != nil {
		return nil, err
	}
	if cfg.GapExtend, err = getFloat("VECALIGN_GAP_EXTEND", 1); err != nil {
		return nil, err
	}
	if cfg.Workers, err = getInt("VECALIGN_WORKERS", runtime.NumCPU()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges; flag overrides are validated again through it.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// LoadEnv reads dotenv files, then builds a Config from the environment.
// Without paths an optional .env in the working directory is loaded.
// Variables already set in the process win over file values.
func LoadEnv(paths ...string) (Config, error) {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("cms config: load .env: %w", err)
		}
	} else if err := godotenv.Load(paths...); err != nil {
		return Config{}, fmt.Errorf("cms config: load %v: %w", paths, err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("cms config: read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage describes every supported variable.
func Usage() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}

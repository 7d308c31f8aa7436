package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Configuration for the schemadesk binaries, loaded from the environment.
// DatabaseDSN is optional: when empty the engine runs in local-only mode.
type Configuration struct {
	DocumentPath string `validate:"required"`
	HistoryPath  string `validate:"required"`
	DatabaseDSN  string `validate:"omitempty,uri"`
	ListenAddr   string `validate:"required,hostname_port"`
}

// LoadEnvConfig reads configName as a dotenv file when present, then the
// process environment, and validates the result.
func LoadEnvConfig(configName string) (Configuration, error) {
	if _, err := os.Stat(configName); err == nil {
		if err := godotenv.Load(configName); err != nil {
			return Configuration{}, fmt.Errorf("load %s: %w", configName, err)
		}
	}

	cfg := Configuration{
		DocumentPath: os.Getenv("SCHEMADESK_DOCUMENT"),
		HistoryPath:  os.Getenv("SCHEMADESK_HISTORY"),
		DatabaseDSN:  os.Getenv("SCHEMADESK_DATABASE_URL"),
		ListenAddr:   os.Getenv("SCHEMADESK_LISTEN_ADDR"),
	}
	if cfg.DocumentPath == "" {
		cfg.DocumentPath = "schemadesk.json"
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = "schemadesk-history.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Configuration{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

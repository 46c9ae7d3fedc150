package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/jkoestner/folioflex/internal/apperrors"
	"github.com/jkoestner/folioflex/internal/portfolio"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Portfolios PortfoliosConfig
	Auth       AuthConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// PortfoliosConfig holds the portfolio definitions and refresh schedule
type PortfoliosConfig struct {
	// Path is the JSON file describing the portfolios to analyze
	Path string
	// RefreshSchedule is a cron expression for rebuilding portfolios
	RefreshSchedule string
	Entries         []PortfolioEntry
}

// AuthConfig holds API authentication configuration
type AuthConfig struct {
	// FernetKey encrypts the stored API key at rest
	FernetKey string
}

// PortfolioEntry is one portfolio definition from the config file: the engine
// configuration plus where to read its data.
type PortfolioEntry struct {
	portfolio.Config
	// TxFile is the transaction ledger csv, relative to the config file
	TxFile string `json:"txFile"`
	// HistoryOffline is an optional price history csv used instead of the
	// live feed
	HistoryOffline string `json:"historyOffline,omitempty"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/folioflex.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(
				getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		Portfolios: PortfoliosConfig{
			Path:            getEnv("PORTFOLIOS_PATH", "./config/portfolios.json"),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 18 * * MON-FRI"),
		},
		Auth: AuthConfig{
			FernetKey: getEnv("FERNET_KEY", ""),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	entries, err := loadPortfolios(config.Portfolios.Path)
	if err != nil {
		return nil, err
	}
	config.Portfolios.Entries = entries

	return config, nil
}

// loadPortfolios reads the portfolio definitions file. Relative file
// references inside the config resolve against the config's own directory.
func loadPortfolios(path string) ([]PortfolioEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading portfolios file %q: %v", apperrors.ErrMissingConfig, path, err)
	}
	var file struct {
		Portfolios []PortfolioEntry `json:"portfolios"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing portfolios file %q: %v", apperrors.ErrMissingConfig, path, err)
	}
	if len(file.Portfolios) == 0 {
		return nil, fmt.Errorf("%w: portfolios file %q defines no portfolios", apperrors.ErrMissingConfig, path)
	}

	base := filepath.Dir(path)
	for i := range file.Portfolios {
		entry := &file.Portfolios[i]
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: portfolio %d in %q has no name", apperrors.ErrMissingConfig, i, path)
		}
		if entry.TxFile == "" {
			return nil, fmt.Errorf("%w: portfolio %q has no txFile", apperrors.ErrMissingConfig, entry.Name)
		}
		if !filepath.IsAbs(entry.TxFile) {
			entry.TxFile = filepath.Join(base, entry.TxFile)
		}
		if entry.HistoryOffline != "" && !filepath.IsAbs(entry.HistoryOffline) {
			entry.HistoryOffline = filepath.Join(base, entry.HistoryOffline)
		}
	}
	return file.Portfolios, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

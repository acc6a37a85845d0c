// Package config loads runtime configuration once, in main, and hands
// plain values to each component at construction. Components never read
// the environment themselves.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Database struct {
	Type           string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SQLitePath     string
	MigrationsPath string
}

type Config struct {
	Port          string
	UploadDir     string
	PreviewDir    string
	MaxUploadSize int64

	SampleCount int
	FocusStart  float64

	// APIToken guards the HTTP boundary; empty disables the check for
	// local development.
	APIToken string

	// DemoTamperMarker, when non-empty, forces a Tampered verdict for
	// filenames containing the marker. Demo/test wiring only.
	DemoTamperMarker string

	Database Database
}

// Load reads config.yaml from the working directory when present, then
// environment variables prefixed DASHFORENSICS_.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("preview_dir", "./previews")
	v.SetDefault("max_upload_size", int64(500*1024*1024))
	v.SetDefault("sample_count", 5)
	v.SetDefault("focus_start", 0.70)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dashforensics")
	v.SetDefault("database.name", "dashforensics")
	v.SetDefault("database.sqlite_path", "./dashforensics.db")
	v.SetDefault("database.migrations_path", "./migrations")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DASHFORENSICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("port"),
		UploadDir:        v.GetString("upload_dir"),
		PreviewDir:       v.GetString("preview_dir"),
		MaxUploadSize:    v.GetInt64("max_upload_size"),
		SampleCount:      v.GetInt("sample_count"),
		FocusStart:       v.GetFloat64("focus_start"),
		APIToken:         v.GetString("api_token"),
		DemoTamperMarker: v.GetString("demo_tamper_marker"),
		Database: Database{
			Type:           v.GetString("database.type"),
			Host:           v.GetString("database.host"),
			Port:           v.GetInt("database.port"),
			User:           v.GetString("database.user"),
			Password:       v.GetString("database.password"),
			Name:           v.GetString("database.name"),
			SQLitePath:     v.GetString("database.sqlite_path"),
			MigrationsPath: v.GetString("database.migrations_path"),
		},
	}

	if cfg.Database.Type != "sqlite" && cfg.Database.Type != "postgres" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	return cfg, nil
}

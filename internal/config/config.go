// Package config содержит логику чтения конфигурации майнинг-приложения.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации майнинг-приложения.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	StoragePath    string `env:"STORAGE_PATH"`
	AdsgramAddress string `env:"ADSGRAM_ADDRESS"`
	SettingsFile   string `env:"SETTINGS_FILE"`
	DisplayName    string `env:"DISPLAY_NAME"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envStoragePath := cfg.StoragePath
	envAdsgramAddress := cfg.AdsgramAddress
	envSettingsFile := cfg.SettingsFile
	envDisplayName := cfg.DisplayName

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.StoragePath, "f", "miner.db", "path to the state database file")
	flag.StringVar(&cfg.AdsgramAddress, "r", "", "adsgram verification service address")
	flag.StringVar(&cfg.SettingsFile, "c", "", "path to the bootstrap settings file")
	flag.StringVar(&cfg.DisplayName, "n", "", "display name shown in the interface")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envStoragePath != "" {
		cfg.StoragePath = envStoragePath
	}
	if envAdsgramAddress != "" {
		cfg.AdsgramAddress = envAdsgramAddress
	}
	if envSettingsFile != "" {
		cfg.SettingsFile = envSettingsFile
	}
	if envDisplayName != "" {
		cfg.DisplayName = envDisplayName
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = "miner.db"
	}

	return cfg, nil
}

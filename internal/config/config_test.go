package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		runAddress     string
		storagePath    string
		adsgramAddress string
		settingsFile   string
		displayName    string
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				runAddress:  "localhost:8080",
				storagePath: "miner.db",
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"RUN_ADDRESS":     "localhost:9999",
				"STORAGE_PATH":    "/tmp/env.db",
				"ADSGRAM_ADDRESS": "localhost:8081",
				"SETTINGS_FILE":   "/etc/miner/settings.toml",
				"DISPLAY_NAME":    "env-miner",
			},
			flags: []string{},
			want: want{
				runAddress:     "localhost:9999",
				storagePath:    "/tmp/env.db",
				adsgramAddress: "localhost:8081",
				settingsFile:   "/etc/miner/settings.toml",
				displayName:    "env-miner",
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "localhost:7777",
				"-f", "/tmp/flag.db",
				"-r", "adsgram:8080",
				"-c", "settings.toml",
				"-n", "flag-miner",
			},
			want: want{
				runAddress:     "localhost:7777",
				storagePath:    "/tmp/flag.db",
				adsgramAddress: "adsgram:8080",
				settingsFile:   "settings.toml",
				displayName:    "flag-miner",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS":     "env:9000",
				"STORAGE_PATH":    "/tmp/env.db",
				"ADSGRAM_ADDRESS": "env-adsgram:8081",
			},
			flags: []string{
				"-a", "flag:8000",
				"-f", "/tmp/flag.db",
				"-r", "flag-adsgram:8080",
			},
			want: want{
				runAddress:     "env:9000",
				storagePath:    "/tmp/env.db",
				adsgramAddress: "env-adsgram:8081",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			require.NoError(t, err)

			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.storagePath, cfg.StoragePath)
			assert.Equal(t, tt.want.adsgramAddress, cfg.AdsgramAddress)
			assert.Equal(t, tt.want.settingsFile, cfg.SettingsFile)
			assert.Equal(t, tt.want.displayName, cfg.DisplayName)
		})
	}
}

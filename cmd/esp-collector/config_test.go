package main

import (
	"context"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"READINGS_LIMIT", "SAMPLE_RATE", "SERVER_ALLOWED_ORIGINS", "EXPORT_RETRIES"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.ReadingsLimit != 100 {
		t.Errorf("Expected ReadingsLimit=100, got %d", cfg.ReadingsLimit)
	}
	if cfg.SampleRate != 10*time.Second {
		t.Errorf("Expected SampleRate=10s, got %s", cfg.SampleRate)
	}
	if cfg.ExportRetries != 3 {
		t.Errorf("Expected ExportRetries=3, got %d", cfg.ExportRetries)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Expected default origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("READINGS_LIMIT", "250")
	t.Setenv("SAMPLE_RATE", "30")
	t.Setenv("ESP_URL", "http://10.0.0.7/")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATA_DIR", "/var/lib/esp")
	t.Setenv("SERVER_ALLOWED_ORIGINS", " https://a.example , https://b.example,")
	t.Setenv("SPREADSHEET_RANGE", "Log!A:E")

	cfg := LoadConfig()

	if cfg.ReadingsLimit != 250 {
		t.Errorf("Expected ReadingsLimit=250, got %d", cfg.ReadingsLimit)
	}
	if cfg.SampleRate != 30*time.Second {
		t.Errorf("Expected SampleRate=30s, got %s", cfg.SampleRate)
	}
	if cfg.ESPURL != "http://10.0.0.7/" {
		t.Errorf("Expected ESP_URL, got %s", cfg.ESPURL)
	}
	if cfg.StoreDriver != "postgres" {
		t.Errorf("Expected StoreDriver=postgres, got %s", cfg.StoreDriver)
	}
	if cfg.StorePath() != "/var/lib/esp/db.json" {
		t.Errorf("Expected /var/lib/esp/db.json, got %s", cfg.StorePath())
	}
	if cfg.CSVDir() != "/var/lib/esp/csv" {
		t.Errorf("Expected /var/lib/esp/csv, got %s", cfg.CSVDir())
	}
	if cfg.ServerURL() != "http://localhost:8080" {
		t.Errorf("Expected http://localhost:8080, got %s", cfg.ServerURL())
	}
	if cfg.SpreadsheetRange != "Log!A:E" {
		t.Errorf("Expected Log!A:E, got %s", cfg.SpreadsheetRange)
	}

	if !cfg.AllowOrigin("https://b.example") {
		t.Error("Expected https://b.example to be allowed")
	}
	if cfg.AllowOrigin("https://evil.example") {
		t.Error("Expected https://evil.example to be rejected")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("Expected 2 origins, got %v", cfg.AllowedOrigins)
	}
}

func TestGetEnvInt(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected int
	}{
		{"Number", "42", 42},
		{"Padded", " 7 ", 7},
		{"Suffix", "60s", 5},
		{"Text", "abc", 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_INT", tc.value)
			if got := getEnvInt("TEST_ENV_INT", 5); got != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{ReadingsLimit: 100, SampleRate: 10 * time.Second, StoreDriver: "file"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	cfg.StoreDriver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown store driver")
	}

	cfg.StoreDriver = "file"
	cfg.SampleRate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for zero sample rate")
	}

	cfg.SampleRate = time.Second
	cfg.ReadingsLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for negative limit")
	}
}

func TestConfigFromContext(t *testing.T) {
	cfg := &Config{ServerPort: "9999"}
	ctx := context.WithValue(context.Background(), configKey{}, cfg)

	if got := configFromContext(ctx); got != cfg {
		t.Error("Expected config from context")
	}
}

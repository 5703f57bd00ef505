package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gtfisher/esp-collector/pkg/database"
	"github.com/gtfisher/esp-collector/pkg/export"
	"github.com/gtfisher/esp-collector/pkg/puller/esp"
)

// Config holds every setting read from the environment
type Config struct {
	ReadingsLimit int
	SampleRate    time.Duration
	ESPURL        string

	ServerPort     string
	AllowedOrigins []string

	StoreDriver string
	DataDir     string
	DB          database.DBConfig

	MQTTBroker string
	MQTTTopic  string

	Influx export.InfluxConfig

	ServiceAccountFile string
	SpreadsheetID      string
	SpreadsheetRange   string

	ExportRetries    int
	ConnectivityHost string
}

type configKey struct{}

// LoadConfig reads the configuration from the environment
func LoadConfig() *Config {
	return &Config{
		ReadingsLimit: getEnvInt("READINGS_LIMIT", database.DefaultRetentionLimit),
		SampleRate:    time.Duration(getEnvInt("SAMPLE_RATE", 10)) * time.Second,
		ESPURL:        getEnv("ESP_URL", esp.DefaultURL),

		ServerPort:     getEnv("SERVER_PORT", "3000"),
		AllowedOrigins: parseOrigins(getEnv("SERVER_ALLOWED_ORIGINS", "")),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "file")),
		DataDir:     getEnv("DATA_DIR", "data"),
		DB: database.DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "esp_user"),
			Password: getEnv("DB_PASSWORD", "esp_pass"),
			Name:     getEnv("DB_NAME", "esp_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		MQTTBroker: getEnv("MQTT_BROKER", ""),
		MQTTTopic:  getEnv("MQTT_TOPIC", "esp-collector/readings"),

		Influx: export.InfluxConfig{
			URL:    getEnv("INFLUX_URL", ""),
			Token:  getEnv("INFLUX_TOKEN", ""),
			Org:    getEnv("INFLUX_ORG", ""),
			Bucket: getEnv("INFLUX_BUCKET", ""),
			Sensor: getEnv("INFLUX_SENSOR", "esp"),
		},

		ServiceAccountFile: getEnv("SERVICE_ACCOUNT_ACCOUNT_FILE", ""),
		SpreadsheetID:      getEnv("SPREADSHEET_ID", ""),
		SpreadsheetRange:   getEnv("SPREADSHEET_RANGE", export.DefaultSheetsRange),

		ExportRetries:    getEnvInt("EXPORT_RETRIES", 3),
		ConnectivityHost: getEnv("CONNECTIVITY_HOST", export.DefaultConnectivityHost),
	}
}

// StorePath is the JSON document used by the file store
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "db.json")
}

// CSVDir holds the daily CSV logs
func (c *Config) CSVDir() string {
	return filepath.Join(c.DataDir, "csv")
}

// ServerURL is the local address of the HTTP API
func (c *Config) ServerURL() string {
	return "http://localhost:" + c.ServerPort
}

// AllowOrigin reports whether a browser origin may call the API
func (c *Config) AllowOrigin(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.ReadingsLimit <= 0 {
		return fmt.Errorf("READINGS_LIMIT must be positive, got %d", c.ReadingsLimit)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %s", c.SampleRate)
	}
	switch c.StoreDriver {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want file or postgres)", c.StoreDriver)
	}
	return nil
}

func configFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return LoadConfig()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

// parseOrigins splits a comma-separated origin list, falling back to the local dev servers
func parseOrigins(value string) []string {
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}
	}
	return origins
}

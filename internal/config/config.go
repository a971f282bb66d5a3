// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port string

	// Messaging gateway (WhatsApp Business / Graph API).
	WhatsAppToken   string
	PhoneNumberID   string
	VerifyToken     string
	GraphAPIVersion string

	// External collaborators.
	DiagnosticURL string
	DirectoryURL  string
	RecordsURL    string
	RecordsToken  string

	// Phone canonicalization.
	CountryCode string

	// Optional YAML override for questions and message texts.
	CatalogPath string

	// Outbound HTTP timeout tiers.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		WhatsAppToken:   getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:   getEnv("PHONE_NUMBER_ID", ""),
		VerifyToken:     getEnv("VERIFY_TOKEN", ""),
		GraphAPIVersion: getEnv("GRAPH_API_VERSION", "v20.0"),
		DiagnosticURL:   getEnv("DIAGNOSTIC_API_URL", ""),
		DirectoryURL:    getEnv("DIRECTORY_API_URL", ""),
		RecordsURL:      getEnv("RECORDS_API_URL", ""),
		RecordsToken:    getEnv("RECORDS_API_TOKEN", ""),
		CountryCode:     getEnv("COUNTRY_CODE", "57"),
		CatalogPath:     getEnv("CATALOG_PATH", ""),
		ConnectTimeout:  getEnvDuration("HTTP_CONNECT_TIMEOUT", 10*time.Second),
		ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 60*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"WHATSAPP_TOKEN", c.WhatsAppToken},
		{"PHONE_NUMBER_ID", c.PhoneNumberID},
		{"VERIFY_TOKEN", c.VerifyToken},
		{"DIAGNOSTIC_API_URL", c.DiagnosticURL},
		{"DIRECTORY_API_URL", c.DirectoryURL},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.CountryCode == "" {
		return fmt.Errorf("COUNTRY_CODE cannot be empty")
	}
	if c.ConnectTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	return nil
}

// GraphURL is the Graph API endpoint for outbound messages.
func (c *Config) GraphURL() string {
	return fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", c.GraphAPIVersion, c.PhoneNumberID)
}

// MediaURL is the Graph API endpoint for media uploads.
func (c *Config) MediaURL() string {
	return fmt.Sprintf("https://graph.facebook.com/%s/%s/media", c.GraphAPIVersion, c.PhoneNumberID)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file, a .env file and
// environment variables, in increasing order of precedence.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// LogLevel is the minimum zap level that gets written.
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey are the server certificate and key files.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// TLSCA is the CA bundle client certificates are verified against.
	TLSCA string `json:"tls_ca"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Parse reads args as command-line flags, then applies the JSON config file,
// a .env file in the working directory and finally environment variables.
func Parse(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("contactkeeper", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8443", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TLSCert, "cert", "certs/server.crt", "server TLS certificate")
	fs.StringVar(&options.TLSKey, "key", "certs/server.key", "server TLS key")
	fs.StringVar(&options.TLSCA, "ca", "certs/ca.crt", "CA for client certificates")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if configPath := getEnv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	overrides := map[string]*string{
		"SERVER_ADDRESS": &options.Port,
		"DATABASE_DSN":   &options.DatabaseDSN,
		"LOG_LEVEL":      &options.LogLevel,
		"TLS_CERT":       &options.TLSCert,
		"TLS_KEY":        &options.TLSKey,
		"TLS_CA":         &options.TLSCA,
	}
	for key, dst := range overrides {
		if v := getEnv(key); v != "" {
			*dst = v
		}
	}

	if options.DatabaseDSN == "" {
		return nil, fmt.Errorf("database DSN is required (-d or DATABASE_DSN)")
	}
	return options, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

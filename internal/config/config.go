// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
)

// Config holds the core runtime configuration.  Each field corresponds to
// an environment variable; required ones are enforced by must() and abort
// startup when missing.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	SimulatorURL string // base URL of the garage simulator, empty disables startup sync
}

// Load reads configuration from the environment.  Required variables cause
// a fatal log message when unset.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		SimulatorURL: os.Getenv("GARAGE_SIMULATOR_URL"),
	}
}

// must retrieves a required environment variable or exits with a fatal log.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

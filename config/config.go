package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresURL    string
	AllowedOrigins []string
	ListenAddr     string
	GinMode        string
	Debug          bool
}

// FromEnv loads .env (if present) and reads the process environment.
func FromEnv() Config {
	godotenv.Load()

	cfg := Config{
		PostgresURL: os.Getenv("POSTGRES_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		GinMode:     os.Getenv("GIN_MODE"),
		Debug:       os.Getenv("DEBUG") == "true",
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	return cfg
}

package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docversions/internal/logfields"
)

// envFiles are tried in order; the first one that loads wins.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads environment variables from .env/.env.local files.
// Existing process environment variables are not overwritten.
func loadEnvFile() error {
	for _, envPath := range envFiles {
		if err := godotenv.Load(envPath); err == nil {
			slog.Debug("Loaded environment variables", logfields.File(envPath))
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}

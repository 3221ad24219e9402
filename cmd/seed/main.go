// Command seed creates the default admin, manager and member accounts in the
// configured database and exits. Existing accounts are left untouched.
package main

import (
	"log"

	"github.com/aussiebroadwan/rodneyauth/internal/auth/app"
)

func main() {
	if err := app.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg := app.LoadConfig()
	cfg.SeedOnStart = true

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	if err := application.Close(); err != nil {
		log.Fatalf("failed to close database: %v", err)
	}
}

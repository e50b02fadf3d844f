// Command auth runs the doorman authentication service: account signup and
// login, email verification, password reset, and WebAuthn/TOTP second
// factors behind a single HTTP API.
package main

import (
	"log"

	"github.com/tanglebay/doorman/internal/auth/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

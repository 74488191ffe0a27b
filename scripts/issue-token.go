package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/service"
)

// Mints a service token for the synchronous enrich endpoint, signed with
// the same JWT_SECRET the running service validates against.
//
// Usage:
//
//	JWT_SECRET=... go run scripts/issue-token.go --caller=stats-frontend --hours=168

func main() {
	caller := flag.String("caller", "ops", "Service identity to embed in the token")
	hours := flag.Int("hours", 24, "Token lifetime in hours")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	cfg := &config.Config{
		JWTSecret:          secret,
		JWTExpirationHours: *hours,
	}
	tokens := service.NewTokenService(cfg)

	token, err := tokens.GenerateServiceToken(*caller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate token: %v\n", err)
		os.Exit(1)
	}

	// Round-trip through validation to catch secret or claim mistakes now
	// rather than on the first API call.
	validated, err := tokens.ValidateToken(token)
	if err != nil || validated != *caller {
		fmt.Fprintf(os.Stderr, "Minted token failed validation: %v\n", err)
		os.Exit(1)
	}

	expiresAt := time.Now().Add(time.Duration(*hours) * time.Hour)

	fmt.Println("Service token minted")
	fmt.Printf("  Caller:  %s\n", *caller)
	fmt.Printf("  Expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println()
	fmt.Printf("export SERVICE_TOKEN=%s\n", token)

	output := map[string]interface{}{
		"caller":    *caller,
		"token":     token,
		"expiresAt": expiresAt.Format(time.RFC3339),
	}
	jsonOutput, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println()
	fmt.Println(string(jsonOutput))
}

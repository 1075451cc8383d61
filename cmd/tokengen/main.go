// Package main provides a CLI tool for minting and inspecting cashwallet access tokens.
// Minted tokens use the dev signing key and reference a session that does not
// exist, so the API rejects them; they are for exercising token parsing and the
// auth middleware in isolation.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "cashwallet/internal/jwt_token"
	id "cashwallet/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "cashwallet"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Claims    map[string]any `json:"claims"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)

	accessAccountID := accessCmd.String("account-id", "", "Account ID (UUID). Generated if empty.")
	accessSessionID := accessCmd.String("session-id", "", "Session ID (UUID). Generated if empty.")
	accessKey := accessCmd.String("key", devSigningKey, "HS256 signing key")
	accessIssuer := accessCmd.String("issuer", defaultIssuer, "Token issuer")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	inspectKey := inspectCmd.String("key", devSigningKey, "HS256 signing key")
	inspectIssuer := inspectCmd.String("issuer", defaultIssuer, "Token issuer")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		_ = accessCmd.Parse(os.Args[2:])
		generateAccessToken(*accessAccountID, *accessSessionID, *accessKey, *accessIssuer, *accessTTL, *accessJSON)
	case "inspect":
		_ = inspectCmd.Parse(os.Args[2:])
		if inspectCmd.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "inspect expects exactly one token")
			os.Exit(1)
		}
		inspectToken(inspectCmd.Arg(0), *inspectKey, *inspectIssuer)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Mint and inspect cashwallet access tokens

Usage:
  tokengen <command> [flags]

Commands:
  access    Sign an access token for an account and session
  inspect   Validate a token and print its claims

Examples:
  tokengen access -ttl 1h -json
  tokengen inspect -key "$JWT_SIGNING_KEY" eyJhbGciOi...

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(accountID, sessionID, key, issuer string, ttl time.Duration, jsonOutput bool) {
	aid := id.NewAccountID()
	if accountID != "" {
		parsed, err := id.ParseAccountID(accountID)
		exitOnError("account-id", err)
		aid = parsed
	}
	sid := id.NewSessionID()
	if sessionID != "" {
		parsed, err := id.ParseSessionID(sessionID)
		exitOnError("session-id", err)
		sid = parsed
	}

	svc := jwttoken.NewJWTService(key, issuer, ttl)
	token, expiresAt, err := svc.GenerateAccessToken(context.Background(), aid, sid)
	exitOnError("generate token", err)

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresAt: expiresAt,
			Claims: map[string]any{
				"account_id": aid.String(),
				"session_id": sid.String(),
				"iss":        issuer,
			},
		})
		return
	}
	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Account ID:  %s\n", aid)
	fmt.Printf("Session ID:  %s\n", sid)
	fmt.Printf("Expires At:  %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
}

func inspectToken(token, key, issuer string) {
	svc := jwttoken.NewJWTService(key, issuer, defaultTokenTTL)
	claims, err := svc.ValidateToken(token)
	exitOnError("validate token", err)
	printJSON(claims)
}

func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", what, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

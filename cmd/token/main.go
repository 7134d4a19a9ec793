// Command token mints admin API tokens and generates credential keys.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/crypto"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issue":
		if err := issue(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "issue: %v\n", err)
			os.Exit(1)
		}
	case "gen-key":
		key, err := crypto.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "gen-key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
	default:
		printUsage()
		os.Exit(1)
	}
}

func issue(args []string) error {
	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	subject := fs.String("subject", "cli", "Token subject")
	merchant := fs.String("merchant", "", "Merchant the token acts for")
	scopes := fs.String("scopes", "connections,sync", "Comma separated scopes (connections, sync, operator)")
	ttl := fs.Duration("ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		return err
	}

	token, err := tokens.Issue(auth.IssueInput{
		Subject:    *subject,
		MerchantID: *merchant,
		Scopes:     parseScopes(*scopes),
		TTL:        *ttl,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*auth.IssuedToken
		ExpiresIn string `json:"expires_in"`
	}{token, time.Until(token.ExpiresAt).Round(time.Second).String()})
}

func parseScopes(raw string) []auth.Scope {
	var out []auth.Scope
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, auth.Scope(s))
		}
	}
	return out
}

func printUsage() {
	fmt.Println(`Usage:
  token issue [-subject name] [-merchant id] [-scopes connections,sync] [-ttl 1h]
  token gen-key

issue prints a signed admin API token using jwt.secret from the configuration.
gen-key prints a random security.credential_key.`)
}

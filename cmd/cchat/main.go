package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/codecommunity/cchat/internal/app"
	"github.com/codecommunity/cchat/internal/config"
	"github.com/codecommunity/cchat/internal/session"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	// A local .env may carry CCHAT_TOKEN / CCHAT_API_URL during development.
	_ = godotenv.Load()

	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	tokenFlag := flag.String("token", "", "bearer token (overrides profile token file)")
	flag.Parse()

	profile := resolveProfile(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fx.New(
		app.Module(app.Params{Profile: profile, Token: *tokenFlag}),
		fx.NopLogger, // fx's own chatter would fight the TUI for the terminal
	).Run()
}

// resolveProfile determines the active profile using precedence:
// --profile flag, then config/env default, then "default".
func resolveProfile(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(session.ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return session.DefaultProfileName
}

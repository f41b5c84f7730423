// Package main provides the match_agent CLI: the skill matching HTTP API plus
// commands to run matches and agent turns from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jonathan/skill-matcher/internal/config"
)

const app = "match_agent"

var (
	// Used for flags.
	cfgFile string

	// v carries environment bindings and bound flags for config.Load.
	v = config.New()

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "Skill matching and introduction drafting agent",
		Long:         "match_agent finds collaborators whose skills overlap a request, ranks them by cosine similarity and drafts introductions to approved matches.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	mustBind("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	mustBind("log.json", rootCmd.PersistentFlags().Lookup("json"))
}

// mustBind binds a flag to a config key.
func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s: %v", flag.Name, err))
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/skill-matcher/internal/observability"
	"github.com/jonathan/skill-matcher/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank candidates for a list of skills",
	Long:  "Runs the matching tool once and prints the ranked candidates as JSON, or as a summary box with --verbose.",
	RunE:  runMatch,
}

var (
	matchSkills       []string
	matchLimit        int
	matchExclude      string
	matchAvailability string
	matchEmbeddings   bool
	matchVerbose      bool
)

func init() {
	matchCmd.Flags().StringSliceVarP(&matchSkills, "skills", "s", nil, "Skills to match, comma separated (required)")
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "l", 0, "Maximum number of matches (1-10, default 5)")
	matchCmd.Flags().StringVar(&matchExclude, "exclude", "", "User ID to leave out of the results")
	matchCmd.Flags().StringVar(&matchAvailability, "availability", "", "Only match users with this availability (available, busy, part-time)")
	matchCmd.Flags().BoolVar(&matchEmbeddings, "embeddings", false, "Rank with text embeddings when a provider is configured")
	matchCmd.Flags().BoolVarP(&matchVerbose, "verbose", "v", false, "Print a human-readable summary instead of JSON")

	if err := matchCmd.MarkFlagRequired("skills"); err != nil {
		panic(fmt.Sprintf("failed to mark skills flag as required: %v", err))
	}

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	exclude, err := parseOptionalUUID("exclude", matchExclude)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := contextOrBackground(cmd)
	a, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.toolset.Match.Run(ctx, types.MatchInput{
		Skills:             matchSkills,
		Limit:              matchLimit,
		ExcludeUserID:      exclude,
		AvailabilityFilter: types.Availability(matchAvailability),
		UseEmbeddings:      matchEmbeddings,
	})
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if matchVerbose {
		observability.NewPrinter(cmd.OutOrStdout()).PrintMatches(out)
		return nil
	}
	return writeJSON(cmd, out)
}

// writeJSON prints v as indented JSON to the command output.
func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

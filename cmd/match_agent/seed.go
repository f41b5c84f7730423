package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/db"
	"github.com/jonathan/skill-matcher/internal/directory"
	"github.com/jonathan/skill-matcher/internal/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a directory file into PostgreSQL",
	Long:  "Upserts every user of a directory JSON file into the database (keyed by email) and creates its projects.",
	RunE:  runSeed,
}

var seedFrom string

func init() {
	seedCmd.Flags().StringVarP(&seedFrom, "from", "f", "", "Path to the directory JSON file (required)")
	if err := seedCmd.MarkFlagRequired("from"); err != nil {
		panic(fmt.Sprintf("failed to mark from flag as required: %v", err))
	}

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database-url' is required for seed")
	}
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	dir, err := directory.Load(seedFrom)
	if err != nil {
		return err
	}

	ctx := contextOrBackground(cmd)
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	users, projects := 0, 0
	for _, u := range dir.Users() {
		if u.Email == "" {
			log.Warn("skipping user without email", zap.String("name", u.Name))
			continue
		}
		id, err := database.UpsertUser(ctx, db.UserInput{
			Name:         u.Name,
			Email:        u.Email,
			Bio:          u.Bio,
			Skills:       u.Skills,
			Availability: u.Availability,
		})
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		users++
		log.Debug("seeded user", zap.String("email", u.Email), zap.String("id", id.String()))
	}

	for _, p := range dir.Projects() {
		id, err := database.CreateProject(ctx, db.ProjectInput{Title: p.Title, Description: p.Description})
		if err != nil {
			return fmt.Errorf("failed to seed project %q: %w", p.Title, err)
		}
		projects++
		log.Debug("seeded project", zap.String("title", p.Title), zap.String("id", id.String()))
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users and %d projects from %s\n", users, projects, seedFrom)
	return err
}

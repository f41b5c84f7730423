package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/skill-matcher/internal/types"
)

// FindProject retrieves a project by ID, or nil when there is none
func (db *DB) FindProject(ctx context.Context, id uuid.UUID) (*types.ProjectSummary, error) {
	var p types.ProjectSummary
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, COALESCE(description, '') FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// CreateProject inserts a project and returns its ID
func (db *DB) CreateProject(ctx context.Context, in ProjectInput) (uuid.UUID, error) {
	if strings.TrimSpace(in.Title) == "" {
		return uuid.Nil, fmt.Errorf("project title is required")
	}

	var description *string
	if in.Description != "" {
		description = &in.Description
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO projects (owner_id, title, description)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		in.OwnerID, in.Title, description,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create project: %w", err)
	}
	return id, nil
}

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/skill-matcher/internal/skills"
	"github.com/jonathan/skill-matcher/internal/types"
)

const userColumns = `id, name, email, COALESCE(bio, ''), skills, availability, created_at, updated_at`

// normalizedSkill is skills.Normalize expressed in SQL.
const normalizedSkill = `btrim(regexp_replace(regexp_replace(lower(s.skill), '[^a-z0-9[:space:]]', '', 'g'), '[[:space:]]+', ' ', 'g'))`

// FindCandidates returns users holding at least one of filter.Skills, compared
// by normalized form. Rows come back ordered by name, then id.
func (db *DB) FindCandidates(ctx context.Context, filter types.CandidateFilter) ([]types.CandidateProfile, error) {
	wanted := make([]string, 0, len(filter.Skills))
	for _, s := range filter.Skills {
		if s = skills.Normalize(s); s != "" {
			wanted = append(wanted, s)
		}
	}
	if len(wanted) == 0 {
		return []types.CandidateProfile{}, nil
	}

	query := `SELECT ` + userColumns + `
		FROM users u
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(u.skills) AS s(skill)
			WHERE ` + normalizedSkill + ` = ANY($1)
		)`
	args := []any{wanted}
	argNum := 2

	if filter.Availability != "" {
		query += fmt.Sprintf(" AND u.availability = $%d", argNum)
		args = append(args, string(filter.Availability))
		argNum++
	}
	if filter.ExcludeUserID != nil {
		query += fmt.Sprintf(" AND u.id <> $%d", argNum)
		args = append(args, *filter.ExcludeUserID)
		argNum++
	}

	query += " ORDER BY u.name ASC, u.id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	defer rows.Close()

	candidates := []types.CandidateProfile{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, u.Profile())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}
	return candidates, nil
}

// FindUser retrieves a user summary by ID, or nil when there is none
func (db *DB) FindUser(ctx context.Context, id uuid.UUID) (*types.UserSummary, error) {
	u, err := db.GetUser(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return &types.UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Bio:    u.Bio,
		Skills: []string(u.Skills),
	}, nil
}

// GetUser retrieves a full users row by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*UserRow, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpsertUser inserts a user or updates the existing row with the same email,
// returning its ID
func (db *DB) UpsertUser(ctx context.Context, in UserInput) (uuid.UUID, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return uuid.Nil, fmt.Errorf("user name and email are required")
	}
	availability := in.Availability
	if availability == "" {
		availability = types.AvailabilityAvailable
	}

	var bio *string
	if in.Bio != "" {
		bio = &in.Bio
	}

	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, bio, skills, availability)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE
		   SET name = $1, bio = $3, skills = $4, availability = $5, updated_at = NOW()
		 RETURNING id`,
		in.Name, in.Email, bio, StringArray(in.Skills), string(availability),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return id, nil
}

func scanUser(row pgx.Row) (*UserRow, error) {
	var u UserRow
	var availability string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Bio, &u.Skills, &availability, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Availability = types.Availability(availability)
	return &u, nil
}

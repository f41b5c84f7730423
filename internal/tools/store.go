// Package tools implements the two agent tools, candidate matching and
// introduction drafting, and the per-turn session that dispatches them.
package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/skill-matcher/internal/types"
)

// Store is the read side of the storage collaborator.
//
// FindUser and FindProject return (nil, nil) when the id does not exist.
type Store interface {
	FindCandidates(ctx context.Context, filter types.CandidateFilter) ([]types.CandidateProfile, error)
	FindUser(ctx context.Context, id uuid.UUID) (*types.UserSummary, error)
	FindProject(ctx context.Context, id uuid.UUID) (*types.ProjectSummary, error)
}

// Package types provides type definitions for structured data used throughout the skill-matcher system.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Availability describes whether a user is currently open to new work.
type Availability string

const (
	// AvailabilityAvailable means the user is open to new collaborations
	AvailabilityAvailable Availability = "available"
	// AvailabilityBusy means the user is fully booked
	AvailabilityBusy Availability = "busy"
	// AvailabilityPartTime means the user has limited capacity
	AvailabilityPartTime Availability = "part-time"
)

// Valid reports whether a is one of the known availability tags.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityPartTime:
		return true
	default:
		return false
	}
}

// CandidateProfile is a read-only view of a user supplied by the storage layer.
type CandidateProfile struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Bio          string       `json:"bio,omitempty"`
	Skills       []string     `json:"skills"` // raw, pre-normalization, in stored order
	Availability Availability `json:"availability"`
}

// ScoredMatch is a candidate annotated with its similarity to a query.
type ScoredMatch struct {
	CandidateProfile
	MatchedSkills    []string `json:"matchedSkills"`
	CosineSimilarity float64  `json:"cosineSimilarity"` // rounded to 4 decimals
	MatchScore       int      `json:"matchScore"`       // len(MatchedSkills)
	TotalSkills      int      `json:"totalSkills"`
}

// CandidateFilter is the coarse pre-filter handed to the storage layer.
type CandidateFilter struct {
	Skills        []string     // any case-insensitive overlap qualifies
	Availability  Availability // empty means any
	ExcludeUserID *uuid.UUID
	Limit         int
}

// UserSummary is the subset of a user needed to draft an introduction.
type UserSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Bio    string    `json:"bio,omitempty"`
	Skills []string  `json:"skills"`
}

// ProjectSummary is the subset of a project used as introduction context.
type ProjectSummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
}

// ToolCallRecord is an append-only audit entry for one tool invocation.
type ToolCallRecord struct {
	Tool      string    `json:"tool"`
	Input     any       `json:"input"`
	Output    any       `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Matching algorithm tags reported in MatchOutput.Algorithm.
const (
	AlgorithmBinary    = "cosine-binary"
	AlgorithmEmbedding = "cosine-embedding"
)

// Limits shared by the matching tool and its callers.
const (
	MaxQuerySkills     = 10
	DefaultMatchLimit  = 5
	MaxMatchLimit      = 10
	MaxCandidatePool   = 200
	CandidatePoolRatio = 5
	MaxCustomNoteChars = 300
)

// MatchInput is the argument record of the find-matches tool.
type MatchInput struct {
	Skills             []string     `json:"skills" validate:"required,min=1,max=10,dive,required"`
	Limit              int          `json:"limit,omitempty" validate:"omitempty,min=1,max=10"`
	ExcludeUserID      *uuid.UUID   `json:"excludeUserId,omitempty"`
	AvailabilityFilter Availability `json:"availabilityFilter,omitempty" validate:"omitempty,oneof=available busy part-time"`
	UseEmbeddings      bool         `json:"useEmbeddings,omitempty"`
}

// Validate validates the MatchInput using the validator.
func (in *MatchInput) Validate() error {
	validate := validator.New()
	return validate.Struct(in)
}

// MatchOutput is the result record of the find-matches tool.
type MatchOutput struct {
	Matches           []ScoredMatch `json:"matches"`
	SearchedSkills    []string      `json:"searchedSkills"`
	TotalFound        int           `json:"totalFound"`
	CandidatesScanned int           `json:"candidatesScanned"`
	Algorithm         string        `json:"algorithm"`
}

// DraftInput is the argument record of the draft-intro tool.
type DraftInput struct {
	FromUserID uuid.UUID  `json:"fromUserId" validate:"required"`
	ToUserID   uuid.UUID  `json:"toUserId" validate:"required"`
	ProjectID  *uuid.UUID `json:"projectId,omitempty"`
	CustomNote string     `json:"customNote,omitempty" validate:"max=300"`
}

// Validate validates the DraftInput using the validator.
func (in *DraftInput) Validate() error {
	validate := validator.New()
	return validate.Struct(in)
}

// IntroDraft is an advisory introduction message; it is never sent by this system.
type IntroDraft struct {
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	RecipientID   uuid.UUID `json:"recipientId"`
	RecipientName string    `json:"recipientName"`
	SenderName    string    `json:"senderName"`
	ProjectTitle  string    `json:"projectTitle,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

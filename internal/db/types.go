package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/skill-matcher/internal/types"
)

// UserInput holds the fields written by UpsertUser. Users are keyed by email.
type UserInput struct {
	Name         string
	Email        string
	Bio          string
	Skills       []string
	Availability types.Availability
}

// ProjectInput holds the fields written by CreateProject.
type ProjectInput struct {
	OwnerID     *uuid.UUID
	Title       string
	Description string
}

// UserRow is a users row as stored.
type UserRow struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Bio          string             `json:"bio,omitempty"`
	Skills       StringArray        `json:"skills"` // JSONB array
	Availability types.Availability `json:"availability"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Profile converts the row to the matching view.
func (u *UserRow) Profile() types.CandidateProfile {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	return types.CandidateProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Bio:          u.Bio,
		Skills:       skills,
		Availability: u.Availability,
	}
}

// StringArray handles JSONB string arrays
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = []string{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("type assertion .([]byte) failed")
	}
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

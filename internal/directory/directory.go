// Package directory provides an in-memory user and project store loaded from
// a JSON file. It serves the CLI and local runs without a database and has
// the same candidate filter semantics as the PostgreSQL store.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/skill-matcher/internal/schemas"
	"github.com/jonathan/skill-matcher/internal/skills"
	"github.com/jonathan/skill-matcher/internal/types"
)

// File is the on-disk layout of a directory file.
type File struct {
	Users    []types.CandidateProfile `json:"users"`
	Projects []types.ProjectSummary   `json:"projects,omitempty"`
}

// Directory is a concurrency-safe in-memory store.
type Directory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]types.CandidateProfile
	projects map[uuid.UUID]types.ProjectSummary
}

// New creates a Directory from users and projects. Users without an
// availability are treated as available.
func New(users []types.CandidateProfile, projects []types.ProjectSummary) *Directory {
	d := &Directory{
		users:    make(map[uuid.UUID]types.CandidateProfile, len(users)),
		projects: make(map[uuid.UUID]types.ProjectSummary, len(projects)),
	}
	for _, u := range users {
		d.PutUser(u)
	}
	for _, p := range projects {
		d.PutProject(p)
	}
	return d
}

// Load reads and validates a directory file.
func Load(path string) (*Directory, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			Message: fmt.Sprintf("failed to read file %s", path),
			Cause:   err,
		}
	}
	return Parse(content)
}

// Parse decodes and validates directory JSON.
func Parse(content []byte) (*Directory, error) {
	if err := schemas.Validate(schemas.Directory, content); err != nil {
		return nil, &LoadError{Message: "directory does not match schema", Cause: err}
	}

	var f File
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, &LoadError{
			Message: "failed to unmarshal JSON",
			Cause:   err,
		}
	}
	return New(f.Users, f.Projects), nil
}

// PutUser inserts or replaces a user.
func (d *Directory) PutUser(u types.CandidateProfile) {
	if u.Availability == "" {
		u.Availability = types.AvailabilityAvailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// PutProject inserts or replaces a project.
func (d *Directory) PutProject(p types.ProjectSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projects[p.ID] = p
}

// Users returns every user ordered by name, then id.
func (d *Directory) Users() []types.CandidateProfile {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.CandidateProfile, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sortProfiles(out)
	return out
}

// Projects returns every project ordered by title, then id.
func (d *Directory) Projects() []types.ProjectSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.ProjectSummary, 0, len(d.projects))
	for _, p := range d.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// FindCandidates returns users with at least one skill whose normalized form
// matches a filter skill, so "Node.js" and "nodejs" overlap. Results are ordered by name,
// then id, and cut at filter.Limit when it is positive.
func (d *Directory) FindCandidates(_ context.Context, filter types.CandidateFilter) ([]types.CandidateProfile, error) {
	want := make(map[string]bool, len(filter.Skills))
	for _, s := range filter.Skills {
		if s = skills.Normalize(s); s != "" {
			want[s] = true
		}
	}
	if len(want) == 0 {
		return []types.CandidateProfile{}, nil
	}

	out := []types.CandidateProfile{}
	for _, u := range d.Users() {
		if filter.ExcludeUserID != nil && u.ID == *filter.ExcludeUserID {
			continue
		}
		if filter.Availability != "" && u.Availability != filter.Availability {
			continue
		}
		if overlaps(u.Skills, want) {
			out = append(out, u)
		}
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// FindUser returns the user with id, or nil when there is none.
func (d *Directory) FindUser(_ context.Context, id uuid.UUID) (*types.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	return &types.UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Bio:    u.Bio,
		Skills: append([]string(nil), u.Skills...),
	}, nil
}

// FindProject returns the project with id, or nil when there is none.
func (d *Directory) FindProject(_ context.Context, id uuid.UUID) (*types.ProjectSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func overlaps(skillList []string, want map[string]bool) bool {
	for _, s := range skillList {
		if want[skills.Normalize(s)] {
			return true
		}
	}
	return false
}

func sortProfiles(users []types.CandidateProfile) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.String() < users[j].ID.String()
	})
}

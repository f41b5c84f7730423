package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/directory"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

var (
	rileyID   = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	aliceID   = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	bobID     = uuid.MustParse("33333333-3333-4333-8333-333333333333")
	carolID   = uuid.MustParse("44444444-4444-4444-8444-444444444444")
	projectID = uuid.MustParse("55555555-5555-4555-8555-555555555555")
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newToolset(t *testing.T) *tools.Toolset {
	t.Helper()
	dir := directory.New([]types.CandidateProfile{
		{ID: rileyID, Name: "Riley Requester", Email: "riley@example.com", Bio: "Building a marketplace.", Skills: []string{"React", "Node.js"}},
		{ID: aliceID, Name: "Alice Adams", Email: "alice@example.com", Skills: []string{"React", "Node.js", "MongoDB"}},
		{ID: bobID, Name: "Bob Brown", Email: "bob@example.com", Skills: []string{"React", "TypeScript"}, Availability: types.AvailabilityBusy},
		{ID: carolID, Name: "Carol Chen", Email: "carol@example.com", Skills: []string{"Python", "Django", "Docker"}},
	}, []types.ProjectSummary{
		{ID: projectID, Title: "Tool Library", Description: "Neighbourhood tool sharing"},
	})

	now := func() time.Time { return fixedNow }
	return &tools.Toolset{
		Match:   tools.NewMatchTool(dir, nil, nil),
		Drafter: tools.NewIntroDrafter(dir, now, nil),
		Now:     now,
	}
}

func newIssuer(t *testing.T) *approval.Issuer {
	t.Helper()
	issuer, err := approval.NewIssuer(approval.Config{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	return issuer
}

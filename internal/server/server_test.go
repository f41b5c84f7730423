package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/skill-matcher/internal/agent"
	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/directory"
	"github.com/jonathan/skill-matcher/internal/server/ratelimit"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

var (
	rileyID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	aliceID = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	bobID   = uuid.MustParse("33333333-3333-4333-8333-333333333333")
)

// stubAgent returns a fixed response or error.
type stubAgent struct {
	resp *agent.Response
	err  error
	got  agent.Request
}

func (a *stubAgent) Handle(_ context.Context, req agent.Request) (*agent.Response, error) {
	a.got = req
	return a.resp, a.err
}

func newDeps(t *testing.T) Deps {
	t.Helper()
	dir := directory.New([]types.CandidateProfile{
		{ID: rileyID, Name: "Riley Requester", Skills: []string{"React", "Node.js"}},
		{ID: aliceID, Name: "Alice Adams", Skills: []string{"React", "Node.js", "MongoDB"}},
		{ID: bobID, Name: "Bob Brown", Skills: []string{"React", "TypeScript"}},
	}, nil)

	issuer, err := approval.NewIssuer(approval.Config{Secret: "test-secret"})
	require.NoError(t, err)

	toolset := &tools.Toolset{
		Match:   tools.NewMatchTool(dir, nil, nil),
		Drafter: tools.NewIntroDrafter(dir, time.Now, nil),
	}
	return Deps{
		Match: toolset.Match,
		Rules: agent.NewBounded(toolset, issuer, nil),
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)

	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["embeddings"])
	assert.Equal(t, false, body["llm"])
}

func TestMatch(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)

	rec := do(t, s.Handler(), http.MethodPost, "/match",
		fmt.Sprintf(`{"skills": ["React", "Node.js"], "excludeUserId": %q}`, rileyID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode[types.MatchOutput](t, rec)
	require.Len(t, out.Matches, 2)
	assert.Equal(t, "Alice Adams", out.Matches[0].Name)
	assert.Equal(t, 0.8165, out.Matches[0].CosineSimilarity)
	assert.Equal(t, 0.5, out.Matches[1].CosineSimilarity)
	assert.Equal(t, types.AlgorithmBinary, out.Algorithm)
	assert.Equal(t, 2, out.TotalFound)
}

func TestMatch_BadInput(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "no skills", body: `{"skills": []}`},
		{name: "blank skills", body: `{"skills": [" ", ""]}`},
		{name: "limit", body: `{"skills": ["Go"], "limit": 11}`},
		{name: "availability", body: `{"skills": ["Go"], "availabilityFilter": "asleep"}`},
		{name: "malformed", body: `{"skills": `},
		{name: "unknown field", body: `{"skills": ["Go"], "bogus": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, "/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestAgentTurn_RulesFlow(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/agent/turn",
		fmt.Sprintf(`{"requesterId": %q, "message": "Looking for React and Node.js help"}`, rileyID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	first := decode[agent.Response](t, rec)
	assert.Equal(t, agent.StateAwaitingApproval, first.State)
	require.NotEmpty(t, first.ApprovalTicket)

	rec = do(t, h, http.MethodPost, "/agent/turn", fmt.Sprintf(
		`{"mode": "rules", "requesterId": %q, "approvedRecipientId": %q, "approvalTicket": %q}`,
		rileyID, aliceID, first.ApprovalTicket))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	second := decode[agent.Response](t, rec)
	assert.Equal(t, agent.StateDrafted, second.State)
	require.NotNil(t, second.Draft)
	assert.Equal(t, aliceID, second.Draft.RecipientID)
}

func TestAgentTurn_GuardIsForbidden(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)

	rec := do(t, s.Handler(), http.MethodPost, "/agent/turn",
		fmt.Sprintf(`{"requesterId": %q, "approvedRecipientId": %q}`, rileyID, bobID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "recipient_not_confirmed", decode[map[string]string](t, rec)["error"])
}

func TestAgentTurn_Modes(t *testing.T) {
	deps := newDeps(t)
	stub := &stubAgent{resp: &agent.Response{State: agent.StateIdle, Message: "stub"}}

	without := New(Config{}, deps, nil)
	rec := do(t, without.Handler(), http.MethodPost, "/agent/turn",
		fmt.Sprintf(`{"mode": "llm", "requesterId": %q, "message": "hi"}`, rileyID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, without.Handler(), http.MethodPost, "/agent/turn",
		fmt.Sprintf(`{"mode": "magic", "requesterId": %q}`, rileyID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	deps.LLM = stub
	with := New(Config{}, deps, nil)
	rec = do(t, with.Handler(), http.MethodPost, "/agent/turn",
		fmt.Sprintf(`{"mode": "llm", "requesterId": %q, "message": "hi", "useEmbeddings": true}`, rileyID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stub", decode[agent.Response](t, rec).Message)
	assert.Equal(t, rileyID, stub.got.RequesterID)
	assert.True(t, stub.got.UseEmbeddings)
}

func TestAgentTurn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "upstream", err: &tools.UpstreamError{Message: "chat completion", Cause: errors.New("quota")}, status: http.StatusBadGateway},
		{name: "internal", err: errors.New("db exploded"), status: http.StatusInternalServerError, msg: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newDeps(t)
			deps.Rules = &stubAgent{err: tt.err}
			s := New(Config{}, deps, nil)

			rec := do(t, s.Handler(), http.MethodPost, "/agent/turn", fmt.Sprintf(`{"requesterId": %q}`, rileyID))
			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decode[map[string]string](t, rec)["message"])
			}
		})
	}
}

func TestCORS(t *testing.T) {
	s := New(Config{CORSOrigin: "https://app.example.com"}, newDeps(t), nil)

	rec := do(t, s.Handler(), http.MethodOptions, "/match", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := ratelimit.NewConfig(true, 1, 1, nil, nil)
	cfg.EndpointConfigs = []ratelimit.EndpointConfig{
		{Path: "/match", Method: http.MethodPost, Limit: 1, Window: time.Hour, Burst: 1},
	}
	s := New(Config{RateLimit: cfg}, newDeps(t), nil)
	defer s.stop()

	body := `{"skills": ["React"]}`
	rec := do(t, s.Handler(), http.MethodPost, "/match", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = do(t, s.Handler(), http.MethodPost, "/match", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, rec)["error"])

	rec = do(t, s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is never limited")
}

func TestBodyTooLarge(t *testing.T) {
	s := New(Config{}, newDeps(t), nil)

	big := `{"skills": ["` + strings.Repeat("a", maxBodyBytes) + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/match", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "input", err: &tools.InputError{Field: "skills", Message: "required"}, expected: http.StatusBadRequest},
		{name: "not found", err: &tools.NotFoundError{Resource: "user", ID: uuid.New()}, expected: http.StatusNotFound},
		{name: "guard", err: &tools.GuardViolation{RecipientID: uuid.New()}, expected: http.StatusForbidden},
		{name: "cap", err: &tools.CapExceeded{Limit: 2}, expected: http.StatusTooManyRequests},
		{name: "upstream", err: &tools.UpstreamError{Message: "embed"}, expected: http.StatusBadGateway},
		{name: "wrapped", err: fmt.Errorf("turn: %w", &tools.InputError{Message: "x"}), expected: http.StatusBadRequest},
		{name: "unknown", err: assert.AnError, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/agent"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

// Agent modes accepted by POST /agent/turn.
const (
	ModeRules = "rules"
	ModeLLM   = "llm"
)

// TurnRequest is the body of POST /agent/turn.
type TurnRequest struct {
	Mode string `json:"mode,omitempty"`
	agent.Request
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"embeddings": s.deps.Match != nil && s.deps.Match.EmbeddingsEnabled(),
		"llm":        s.deps.LLM != nil,
	})
}

// handleMatch runs the matching tool directly.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var in types.MatchInput
	if err := decodeBody(w, r, &in); err != nil {
		s.errorResponse(w, err)
		return
	}
	if s.deps.Match == nil {
		s.errorResponse(w, fmt.Errorf("matching is not configured"))
		return
	}

	out, err := s.deps.Match.Run(r.Context(), in)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// handleAgentTurn runs one agent turn with the requested mode.
func (s *Server) handleAgentTurn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}

	var a agent.Agent
	switch req.Mode {
	case "", ModeRules:
		a = s.deps.Rules
	case ModeLLM:
		a = s.deps.LLM
		if a == nil {
			s.errorResponse(w, &tools.InputError{Field: "mode", Message: "llm mode is not configured"})
			return
		}
	default:
		s.errorResponse(w, &tools.InputError{Field: "mode", Message: fmt.Sprintf("must be %q or %q", ModeRules, ModeLLM)})
		return
	}
	if a == nil {
		s.errorResponse(w, fmt.Errorf("agent is not configured"))
		return
	}

	resp, err := a.Handle(r.Context(), req.Request)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// decodeBody reads a JSON body, rejecting unknown fields and oversized input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &tools.InputError{Field: "body", Message: err.Error()}
	}
	return nil
}

// errorResponse writes an error JSON response with the status from HTTPStatus
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}

	body := map[string]string{"error": errorCode(status), "message": err.Error()}
	if status == http.StatusInternalServerError {
		body["message"] = "internal server error"
	}
	s.jsonResponse(w, status, body)
}

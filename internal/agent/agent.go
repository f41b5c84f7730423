// Package agent implements the two orchestrators that drive the matching and
// drafting tools for one conversational turn: a deterministic rule-based
// agent and an LLM-driven agent. Both use a fresh tools.Session per turn, so
// the tool cap and the recipient guard apply identically.
package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/prompts"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

const promptFile = "agent.json"

// State is the outcome of a turn.
type State string

const (
	// StateIdle means matching ran and found nobody; the turn succeeded.
	StateIdle State = "idle"
	// StateAwaitingApproval means matches were returned and a draft needs
	// the requester to approve one of them.
	StateAwaitingApproval State = "awaiting_approval"
	// StateDrafted means an introduction draft was produced.
	StateDrafted State = "drafted"
	// StateFailed means the turn could not proceed, e.g. no skills were named.
	StateFailed State = "failed"
)

// Request is one turn of input.
type Request struct {
	RequesterID uuid.UUID `json:"requesterId" validate:"required"`
	Message     string    `json:"message" validate:"max=2000"`

	// ApprovedRecipientID and ApprovalTicket come from a previous
	// awaiting_approval response.
	ApprovedRecipientID *uuid.UUID `json:"approvedRecipientId,omitempty"`
	ApprovalTicket      string     `json:"approvalTicket,omitempty"`

	ProjectID          *uuid.UUID         `json:"projectId,omitempty"`
	CustomNote         string             `json:"customNote,omitempty" validate:"max=300"`
	Limit              int                `json:"limit,omitempty" validate:"omitempty,min=1,max=10"`
	AvailabilityFilter types.Availability `json:"availabilityFilter,omitempty" validate:"omitempty,oneof=available busy part-time"`
	UseEmbeddings      bool               `json:"useEmbeddings,omitempty"`
}

// Validate validates the Request using the validator.
func (r *Request) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Response is the result of one turn.
type Response struct {
	State            State                  `json:"state"`
	Message          string                 `json:"message"`
	ExtractedSkills  []string               `json:"extractedSkills"`
	Matches          []types.ScoredMatch    `json:"matches"`
	Algorithm        string                 `json:"algorithm,omitempty"`
	Draft            *types.IntroDraft      `json:"draft,omitempty"`
	ToolCalls        []types.ToolCallRecord `json:"toolCalls"`
	AwaitingApproval bool                   `json:"awaitingApproval"`
	ApprovalTicket   string                 `json:"approvalTicket,omitempty"`
}

// Agent handles a single turn.
type Agent interface {
	Handle(ctx context.Context, req Request) (*Response, error)
}

// validateRequest converts validator failures into the tools input error.
func validateRequest(req *Request) error {
	if req.RequesterID == uuid.Nil {
		return &tools.InputError{Field: "requesterId", Message: "requester id is required"}
	}
	if err := req.Validate(); err != nil {
		return &tools.InputError{Message: err.Error()}
	}
	return nil
}

// resume restores approved recipients from the request ticket. When the
// request approves one recipient only that id is confirmed. A missing or
// invalid ticket leaves the confirmed set empty, so a draft attempt is
// rejected by the session guard.
func resume(session *tools.Session, issuer *approval.Issuer, req Request, logger *zap.Logger) {
	if req.ApprovalTicket == "" || issuer == nil {
		return
	}
	grant, err := issuer.Verify(req.ApprovalTicket, req.RequesterID)
	if err != nil {
		logger.Warn("approval ticket rejected", zap.Error(err))
		return
	}
	if req.ApprovedRecipientID != nil {
		err = session.ResumeRecipient(grant, *req.ApprovedRecipientID)
	} else {
		err = session.Resume(grant)
	}
	if err != nil {
		logger.Warn("approval ticket not applied", zap.Error(err))
	}
}

// issueTicket signs the ids of the returned matches. A nil issuer yields no
// ticket.
func issueTicket(issuer *approval.Issuer, requesterID uuid.UUID, matches []types.ScoredMatch) (string, error) {
	if issuer == nil || len(matches) == 0 {
		return "", nil
	}
	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return issuer.Issue(requesterID, ids)
}

// respond builds a Response from the session state. The state follows from
// what the tools produced, not from what a model claims.
func respond(session *tools.Session, extracted []string) *Response {
	resp := &Response{
		State:           StateFailed,
		ExtractedSkills: extracted,
		Matches:         []types.ScoredMatch{},
		ToolCalls:       session.Records(),
	}
	if resp.ExtractedSkills == nil {
		resp.ExtractedSkills = []string{}
	}

	if out := session.Matches(); out != nil {
		resp.Matches = out.Matches
		resp.Algorithm = out.Algorithm
		if len(out.Matches) > 0 {
			resp.State = StateAwaitingApproval
		} else {
			resp.State = StateIdle
		}
	}
	if draft := session.Draft(); draft != nil {
		resp.Draft = draft
		resp.State = StateDrafted
	}
	resp.AwaitingApproval = resp.State == StateAwaitingApproval
	resp.Message = describe(resp)
	return resp
}

// describe renders the user-facing message for a response.
func describe(resp *Response) string {
	switch resp.State {
	case StateDrafted:
		return prompts.Render(promptFile, "drafted", map[string]string{"Name": resp.Draft.RecipientName})
	case StateAwaitingApproval:
		best := resp.Matches[0]
		return prompts.Render(promptFile, "approval-prompt", map[string]string{
			"Count":         strconv.Itoa(len(resp.Matches)),
			"Skills":        strings.Join(resp.ExtractedSkills, ", "),
			"Name":          best.Name,
			"Similarity":    strconv.FormatFloat(best.CosineSimilarity, 'f', -1, 64),
			"MatchedSkills": strings.Join(best.MatchedSkills, ", "),
			"ID":            best.ID.String(),
		})
	case StateIdle:
		return prompts.Render(promptFile, "no-matches", map[string]string{"Skills": strings.Join(resp.ExtractedSkills, ", ")})
	default:
		return prompts.MustGet(promptFile, "clarify-skills")
	}
}

package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/skills"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

// Bounded is the rule-based agent. A turn either drafts to an approved
// recipient, or extracts skills from the message and runs one match. It
// never dispatches more than one tool per turn.
type Bounded struct {
	tools  *tools.Toolset
	issuer *approval.Issuer
	logger *zap.Logger
}

// NewBounded creates the rule-based agent. issuer may be nil, in which case
// no approval tickets are issued or accepted.
func NewBounded(toolset *tools.Toolset, issuer *approval.Issuer, logger *zap.Logger) *Bounded {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bounded{tools: toolset, issuer: issuer, logger: logger.Named("bounded")}
}

// Handle implements Agent.
func (b *Bounded) Handle(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	session := b.tools.NewSession(req.RequesterID)

	if req.ApprovedRecipientID != nil {
		return b.draftApproved(ctx, session, req)
	}

	extracted := skills.ExtractFromMessage(req.Message)
	if len(extracted) == 0 {
		b.logger.Info("no skills recognised", zap.String("state", string(StateFailed)))
		return respond(session, extracted), nil
	}

	res := session.Dispatch(ctx, tools.FindMatchesCall{Input: types.MatchInput{
		Skills:             extracted,
		Limit:              req.Limit,
		AvailabilityFilter: req.AvailabilityFilter,
		UseEmbeddings:      req.UseEmbeddings,
	}})
	if res.Err != nil {
		return nil, res.Err
	}

	resp := respond(session, extracted)
	if resp.State == StateAwaitingApproval {
		ticket, err := issueTicket(b.issuer, req.RequesterID, resp.Matches)
		if err != nil {
			return nil, fmt.Errorf("failed to issue approval ticket: %w", err)
		}
		resp.ApprovalTicket = ticket
	}

	b.logger.Info("turn complete",
		zap.String("state", string(resp.State)),
		zap.Int("matches", len(resp.Matches)),
		zap.Int("tool_calls", session.CallsMade()))
	return resp, nil
}

// draftApproved drafts to the approved recipient as the first tool call of
// the turn, skipping extraction and matching.
func (b *Bounded) draftApproved(ctx context.Context, session *tools.Session, req Request) (*Response, error) {
	resume(session, b.issuer, req, b.logger)

	res := session.Dispatch(ctx, tools.DraftIntroCall{Input: types.DraftInput{
		FromUserID: req.RequesterID,
		ToUserID:   *req.ApprovedRecipientID,
		ProjectID:  req.ProjectID,
		CustomNote: req.CustomNote,
	}})
	if res.Err != nil {
		return nil, res.Err
	}

	resp := respond(session, nil)
	b.logger.Info("turn complete",
		zap.String("state", string(resp.State)),
		zap.String("recipient", req.ApprovedRecipientID.String()))
	return resp, nil
}

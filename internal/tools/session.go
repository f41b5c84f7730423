package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/types"
)

// DefaultMaxCalls is the per-turn tool dispatch limit.
const DefaultMaxCalls = 2

var tracer = otel.Tracer("github.com/jonathan/skill-matcher/internal/tools")

// Toolset holds the tools shared by every turn.
type Toolset struct {
	Match    *MatchTool
	Drafter  *IntroDrafter
	MaxCalls int
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewSession starts the state for one agent turn on behalf of requesterID.
func (ts *Toolset) NewSession(requesterID uuid.UUID) *Session {
	maxCalls := ts.MaxCalls
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	logger := ts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := ts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		requesterID: requesterID,
		match:       ts.Match,
		drafter:     ts.Drafter,
		maxCalls:    maxCalls,
		confirmed:   make(map[uuid.UUID]bool),
		records:     []types.ToolCallRecord{},
		logger:      logger.With(zap.String("requester", requesterID.String())),
		now:         now,
	}
}

// Session is the state of a single agent turn: the calls made so far, the
// audit records and the set of candidate ids a draft may target.
//
// A Session is not safe for concurrent use; dispatch within a turn is
// sequential.
type Session struct {
	requesterID uuid.UUID
	match       *MatchTool
	drafter     *IntroDrafter
	maxCalls    int

	calls     int
	records   []types.ToolCallRecord
	confirmed map[uuid.UUID]bool
	order     []uuid.UUID
	matches   *types.MatchOutput
	draft     *types.IntroDraft

	logger *zap.Logger
	now    func() time.Time
}

// Resume adds the ids approved by a verified ticket to the confirmed set.
// A nil grant is a no-op.
func (s *Session) Resume(grant *approval.Grant) error {
	if grant == nil {
		return nil
	}
	if grant.RequesterID() != s.requesterID {
		return fmt.Errorf("approval ticket belongs to a different requester")
	}
	for _, id := range grant.MatchIDs() {
		s.confirm(id)
	}
	return nil
}

// ResumeRecipient confirms only id, and only when the grant covers it. The
// other ids on the ticket stay unconfirmed for this turn.
func (s *Session) ResumeRecipient(grant *approval.Grant, id uuid.UUID) error {
	if grant == nil {
		return nil
	}
	if grant.RequesterID() != s.requesterID {
		return fmt.Errorf("approval ticket belongs to a different requester")
	}
	for _, approved := range grant.MatchIDs() {
		if approved == id {
			s.confirm(id)
			return nil
		}
	}
	return fmt.Errorf("recipient %s is not on the approval ticket", id)
}

// Dispatch runs call if the turn still has budget. The limit is checked
// before anything else, so an over-limit call never executes and is not
// counted or recorded.
func (s *Session) Dispatch(ctx context.Context, call Call) Result {
	kind := call.Kind()
	if s.calls >= s.maxCalls {
		err := &CapExceeded{Limit: s.maxCalls}
		s.logger.Warn("tool call rejected", zap.String("tool", string(kind)), zap.Error(err))
		return Result{Kind: kind, Err: err}
	}
	s.calls++

	ctx, span := tracer.Start(ctx, "tools."+string(kind), trace.WithAttributes(
		attribute.String("tool.name", string(kind)),
		attribute.Int("tool.call_index", s.calls),
	))
	defer span.End()

	start := s.now()
	var res Result
	switch c := call.(type) {
	case FindMatchesCall:
		res = s.findMatches(ctx, c)
	case DraftIntroCall:
		res = s.draftIntro(ctx, c)
	default:
		res = Result{Kind: kind, Err: &InputError{Field: "tool", Message: fmt.Sprintf("unknown tool %q", kind)}}
	}

	rec := types.ToolCallRecord{
		Tool:      string(kind),
		Input:     call.input(),
		Timestamp: start.UTC(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		s.logger.Info("tool call failed",
			zap.String("tool", string(kind)),
			zap.Int("call", s.calls),
			zap.Duration("duration", s.now().Sub(start)),
			zap.Error(res.Err))
	} else {
		rec.Output = res.Output()
		s.logger.Info("tool call completed",
			zap.String("tool", string(kind)),
			zap.Int("call", s.calls),
			zap.Duration("duration", s.now().Sub(start)))
	}
	s.records = append(s.records, rec)
	return res
}

func (s *Session) findMatches(ctx context.Context, c FindMatchesCall) Result {
	res := Result{Kind: KindFindMatches}
	if s.match == nil {
		res.Err = fmt.Errorf("matching tool is not configured")
		return res
	}

	in := c.Input
	if s.requesterID != uuid.Nil {
		requester := s.requesterID
		in.ExcludeUserID = &requester
	}

	out, err := s.match.Run(ctx, in)
	if err != nil {
		res.Err = err
		return res
	}
	for _, m := range out.Matches {
		s.confirm(m.ID)
	}
	s.matches = out
	res.Matches = out
	return res
}

func (s *Session) draftIntro(ctx context.Context, c DraftIntroCall) Result {
	res := Result{Kind: KindDraftIntro}
	if s.drafter == nil {
		res.Err = fmt.Errorf("intro drafter is not configured")
		return res
	}

	in := c.Input
	if s.requesterID != uuid.Nil {
		in.FromUserID = s.requesterID
	}

	recipient, ok := s.recipient(in.ToUserID)
	if !ok {
		res.Err = &GuardViolation{RecipientID: in.ToUserID}
		return res
	}

	draft, err := s.drafter.Draft(ctx, in, recipient)
	if err != nil {
		res.Err = err
		return res
	}
	s.draft = draft
	res.Draft = draft
	return res
}

func (s *Session) confirm(id uuid.UUID) {
	if id == uuid.Nil || s.confirmed[id] {
		return
	}
	s.confirmed[id] = true
	s.order = append(s.order, id)
}

// recipient mints a ConfirmedRecipient for id when it is in the confirmed set.
func (s *Session) recipient(id uuid.UUID) (ConfirmedRecipient, bool) {
	if !s.confirmed[id] {
		return ConfirmedRecipient{}, false
	}
	return ConfirmedRecipient{id: id}, true
}

// RequesterID returns the user this turn acts for.
func (s *Session) RequesterID() uuid.UUID { return s.requesterID }

// CallsMade returns the number of dispatched tool calls.
func (s *Session) CallsMade() int { return s.calls }

// Remaining returns how many more tool calls this turn allows.
func (s *Session) Remaining() int { return s.maxCalls - s.calls }

// MaxCalls returns the per-turn limit.
func (s *Session) MaxCalls() int { return s.maxCalls }

// IsConfirmed reports whether id may be the target of a draft.
func (s *Session) IsConfirmed(id uuid.UUID) bool { return s.confirmed[id] }

// ConfirmedIDs returns the confirmed ids in the order they were added.
func (s *Session) ConfirmedIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.order))
	copy(out, s.order)
	return out
}

// Matches returns the last successful match output, if any.
func (s *Session) Matches() *types.MatchOutput { return s.matches }

// Draft returns the draft produced this turn, if any.
func (s *Session) Draft() *types.IntroDraft { return s.draft }

// Records returns a copy of the audit trail.
func (s *Session) Records() []types.ToolCallRecord {
	out := make([]types.ToolCallRecord, len(s.records))
	copy(out, s.records)
	return out
}

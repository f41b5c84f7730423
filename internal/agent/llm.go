package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/llm"
	"github.com/jonathan/skill-matcher/internal/prompts"
	"github.com/jonathan/skill-matcher/internal/schemas"
	"github.com/jonathan/skill-matcher/internal/tools"
	"github.com/jonathan/skill-matcher/internal/types"
)

// MaxModelTurns bounds the tool-calling rounds with the model per turn.
const MaxModelTurns = 2

// Summary is the structured reply requested from the model after the tool
// loop.
type Summary struct {
	Message                string   `json:"message"`
	Skills                 []string `json:"skills,omitempty"`
	RecommendedCandidateID string   `json:"recommendedCandidateId,omitempty"`
}

// LLM is the model-driven agent. The model chooses tools and arguments; the
// session still enforces the call cap and the recipient guard.
type LLM struct {
	model  llm.ChatModel
	tools  *tools.Toolset
	issuer *approval.Issuer
	logger *zap.Logger
}

// NewLLM creates the model-driven agent.
func NewLLM(model llm.ChatModel, toolset *tools.Toolset, issuer *approval.Issuer, logger *zap.Logger) *LLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLM{model: model, tools: toolset, issuer: issuer, logger: logger.Named("llm")}
}

// Handle implements Agent.
func (a *LLM) Handle(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	session := a.tools.NewSession(req.RequesterID)
	resume(session, a.issuer, req, a.logger)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.Render(promptFile, "agent-system", map[string]string{
			"MaxCalls": strconv.Itoa(session.MaxCalls()),
		})},
	}
	if req.Message != "" {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.Message})
	}
	if req.ApprovedRecipientID != nil {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompts.Render(promptFile, "agent-approved", map[string]string{
			"RecipientID": req.ApprovedRecipientID.String(),
		})})
	}
	// An empty turn gives the tool loop nothing to act on, but the summary
	// is still requested.
	turns := MaxModelTurns
	if len(messages) == 1 {
		turns = 0
	}

	for turn := 1; turn <= turns; turn++ {
		reply, err := a.model.Chat(ctx, llm.ChatRequest{
			Messages: messages,
			Tools:    toolSpecs(),
			Tier:     llm.TierStandard,
		})
		if err != nil {
			return nil, &tools.UpstreamError{Message: "chat completion", Cause: err}
		}

		calls := functionCalls(reply.ToolCalls)
		a.logger.Debug("model turn",
			zap.Int("turn", turn),
			zap.Int("tool_calls", len(calls)),
			zap.Int("ignored_calls", len(reply.ToolCalls)-len(calls)))
		if len(calls) == 0 {
			if reply.Content != "" {
				messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply.Content})
			}
			break
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply.Content, ToolCalls: calls})
		for _, call := range calls {
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    a.dispatch(ctx, session, req, call),
			})
		}
	}

	summary := a.summarize(ctx, messages, session)

	var extracted []string
	if out := session.Matches(); out != nil {
		extracted = out.SearchedSkills
	} else {
		extracted = summary.Skills
	}
	resp := respond(session, extracted)
	if summary.Message != "" {
		resp.Message = summary.Message
	}
	if resp.State == StateAwaitingApproval {
		ticket, err := issueTicket(a.issuer, req.RequesterID, resp.Matches)
		if err != nil {
			return nil, fmt.Errorf("failed to issue approval ticket: %w", err)
		}
		resp.ApprovalTicket = ticket
	}

	a.logger.Info("turn complete",
		zap.String("state", string(resp.State)),
		zap.Int("matches", len(resp.Matches)),
		zap.Int("tool_calls", session.CallsMade()))
	return resp, nil
}

// functionCalls drops tool calls of any type other than "function".
func functionCalls(calls []llm.ToolCall) []llm.ToolCall {
	out := make([]llm.ToolCall, 0, len(calls))
	for _, c := range calls {
		if c.Type == llm.ToolCallTypeFunction {
			out = append(out, c)
		}
	}
	return out
}

type findMatchesArgs struct {
	Skills             []string `json:"skills"`
	Limit              int      `json:"limit"`
	AvailabilityFilter string   `json:"availabilityFilter"`
	UseEmbeddings      bool     `json:"useEmbeddings"`
}

type draftIntroArgs struct {
	ToUserID   string `json:"toUserId"`
	ProjectID  string `json:"projectId"`
	CustomNote string `json:"customNote"`
}

// dispatch runs one model-requested call and returns the tool message
// content. Failures, including the call cap, become {"error": ...} so the
// model can answer in natural language.
func (a *LLM) dispatch(ctx context.Context, session *tools.Session, req Request, call llm.ToolCall) string {
	kind, ok := tools.ParseKind(call.Name)
	if !ok {
		return toolError(fmt.Sprintf("unknown tool %q", call.Name))
	}

	var res tools.Result
	switch kind {
	case tools.KindFindMatches:
		args, _ := llm.ParseOrDefault(call.Arguments, findMatchesArgs{})
		in := types.MatchInput{
			Skills:             args.Skills,
			Limit:              args.Limit,
			AvailabilityFilter: types.Availability(args.AvailabilityFilter),
			UseEmbeddings:      args.UseEmbeddings || req.UseEmbeddings,
			ExcludeUserID:      &req.RequesterID,
		}
		if in.Limit == 0 {
			in.Limit = req.Limit
		}
		if in.AvailabilityFilter == "" {
			in.AvailabilityFilter = req.AvailabilityFilter
		}
		res = session.Dispatch(ctx, tools.FindMatchesCall{Input: in})
	case tools.KindDraftIntro:
		args, _ := llm.ParseOrDefault(call.Arguments, draftIntroArgs{})
		in := types.DraftInput{
			FromUserID: req.RequesterID,
			ToUserID:   parseID(args.ToUserID),
			ProjectID:  req.ProjectID,
			CustomNote: args.CustomNote,
		}
		if id := parseID(args.ProjectID); id != uuid.Nil {
			in.ProjectID = &id
		}
		if in.CustomNote == "" {
			in.CustomNote = req.CustomNote
		}
		if req.ApprovedRecipientID != nil {
			in.ToUserID = *req.ApprovedRecipientID
		}
		res = session.Dispatch(ctx, tools.DraftIntroCall{Input: in})
	}

	if res.Err != nil {
		return toolError(res.Err.Error())
	}
	return toolResult(res)
}

func parseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toolError(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

type matchView struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Availability     types.Availability `json:"availability"`
	MatchedSkills    []string           `json:"matchedSkills"`
	CosineSimilarity float64            `json:"cosineSimilarity"`
}

// toolResult renders a successful result for the model. Contact details are
// left out.
func toolResult(res tools.Result) string {
	var payload any
	switch {
	case res.Matches != nil:
		views := make([]matchView, len(res.Matches.Matches))
		for i, m := range res.Matches.Matches {
			views[i] = matchView{
				ID:               m.ID,
				Name:             m.Name,
				Availability:     m.Availability,
				MatchedSkills:    m.MatchedSkills,
				CosineSimilarity: m.CosineSimilarity,
			}
		}
		payload = map[string]any{
			"matches":        views,
			"totalFound":     res.Matches.TotalFound,
			"searchedSkills": res.Matches.SearchedSkills,
		}
	case res.Draft != nil:
		payload = map[string]any{
			"subject":       res.Draft.Subject,
			"body":          res.Draft.Body,
			"recipientName": res.Draft.RecipientName,
			"sent":          false,
		}
	default:
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return toolError("failed to encode tool result")
	}
	return string(b)
}

// summarize always asks the model for the structured summary. Output that
// does not parse or fails the schema yields an empty Summary, leaving the
// message built from the session in place.
func (a *LLM) summarize(ctx context.Context, messages []llm.Message, session *tools.Session) Summary {
	convo := make([]llm.Message, len(messages), len(messages)+1)
	copy(convo, messages)
	convo = append(convo, llm.Message{Role: llm.RoleUser, Content: prompts.MustGet(promptFile, "agent-summary")})

	reply, err := a.model.Chat(ctx, llm.ChatRequest{Messages: convo, Tier: llm.TierLite, JSON: true})
	if err != nil {
		a.logger.Warn("summary completion failed", zap.Error(err))
		return Summary{}
	}

	raw := llm.CleanJSONBlock(reply.Content)
	if err := schemas.Validate(schemas.AgentSummary, []byte(raw)); err != nil {
		a.logger.Warn("summary rejected", zap.Error(err))
		return Summary{}
	}
	summary, ok := llm.ParseOrDefault(raw, Summary{})
	if !ok {
		return Summary{}
	}

	if summary.RecommendedCandidateID != "" && !session.IsConfirmed(parseID(summary.RecommendedCandidateID)) {
		a.logger.Warn("summary recommended an unconfirmed candidate", zap.String("id", summary.RecommendedCandidateID))
		summary.RecommendedCandidateID = ""
	}
	return summary
}

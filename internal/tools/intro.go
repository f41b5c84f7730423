package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/types"
)

// maxDraftSkills caps how many sender skills are listed in a draft body.
const maxDraftSkills = 5

// ConfirmedRecipient is a draft target that was returned by a match in the
// current turn or approved through a ticket. Only a Session can mint a
// non-zero value.
type ConfirmedRecipient struct {
	id uuid.UUID
}

// ID returns the confirmed recipient id.
func (r ConfirmedRecipient) ID() uuid.UUID {
	return r.id
}

// IntroDrafter builds introduction drafts from stored user and project data.
// It never sends anything.
type IntroDrafter struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewIntroDrafter creates an IntroDrafter. A nil clock uses time.Now.
func NewIntroDrafter(store Store, now func() time.Time, logger *zap.Logger) *IntroDrafter {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntroDrafter{store: store, now: now, logger: logger}
}

// Draft produces an introduction from in.FromUserID to the confirmed
// recipient. in.ToUserID must equal recipient.ID().
func (d *IntroDrafter) Draft(ctx context.Context, in types.DraftInput, recipient ConfirmedRecipient) (*types.IntroDraft, error) {
	if recipient.id == uuid.Nil || recipient.id != in.ToUserID {
		return nil, &GuardViolation{RecipientID: in.ToUserID}
	}
	in.CustomNote = strings.TrimSpace(in.CustomNote)
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}
	if in.FromUserID == in.ToUserID {
		return nil, &InputError{Field: "toUserId", Message: "cannot introduce a user to themselves"}
	}

	sender, err := d.store.FindUser(ctx, in.FromUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}
	if sender == nil {
		return nil, &NotFoundError{Resource: "user", ID: in.FromUserID}
	}

	target, err := d.store.FindUser(ctx, in.ToUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if target == nil {
		return nil, &NotFoundError{Resource: "user", ID: in.ToUserID}
	}

	var project *types.ProjectSummary
	if in.ProjectID != nil {
		project, err = d.store.FindProject(ctx, *in.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to load project: %w", err)
		}
		if project == nil {
			return nil, &NotFoundError{Resource: "project", ID: *in.ProjectID}
		}
	}

	draft := &types.IntroDraft{
		Subject:       draftSubject(sender, project),
		Body:          draftBody(sender, target, project, in.CustomNote),
		RecipientID:   target.ID,
		RecipientName: target.Name,
		SenderName:    sender.Name,
		GeneratedAt:   d.now().UTC(),
	}
	if project != nil {
		draft.ProjectTitle = project.Title
	}

	d.logger.Debug("drafted introduction",
		zap.String("sender", sender.ID.String()),
		zap.String("recipient", target.ID.String()))
	return draft, nil
}

func draftSubject(sender *types.UserSummary, project *types.ProjectSummary) string {
	if project != nil {
		return fmt.Sprintf("%s would like to connect about %s", sender.Name, project.Title)
	}
	return fmt.Sprintf("%s would like to connect", sender.Name)
}

func draftBody(sender, target *types.UserSummary, project *types.ProjectSummary, note string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", firstName(target.Name))
	fmt.Fprintf(&b, "I'm %s", sender.Name)
	if len(sender.Skills) > 0 {
		listed := sender.Skills
		if len(listed) > maxDraftSkills {
			listed = listed[:maxDraftSkills]
		}
		fmt.Fprintf(&b, " and I work with %s", strings.Join(listed, ", "))
	}
	b.WriteString(".")
	if bio := strings.TrimSpace(sender.Bio); bio != "" {
		b.WriteString(" ")
		b.WriteString(bio)
	}
	b.WriteString("\n\n")

	if project != nil {
		fmt.Fprintf(&b, "I'm working on %s", project.Title)
		if desc := strings.TrimSpace(project.Description); desc != "" {
			fmt.Fprintf(&b, ": %s", desc)
		}
		b.WriteString("\n\n")
	}

	if len(target.Skills) > 0 {
		fmt.Fprintf(&b, "Your experience with %s caught my attention and I think we could work well together.\n\n", strings.Join(target.Skills, ", "))
	} else {
		b.WriteString("I think we could work well together.\n\n")
	}

	if note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}

	b.WriteString("Would you be open to a quick chat?\n\n")
	fmt.Fprintf(&b, "Best,\n%s", sender.Name)
	return b.String()
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

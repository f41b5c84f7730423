package tools

import (
	"github.com/jonathan/skill-matcher/internal/types"
)

// Kind identifies one of the agent tools.
type Kind string

// The closed set of tools.
const (
	KindFindMatches Kind = "find_matches"
	KindDraftIntro  Kind = "draft_intro"
)

// Kinds returns every tool kind in dispatch-table order.
func Kinds() []Kind {
	return []Kind{KindFindMatches, KindDraftIntro}
}

// ParseKind maps a tool name to its Kind.
func ParseKind(name string) (Kind, bool) {
	switch Kind(name) {
	case KindFindMatches, KindDraftIntro:
		return Kind(name), true
	default:
		return "", false
	}
}

// Call is a request to run one tool. It is implemented only by
// FindMatchesCall and DraftIntroCall.
type Call interface {
	Kind() Kind
	input() any
}

// FindMatchesCall asks for ranked candidates.
type FindMatchesCall struct {
	Input types.MatchInput
}

// Kind implements Call.
func (FindMatchesCall) Kind() Kind { return KindFindMatches }

func (c FindMatchesCall) input() any { return c.Input }

// DraftIntroCall asks for an introduction draft to a confirmed candidate.
type DraftIntroCall struct {
	Input types.DraftInput
}

// Kind implements Call.
func (DraftIntroCall) Kind() Kind { return KindDraftIntro }

func (c DraftIntroCall) input() any { return c.Input }

// Result is the outcome of one dispatch. Exactly one of Matches, Draft and
// Err is set.
type Result struct {
	Kind    Kind
	Matches *types.MatchOutput
	Draft   *types.IntroDraft
	Err     error
}

// OK reports whether the dispatch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Output returns the success payload, or nil on failure.
func (r Result) Output() any {
	switch {
	case r.Matches != nil:
		return r.Matches
	case r.Draft != nil:
		return r.Draft
	default:
		return nil
	}
}

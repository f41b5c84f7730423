package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/ranking"
	"github.com/jonathan/skill-matcher/internal/types"
)

// MatchTool finds candidates for a skill query in two stages: a bounded
// overlap pre-filter in storage, then cosine ranking of that pool.
type MatchTool struct {
	store     Store
	binary    ranking.Ranker
	embedding ranking.Ranker
	logger    *zap.Logger
}

// NewMatchTool creates a MatchTool. embedding may be nil when no embedding
// provider is configured; requests asking for embeddings then use the binary
// ranker.
func NewMatchTool(store Store, embedding ranking.Ranker, logger *zap.Logger) *MatchTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchTool{
		store:     store,
		binary:    ranking.BinaryRanker{},
		embedding: embedding,
		logger:    logger,
	}
}

// EmbeddingsEnabled reports whether an embedding ranker is configured.
func (t *MatchTool) EmbeddingsEnabled() bool {
	return t.embedding != nil
}

// Run executes the matching tool.
func (t *MatchTool) Run(ctx context.Context, in types.MatchInput) (*types.MatchOutput, error) {
	in, err := normalizeMatchInput(in)
	if err != nil {
		return nil, err
	}

	ranker := t.binary
	if in.UseEmbeddings && t.embedding != nil {
		ranker = t.embedding
	}

	out := &types.MatchOutput{
		Matches:        []types.ScoredMatch{},
		SearchedSkills: in.Skills,
		Algorithm:      ranker.Algorithm(),
	}

	pool := min(in.Limit*types.CandidatePoolRatio, types.MaxCandidatePool)
	candidates, err := t.store.FindCandidates(ctx, types.CandidateFilter{
		Skills:        in.Skills,
		Availability:  in.AvailabilityFilter,
		ExcludeUserID: in.ExcludeUserID,
		Limit:         pool,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	out.CandidatesScanned = len(candidates)
	if len(candidates) == 0 {
		t.logger.Debug("no overlapping candidates", zap.Strings("skills", in.Skills))
		return out, nil
	}

	opts := ranker.DefaultOptions()
	opts.TopN = in.Limit
	matches, err := ranker.Rank(ctx, in.Skills, candidates, opts)
	if err != nil {
		return nil, &UpstreamError{Message: "ranking candidates with " + ranker.Algorithm(), Cause: err}
	}

	out.Matches = matches
	out.TotalFound = len(matches)

	t.logger.Debug("matched candidates",
		zap.String("algorithm", out.Algorithm),
		zap.Int("scanned", out.CandidatesScanned),
		zap.Int("found", out.TotalFound))
	return out, nil
}

// normalizeMatchInput trims skills, drops blanks, applies the default limit
// and validates the result.
func normalizeMatchInput(in types.MatchInput) (types.MatchInput, error) {
	cleaned := make([]string, 0, len(in.Skills))
	for _, s := range in.Skills {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	in.Skills = cleaned

	if len(in.Skills) == 0 {
		return in, &InputError{Field: "skills", Message: "at least one skill is required"}
	}
	if len(in.Skills) > types.MaxQuerySkills {
		return in, &InputError{Field: "skills", Message: fmt.Sprintf("at most %d skills are allowed, got %d", types.MaxQuerySkills, len(in.Skills))}
	}
	if in.Limit == 0 {
		in.Limit = types.DefaultMatchLimit
	}

	if err := in.Validate(); err != nil {
		return in, validationError(err)
	}
	return in, nil
}

// validationError converts validator output to an InputError naming the
// first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InputError{
			Field:   lowerFirst(fe.Field()),
			Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &InputError{Message: err.Error()}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

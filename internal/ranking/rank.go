// Package ranking scores candidate profiles against a set of requested skills
// using cosine similarity over binary skill vectors or text embeddings.
package ranking

import (
	"context"
	"sort"

	"github.com/jonathan/skill-matcher/internal/skills"
	"github.com/jonathan/skill-matcher/internal/types"
)

// Options controls filtering and truncation of a ranking.
type Options struct {
	TopN     int     // maximum number of results; non-positive means DefaultTopN
	MinScore float64 // results with similarity below this are dropped
}

// Ranking defaults.
const (
	DefaultTopN              = 3
	DefaultMinScore          = 0.1
	DefaultEmbeddingMinScore = 0.3
)

// DefaultOptions returns the options used for binary ranking.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, MinScore: DefaultMinScore}
}

// Ranker orders candidates by similarity to a skill query.
type Ranker interface {
	// Algorithm names the similarity method, reported in match output.
	Algorithm() string
	// DefaultOptions returns the options appropriate for this ranker.
	DefaultOptions() Options
	Rank(ctx context.Context, query []string, candidates []types.CandidateProfile, opts Options) ([]types.ScoredMatch, error)
}

// Rank scores candidates against querySkills with binary cosine similarity
// over a vocabulary built from the query and every candidate.
//
// Results are sorted by similarity, then matched-skill count, then total
// skill count, all descending; ties keep input order. The MinScore filter is
// applied before the similarity is rounded for display.
func Rank(querySkills []string, candidates []types.CandidateProfile, opts Options) []types.ScoredMatch {
	if len(querySkills) == 0 || len(candidates) == 0 {
		return []types.ScoredMatch{}
	}

	sets := make([][]string, 0, len(candidates)+1)
	sets = append(sets, querySkills)
	for _, c := range candidates {
		sets = append(sets, c.Skills)
	}
	vocab := skills.BuildVocabulary(sets)
	queryVec := skills.Encode(querySkills, vocab)

	sims := make([]float64, len(candidates))
	for i, c := range candidates {
		sims[i] = Cosine(queryVec, skills.Encode(c.Skills, vocab))
	}
	return order(querySkills, candidates, sims, opts)
}

// BinaryRanker is the Ranker backed by Rank.
type BinaryRanker struct{}

// Algorithm implements Ranker.
func (BinaryRanker) Algorithm() string { return types.AlgorithmBinary }

// DefaultOptions implements Ranker.
func (BinaryRanker) DefaultOptions() Options { return DefaultOptions() }

// Rank implements Ranker. It never fails.
func (BinaryRanker) Rank(_ context.Context, query []string, candidates []types.CandidateProfile, opts Options) ([]types.ScoredMatch, error) {
	return Rank(query, candidates, opts), nil
}

type scored struct {
	match types.ScoredMatch
	sim   float64
}

// order builds matches from per-candidate similarities, then filters, sorts
// and truncates them.
func order(querySkills []string, candidates []types.CandidateProfile, sims []float64, opts Options) []types.ScoredMatch {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	querySet := skills.NormalizeSet(querySkills)

	kept := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if sims[i] < opts.MinScore {
			continue
		}
		matched := matchedSkills(c.Skills, querySet)
		kept = append(kept, scored{
			sim: sims[i],
			match: types.ScoredMatch{
				CandidateProfile: c,
				MatchedSkills:    matched,
				MatchScore:       len(matched),
				TotalSkills:      len(c.Skills),
			},
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.sim != b.sim {
			return a.sim > b.sim
		}
		if a.match.MatchScore != b.match.MatchScore {
			return a.match.MatchScore > b.match.MatchScore
		}
		return a.match.TotalSkills > b.match.TotalSkills
	})

	if len(kept) > topN {
		kept = kept[:topN]
	}

	out := make([]types.ScoredMatch, len(kept))
	for i, s := range kept {
		s.match.CosineSimilarity = roundScore(s.sim)
		out[i] = s.match
	}
	return out
}

// matchedSkills returns the candidate's own skill strings, casing preserved,
// whose normalized form is in querySet.
func matchedSkills(candidateSkills []string, querySet map[string]struct{}) []string {
	matched := make([]string, 0, len(candidateSkills))
	for _, s := range candidateSkills {
		if _, ok := querySet[skills.Normalize(s)]; ok {
			matched = append(matched, s)
		}
	}
	return matched
}

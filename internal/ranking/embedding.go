package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/embeddings"
	"github.com/jonathan/skill-matcher/internal/types"
)

// EmbeddingRanker ranks candidates by cosine similarity of text embeddings of
// their skill lists. Vectors are cached by CanonicalKey.
type EmbeddingRanker struct {
	provider    embeddings.Provider
	cache       *embeddings.Cache
	concurrency int
	logger      *zap.Logger
}

// NewEmbeddingRanker creates an EmbeddingRanker. A nil cache disables caching
// and a nil logger is replaced with a no-op logger.
func NewEmbeddingRanker(provider embeddings.Provider, cache *embeddings.Cache, logger *zap.Logger) *EmbeddingRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingRanker{
		provider:    provider,
		cache:       cache,
		concurrency: embeddings.DefaultConcurrency,
		logger:      logger,
	}
}

// WithConcurrency sets the bound on in-flight provider calls per ranking.
// Non-positive values keep the current bound.
func (r *EmbeddingRanker) WithConcurrency(n int) *EmbeddingRanker {
	if n > 0 {
		r.concurrency = n
	}
	return r
}

// Algorithm implements Ranker.
func (r *EmbeddingRanker) Algorithm() string { return types.AlgorithmEmbedding }

// DefaultOptions implements Ranker.
func (r *EmbeddingRanker) DefaultOptions() Options {
	return Options{TopN: DefaultTopN, MinScore: DefaultEmbeddingMinScore}
}

// Rank implements Ranker. Any provider failure is returned; no candidate is
// scored against a placeholder vector. Negative similarities count as 0.
func (r *EmbeddingRanker) Rank(ctx context.Context, query []string, candidates []types.CandidateProfile, opts Options) ([]types.ScoredMatch, error) {
	if len(query) == 0 || len(candidates) == 0 {
		return []types.ScoredMatch{}, nil
	}

	lists := make([][]string, 0, len(candidates)+1)
	lists = append(lists, query)
	for _, c := range candidates {
		lists = append(lists, c.Skills)
	}

	vecs, err := r.vectors(ctx, lists)
	if err != nil {
		return nil, err
	}

	queryVec := vecs[0]
	sims := make([]float64, len(candidates))
	for i := range candidates {
		v := vecs[i+1]
		if v == nil {
			continue
		}
		if len(v) != len(queryVec) {
			return nil, &embeddings.DimensionError{Model: r.provider.ModelID(), Expected: len(queryVec), Got: len(v)}
		}
		if sim := Cosine32(queryVec, v); sim > 0 {
			sims[i] = sim
		}
	}
	return order(query, candidates, sims, opts), nil
}

// vectors returns one embedding per skill list, index-aligned. Lists with no
// usable skills get a nil vector. Cache misses are embedded as one bounded
// batch, each distinct key once.
func (r *EmbeddingRanker) vectors(ctx context.Context, lists [][]string) ([][]float32, error) {
	out := make([][]float32, len(lists))
	keys := make([]string, len(lists))

	var missing []string
	pending := make(map[string]bool)
	for i, l := range lists {
		key := CanonicalKey(l)
		keys[i] = key
		if key == "" {
			continue
		}
		if r.cache != nil {
			if v, ok := r.cache.Get(key); ok {
				out[i] = v
				continue
			}
		}
		if !pending[key] {
			pending[key] = true
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		r.logger.Debug("embedding skill sets",
			zap.String("model", r.provider.ModelID()),
			zap.Int("misses", len(missing)),
			zap.Int("lists", len(lists)))

		texts := make([]string, len(missing))
		for i, key := range missing {
			texts[i] = embeddingText(key)
		}
		vecs, err := embeddings.EmbedBatch(ctx, r.provider, texts, r.concurrency)
		if err != nil {
			return nil, fmt.Errorf("embedding skill sets: %w", err)
		}

		fresh := make(map[string][]float32, len(missing))
		for i, key := range missing {
			fresh[key] = vecs[i]
			if r.cache != nil {
				r.cache.Put(key, vecs[i])
			}
		}
		for i, key := range keys {
			if out[i] == nil && key != "" {
				out[i] = fresh[key]
			}
		}
	}

	if out[0] == nil {
		return nil, fmt.Errorf("query has no embeddable skills")
	}
	return out, nil
}

// CanonicalKey returns the cache key for a skill list: entries trimmed,
// lowercased, de-duplicated, sorted and joined with "|". Lists that differ
// only in order, casing or surrounding whitespace share a key.
func CanonicalKey(skillList []string) string {
	seen := make(map[string]bool, len(skillList))
	parts := make([]string, 0, len(skillList))
	for _, s := range skillList {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		parts = append(parts, s)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// embeddingText is the text sent to the provider for a canonical key.
func embeddingText(key string) string {
	return strings.ReplaceAll(key, "|", ", ")
}

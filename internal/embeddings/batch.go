package embeddings

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight provider calls per batch.
const DefaultConcurrency = 5

// EmbedBatch embeds every text with at most concurrency calls in flight.
// The result is index-aligned with texts. The first error cancels the
// remaining calls and is returned.
func EmbedBatch(ctx context.Context, p Provider, texts []string, concurrency int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := p.Embed(gctx, text)
			if err != nil {
				return err
			}
			out[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

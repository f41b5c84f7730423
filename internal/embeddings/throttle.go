package embeddings

import (
	"context"

	"golang.org/x/time/rate"
)

type throttledProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// Throttled wraps p so that at most rps Embed calls start per second, with
// bursts of up to burst calls. Callers block until a token is available or
// ctx is done.
func Throttled(p Provider, rps float64, burst int) Provider {
	if burst < 1 {
		burst = 1
	}
	return &throttledProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *throttledProvider) ModelID() string { return t.inner.ModelID() }

func (t *throttledProvider) Dim() int { return t.inner.Dim() }

func (t *throttledProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Embed(ctx, text)
}

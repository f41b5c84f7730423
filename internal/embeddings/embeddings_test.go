package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	failOn   string
}

func (f *fakeProvider) ModelID() string { return "fake:test" }
func (f *fakeProvider) Dim() int        { return 2 }

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if text == f.failOn {
		return nil, &ProviderError{Model: f.ModelID(), Message: "boom"}
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCache_FIFOEvictsOldestInserted(t *testing.T) {
	c, err := NewCache(2, PolicyFIFO)
	require.NoError(t, err)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	_, ok := c.Get("a") // reads do not refresh under fifo
	require.True(t, ok)
	c.Put("c", []float32{3})

	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache(2, PolicyLRU)
	require.NoError(t, err)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Put("c", []float32{3})

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCache_ReplaceDoesNotGrow(t *testing.T) {
	c, err := NewCache(2, "")
	require.NoError(t, err)

	c.Put("a", []float32{1})
	c.Put("a", []float32{9})
	assert.Equal(t, 1, c.Len())

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{9}, v)
}

func TestCache_Stats(t *testing.T) {
	c, err := NewCache(0, PolicyFIFO)
	require.NoError(t, err)

	c.Put("a", []float32{1})
	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestNewCache_UnknownPolicy(t *testing.T) {
	_, err := NewCache(10, "random")
	assert.Error(t, err)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, err := NewCache(50, PolicyLRU)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("k%d", (i*j)%80)
				c.Put(key, []float32{float32(j)})
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	p := &fakeProvider{delay: time.Millisecond}
	texts := []string{"a", "bbb", "cc", "dddd", "e"}

	vecs, err := EmbedBatch(context.Background(), p, texts, 3)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vecs[i][0])
	}
}

func TestEmbedBatch_BoundsConcurrency(t *testing.T) {
	p := &fakeProvider{delay: 10 * time.Millisecond}
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}

	_, err := EmbedBatch(context.Background(), p, texts, 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.peak.Load(), int32(4))
	assert.Len(t, p.calls, 20)
}

func TestEmbedBatch_PropagatesError(t *testing.T) {
	p := &fakeProvider{failOn: "bad"}

	_, err := EmbedBatch(context.Background(), p, []string{"ok", "bad", "fine"}, 2)
	require.Error(t, err)

	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestEmbedBatch_Empty(t *testing.T) {
	vecs, err := EmbedBatch(context.Background(), &fakeProvider{}, nil, 5)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestThrottled_DelegatesAndRespectsContext(t *testing.T) {
	inner := &fakeProvider{}
	p := Throttled(inner, 1, 1)

	assert.Equal(t, inner.ModelID(), p.ModelID())
	assert.Equal(t, inner.Dim(), p.Dim())

	_, err := p.Embed(context.Background(), "first")
	require.NoError(t, err)

	// The bucket is now empty; a cancelled context must not wait a full second.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Embed(ctx, "second")
	assert.Error(t, err)
	assert.Len(t, inner.calls, 1)
}

func TestOpenAI_Embed(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25,-1]}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(&Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "custom-model"})
	vec, err := p.Embed(context.Background(), "go, react")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.25, -1}, vec)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "custom-model", gotBody["model"])
	assert.Equal(t, "go, react", gotBody["input"])
	assert.Equal(t, "openai:custom-model", p.ModelID())
}

func TestOpenAI_DefaultModelHasDimension(t *testing.T) {
	p := NewOpenAI(&Config{APIKey: "k"})
	assert.Equal(t, DefaultOpenAIDim, p.Dim())
	assert.Equal(t, "openai:"+DefaultOpenAIModel, p.ModelID())
}

func TestOpenAI_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(&Config{APIKey: "k", BaseURL: srv.URL, Dim: 3})
	_, err := p.Embed(context.Background(), "go")

	var derr *DimensionError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 3, derr.Expected)
	assert.Equal(t, 2, derr.Got)
}

func TestOpenAI_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAI(&Config{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Embed(context.Background(), "go")

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Message, "HTTP 429")
}

func TestOpenAI_RejectsMissingKeyAndEmptyText(t *testing.T) {
	_, err := NewOpenAI(&Config{}).Embed(context.Background(), "go")
	assert.Error(t, err)

	_, err = NewOpenAI(&Config{APIKey: "k"}).Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewFromConfig(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := &Config{}
		assert.False(t, cfg.Enabled())
		_, err := NewFromConfig(context.Background(), cfg)
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewFromConfig(context.Background(), &Config{Provider: "cohere"})
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("openai", func(t *testing.T) {
		p, err := NewFromConfig(context.Background(), &Config{Provider: "OpenAI", APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "openai:"+DefaultOpenAIModel, p.ModelID())
	})

	t.Run("throttled when rps set", func(t *testing.T) {
		p, err := NewFromConfig(context.Background(), &Config{Provider: "openai", APIKey: "k", RPS: 5})
		require.NoError(t, err)
		_, ok := p.(*throttledProvider)
		assert.True(t, ok)
	})

	t.Run("gemini requires key", func(t *testing.T) {
		_, err := NewFromConfig(context.Background(), &Config{Provider: "gemini"})
		assert.Error(t, err)
	})
}

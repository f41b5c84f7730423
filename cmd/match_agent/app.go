package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/agent"
	"github.com/jonathan/skill-matcher/internal/approval"
	"github.com/jonathan/skill-matcher/internal/config"
	"github.com/jonathan/skill-matcher/internal/db"
	"github.com/jonathan/skill-matcher/internal/directory"
	"github.com/jonathan/skill-matcher/internal/embeddings"
	"github.com/jonathan/skill-matcher/internal/llm"
	"github.com/jonathan/skill-matcher/internal/logger"
	"github.com/jonathan/skill-matcher/internal/ranking"
	"github.com/jonathan/skill-matcher/internal/tools"
)

// application holds the components shared by the commands.
type application struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   tools.Store
	toolset *tools.Toolset
	rules   *agent.Bounded
	llm     agent.Agent // nil when no LLM API key is configured
	closers []func()
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApplication wires storage, rankers, tools and agents from cfg.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a := &application{cfg: cfg, logger: log}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	embedding, err := newEmbeddingRanker(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var issuer *approval.Issuer
	if cfg.Approval.Secret != "" {
		issuer, err = approval.NewIssuer(cfg.ApprovalConfig())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create approval issuer: %w", err)
		}
	} else {
		log.Warn("approval.secret is not set; approval tickets are disabled")
	}

	a.toolset = &tools.Toolset{
		Match:    tools.NewMatchTool(a.store, embedding, log),
		Drafter:  tools.NewIntroDrafter(a.store, time.Now, log),
		MaxCalls: cfg.Tools.MaxCalls,
		Logger:   log,
		Now:      time.Now,
	}
	a.rules = agent.NewBounded(a.toolset, issuer, log)

	if cfg.LLM.APIKey != "" {
		llmCfg := cfg.LLMConfig()
		client, err := llm.NewClient(ctx, llmCfg, cfg.LLM.APIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.llm = agent.NewLLM(client, a.toolset, issuer, log)
		log.Info("llm agent enabled", logger.CommonFields(string(llmCfg.Provider), llmCfg.GetModel(llm.TierStandard))...)
	}

	return a, nil
}

// openStore connects to PostgreSQL or loads the directory file.
func (a *application) openStore(ctx context.Context) error {
	if err := a.cfg.RequireStore(); err != nil {
		return err
	}

	if a.cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		a.store = database
		a.logger.Info("using postgres store")
		return nil
	}

	dir, err := directory.Load(a.cfg.DirectoryFile)
	if err != nil {
		return err
	}
	a.store = dir
	a.logger.Info("using directory store",
		zap.String("file", a.cfg.DirectoryFile),
		zap.Int("users", len(dir.Users())))
	return nil
}

// newEmbeddingRanker returns nil when no embeddings provider is configured.
func newEmbeddingRanker(ctx context.Context, cfg *config.Config, log *zap.Logger) (ranking.Ranker, error) {
	ecfg := cfg.EmbeddingsConfig()
	if !ecfg.Enabled() {
		return nil, nil
	}

	provider, err := embeddings.NewFromConfig(ctx, ecfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings provider: %w", err)
	}
	cache, err := embeddings.NewCache(cfg.Embeddings.CacheSize, cfg.Embeddings.CachePolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings cache: %w", err)
	}

	log.Info("embedding ranker enabled",
		zap.String("model", provider.ModelID()),
		zap.Int("cache_size", cfg.Embeddings.CacheSize),
		zap.String("cache_policy", cfg.Embeddings.CachePolicy))
	return ranking.NewEmbeddingRanker(provider, cache, log).WithConcurrency(cfg.Embeddings.Concurrency), nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// parseOptionalUUID parses s, returning nil for an empty string.
func parseOptionalUUID(name, s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return &id, nil
}

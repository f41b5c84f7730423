package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/skill-matcher/internal/config"
	"github.com/jonathan/skill-matcher/internal/server"
	"github.com/jonathan/skill-matcher/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes POST /match, POST /agent/turn and GET /health.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", config.DefaultPort, "Port to listen on")
	serveCmd.Flags().Bool("rate-limit", true, "Enable per-client rate limiting")
	mustBind("server.port", serveCmd.Flags().Lookup("port"))
	mustBind("server.rate-limit.enabled", serveCmd.Flags().Lookup("rate-limit"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireApproval(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(serverConfig(cfg), server.Deps{
		Match: a.toolset.Match,
		Rules: a.rules,
		LLM:   a.llm,
	}, a.logger)

	a.logger.Info("starting match_agent",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("embeddings", a.toolset.Match.EmbeddingsEnabled()),
		zap.Bool("llm", a.llm != nil))
	return srv.Start(ctx)
}

// serverConfig converts the server section for server.New.
func serverConfig(cfg *config.Config) server.Config {
	out := server.Config{
		Port:       cfg.Server.Port,
		CORSOrigin: cfg.Server.CORSOrigin,
	}
	rl := cfg.Server.RateLimit
	if rl.Enabled {
		out.RateLimit = ratelimit.NewConfig(true, rl.RPS, rl.Burst, rl.Whitelist, rl.Blacklist)
	}
	return out
}

// contextOrBackground returns cmd's context, which is nil when a command is
// executed without ExecuteContext.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

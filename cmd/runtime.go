package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/config"
	"github.com/sertugser/assessai/internal/feedback"
	"github.com/sertugser/assessai/internal/llm"
	"github.com/sertugser/assessai/internal/logger"
	"github.com/sertugser/assessai/internal/metrics"
	"github.com/sertugser/assessai/internal/store"
)

type runtimeOptions struct {
	// quietConsole keeps logs off the terminal; used by the TUI.
	quietConsole bool
}

// runtime is what most commands need: config, logger, the open store and
// the activity registry.
type runtime struct {
	cfg        *config.Config
	log        *logger.Logger
	store      *store.Store
	activities *activity.Registry
	user       string
}

func openRuntime(cmd *cobra.Command, opts runtimeOptions) (*runtime, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{File: cfgFile, Paths: config.DefaultPaths()})
	if err != nil {
		return nil, err
	}

	logOpts := logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File}
	if opts.quietConsole {
		logOpts.Writer = io.Discard
	}
	log := logger.New(logOpts)

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Debug("database opened", "path", dbPath)

	return &runtime{
		cfg:        cfg,
		log:        log,
		store:      st,
		activities: activity.NewRegistry(st.KV(), activity.WithLogger(log)),
		user:       resolveUser(cmd, cfg),
	}, nil
}

func (rt *runtime) Close() {
	_ = rt.store.Close()
	rt.log.Sync()
}

// provider builds the LLM provider from config and environment. It returns
// nil when none is configured, which makes feedback use its fallbacks.
func (rt *runtime) provider(ctx context.Context, m *metrics.Metrics) llm.Provider {
	llmCfg, err := llm.ResolveConfig(rt.cfg.LLM.Provider, rt.cfg.LLM.Model)
	if err != nil {
		rt.log.Warn("LLM provider not configured; AI feedback will use fallbacks", "error", err)
		return nil
	}

	opts := []llm.LoggingOption{llm.WithLogger(rt.log)}
	if m != nil {
		opts = append(opts, llm.WithObserver(m.ObserveLLM))
	}
	p, err := llm.NewProvider(ctx, llmCfg, rt.store.EventRepo(), opts...)
	if err != nil {
		rt.log.Warn("LLM provider failed to initialize", "provider", llmCfg.Provider, "error", err)
		return nil
	}
	rt.log.Info("LLM provider ready", "provider", llmCfg.Provider, "model", p.ModelID())
	return p
}

func (rt *runtime) feedback(ctx context.Context, m *metrics.Metrics) *feedback.Service {
	return rt.feedbackWith(rt.provider(ctx, m))
}

func (rt *runtime) feedbackWith(p llm.Provider) *feedback.Service {
	fbCfg := feedback.DefaultConfig()
	fbCfg.AnalysisTTL = rt.cfg.Feedback.AnalysisTTL
	fbCfg.RecommendationTTL = rt.cfg.Feedback.RecommendationTTL
	return feedback.New(p, rt.store.KV(), feedback.WithLogger(rt.log), feedback.WithConfig(fbCfg))
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (ASSESSAI_DB or the config file), then the default
// XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// resolveUser returns --user, then the configured user, then the default.
func resolveUser(cmd *cobra.Command, cfg *config.Config) string {
	if u, _ := cmd.Flags().GetString("user"); strings.TrimSpace(u) != "" {
		return strings.TrimSpace(u)
	}
	if cfg != nil && strings.TrimSpace(cfg.User) != "" {
		return strings.TrimSpace(cfg.User)
	}
	return activity.DefaultUser
}

// openStore opens just the database, for commands that only read the LLM log.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{File: cfgFile, Paths: config.DefaultPaths()})
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/cfpqc/internal/cache"
	"github.com/ppiankov/cfpqc/internal/lexicon"
	"github.com/ppiankov/cfpqc/internal/llm"
	"github.com/ppiankov/cfpqc/internal/logger"
	"github.com/ppiankov/cfpqc/internal/model"
	"github.com/ppiankov/cfpqc/internal/pipeline"
	"github.com/ppiankov/cfpqc/internal/storage"
	"github.com/spf13/cobra"
)

// pipelineFlags are the switches shared by validate, rank and batch
type pipelineFlags struct {
	today   string
	review  bool
	store   bool
	noCache bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.today, "today", "", "evaluate as of this date (YYYY-MM-DD, default: now)")
	cmd.Flags().BoolVar(&f.review, "review", false, "resolve tone rules with the configured LLM")
	cmd.Flags().BoolVar(&f.store, "store", false, "save results to PostgreSQL (storage.dsn)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
}

// app holds the components a command needs. close releases them.
type app struct {
	cfg     *model.Config
	log     *logger.Logger
	lex     *lexicon.Lexicon
	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	lex, err := loadLexicon(cfg.Lexicon.Path)
	if err != nil {
		log.Sync()
		return nil, err
	}

	return &app{cfg: cfg, log: log, lex: lex}, nil
}

func loadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.Default()
	}
	return lexicon.LoadFile(path)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.log.Sync()
}

// pipeline assembles the evaluation pipeline for the given switches
func (a *app) pipeline(ctx context.Context, f pipelineFlags) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithLogger(a.log)}

	if f.today != "" {
		today, err := time.ParseInLocation("2006-01-02", f.today, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --today %q (want YYYY-MM-DD): %w", f.today, err)
		}
		opts = append(opts, pipeline.WithClock(func() time.Time { return today }))
	}

	if a.cfg.Cache.Enabled && !f.noCache {
		c, err := a.cache(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithCache(c, a.cfg.Cache.TTL))
	}

	if f.store {
		if a.cfg.Storage.DSN == "" {
			return nil, errors.New("--store needs storage.dsn (or CFPQC_STORAGE_DSN)")
		}
		store, err := storage.Open(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithStore(store))
	}

	if f.review {
		reviewer, err := a.reviewer()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithReviewer(reviewer, llm.ApplyReview))
	}

	return pipeline.New(a.cfg, a.lex, opts...), nil
}

func (a *app) cache(ctx context.Context) (cache.Cache, error) {
	cfg := a.cfg.Cache
	memory := cache.NewMemoryCache(cfg.TTL, 10*time.Minute)

	if cfg.RedisAddr != "" {
		redisCache, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.TTL)
		if err != nil {
			a.log.Warn("redis unavailable, using memory cache only", "addr", cfg.RedisAddr, "error", err)
			return memory, nil
		}
		a.closers = append(a.closers, redisCache.Close)
		return cache.NewLayered(memory, redisCache), nil
	}

	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return memory, nil
		}
		dir = filepath.Join(home, ".cfpqc", "cache")
	}
	return cache.NewLayered(memory, cache.NewDiskCache(dir, cfg.TTL)), nil
}

func (a *app) reviewer() (*llm.ToneReviewer, error) {
	gen, err := llm.NewGenerator(llm.ConfigFromModel(a.cfg.LLM))
	if errors.Is(err, llm.ErrNoGenerator) {
		return nil, errors.New("--review needs llm.provider (openai, anthropic or gemini)")
	}
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	modelName := ""
	if m, ok := gen.(interface{ Model() string }); ok {
		modelName = m.Model()
	}

	return llm.NewToneReviewer(gen, modelName, a.log)
}

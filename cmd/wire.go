package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/coaching"
	"github.com/abhisek/mockprep/internal/config"
	"github.com/abhisek/mockprep/internal/evaluation"
	"github.com/abhisek/mockprep/internal/interview"
	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/lock"
	"github.com/abhisek/mockprep/internal/logging"
	"github.com/abhisek/mockprep/internal/questiongen"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/transcribe"
)

// runtime holds the wired application for one command invocation.
type runtime struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       *store.Store
	provider    llm.Provider
	interviews  *interview.Service
	architect   *questiongen.RoleArchitect
	transcriber interview.Transcriber
	closers     []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
	_ = r.logger.Sync()
}

// buildRuntime loads configuration and wires store, LLM provider,
// generators and the session lock into an interview service.
func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger, store: st, closers: []func() error{st.Close}}

	llmCfg := cfg.LLM.LLM()
	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo(), logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	if llmCfg.Provider == "mock" {
		logger.Warn("no LLM provider configured; AI calls will fail until an API key is set")
	}
	rt.provider = provider

	if whisper, err := llm.NewWhisperTranscriber(llmCfg.Transcription); err != nil {
		logger.Info("audio transcription disabled", zap.Error(err))
	} else {
		rt.transcriber = transcribe.NewService(whisper, logger)
	}

	opts := []interview.Option{interview.WithLogger(logger)}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			rt.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		rt.closers = append(rt.closers, client.Close)
		opts = append(opts, interview.WithLocker(lock.NewRedis(client, lock.RedisConfig{
			TTL:    cfg.Redis.LockTTL,
			Wait:   cfg.Redis.LockWait,
			Logger: logger.Named("lock"),
		})))
		logger.Info("using redis session lock", zap.String("addr", cfg.Redis.Addr))
	}

	rt.architect = questiongen.NewRoleArchitect(provider, cfg.Interview.RoleConfig())
	rt.interviews = interview.NewService(interview.Deps{
		Repo:      st.Sessions(),
		Roles:     st.Roles(),
		Questions: questiongen.New(provider, questiongen.DefaultConfig()),
		Evaluator: evaluation.New(provider, evaluation.DefaultConfig()),
		Feedback:  coaching.NewFeedbackService(provider, coaching.DefaultConfig()),
		Narrator:  coaching.NewReportNarrator(provider, coaching.DefaultReportConfig()),
	}, opts...)

	logger.Debug("runtime ready",
		zap.String("llm_provider", llmCfg.Provider),
		zap.String("model", provider.ModelID()),
		zap.String("database", cfg.Database.Driver))
	return rt, nil
}

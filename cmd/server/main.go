package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-study/internal/api"
	"github.com/p-n-ai/pai-study/internal/curriculum"
	"github.com/p-n-ai/pai-study/internal/mastery"
	"github.com/p-n-ai/pai-study/internal/platform/cache"
	"github.com/p-n-ai/pai-study/internal/platform/config"
	"github.com/p-n-ai/pai-study/internal/platform/database"
	"github.com/p-n-ai/pai-study/internal/store"
	"github.com/p-n-ai/pai-study/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		slog.Error("failed to load tuning", "path", cfg.TuningPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	be, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer be.close()

	catalog, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		slog.Error("failed to load curriculum", "path", cfg.CurriculumPath, "error", err)
		os.Exit(1)
	}

	svcCfg := serviceConfig(tuning)
	svcCfg.Catalog = catalog
	svcCfg.Store = be.records
	svcCfg.Events = be.events
	svc, err := study.NewService(svcCfg)
	if err != nil {
		slog.Error("failed to create study service", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewHandler(svc, be.ready).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// serviceConfig maps the tuning file onto service settings. Unset fields
// stay zero so the service falls back to its defaults.
func serviceConfig(t config.Tuning) study.Config {
	var cfg study.Config
	if v := t.Gating.UnlockThreshold; v != nil {
		cfg.UnlockThreshold = *v
	}
	if v := t.Gating.PassThreshold; v != nil {
		cfg.PassThreshold = *v
	}
	if v := t.Grading.BreakdownRatio; v != nil {
		cfg.BreakdownRatio = *v
	}

	s := mastery.DefaultSchedule()
	if v := t.Schedule.AgainMinutes; v != nil {
		s.AgainDelay = time.Duration(*v) * time.Minute
	}
	if v := t.Schedule.FirstIntervalDays; v != nil {
		s.FirstInterval = time.Duration(*v) * 24 * time.Hour
	}
	if v := t.Schedule.MaxIntervalDays; v != nil {
		s.MaxInterval = time.Duration(*v) * 24 * time.Hour
	}
	if v := t.Schedule.Growth; v != nil {
		s.Growth = *v
	}
	cfg.Schedule = s
	return cfg
}

// backend bundles the record store selected by configuration with its
// event log, readiness check and cleanup.
type backend struct {
	records store.RecordStore
	events  study.EventLogger
	ready   api.ReadyFunc
	close   func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return &backend{
			records: store.NewMemoryStore(),
			events:  study.NopEventLogger{},
			close:   func() {},
		}, nil

	case config.BackendSQLite:
		st, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("sqlite store opened", "path", cfg.Store.SQLitePath)
		return &backend{
			records: st,
			events:  study.NopEventLogger{},
			ready:   st.HealthCheck,
			close: func() {
				if err := st.Close(); err != nil {
					slog.Warn("failed to close sqlite store", "error", err)
				}
			},
		}, nil

	case config.BackendPostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		st, err := store.NewPostgresStore(ctx, db.Pool)
		if err != nil {
			db.Close()
			return nil, err
		}
		events := study.NewPostgresEventLogger(db.Pool)
		if err := events.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &backend{records: st, events: events, ready: db.HealthCheck, close: db.Close}, nil

	case config.BackendRedis:
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		st, err := store.NewRedisStore(c.Client)
		if err != nil {
			c.Close()
			return nil, err
		}
		return &backend{
			records: st,
			events:  study.NopEventLogger{},
			ready:   c.HealthCheck,
			close: func() {
				if err := c.Close(); err != nil {
					slog.Warn("failed to close cache", "error", err)
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

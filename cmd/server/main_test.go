package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/p-n-ai/pai-study/internal/platform/config"
)

func TestServiceConfig(t *testing.T) {
	unlock, ratio, again, maxDays, growth := 80, 0.5, 5, 30, 3.0
	cfg := serviceConfig(config.Tuning{
		Gating:  config.GatingTuning{UnlockThreshold: &unlock},
		Grading: config.GradingTuning{BreakdownRatio: &ratio},
		Schedule: config.ScheduleTuning{
			AgainMinutes:    &again,
			MaxIntervalDays: &maxDays,
			Growth:          &growth,
		},
	})

	if cfg.UnlockThreshold != 80 {
		t.Errorf("UnlockThreshold = %d, want 80", cfg.UnlockThreshold)
	}
	if cfg.PassThreshold != 0 {
		t.Errorf("PassThreshold = %d, want 0 (service default)", cfg.PassThreshold)
	}
	if cfg.BreakdownRatio != 0.5 {
		t.Errorf("BreakdownRatio = %g, want 0.5", cfg.BreakdownRatio)
	}
	if cfg.Schedule.AgainDelay != 5*time.Minute {
		t.Errorf("AgainDelay = %v, want 5m", cfg.Schedule.AgainDelay)
	}
	if cfg.Schedule.FirstInterval != 24*time.Hour {
		t.Errorf("FirstInterval = %v, want default 24h", cfg.Schedule.FirstInterval)
	}
	if cfg.Schedule.MaxInterval != 30*24*time.Hour {
		t.Errorf("MaxInterval = %v, want 720h", cfg.Schedule.MaxInterval)
	}
	if cfg.Schedule.Growth != 3 {
		t.Errorf("Growth = %g, want 3", cfg.Schedule.Growth)
	}
}

func TestOpenBackend(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantErr   bool
		wantReady bool
	}{
		{"memory", config.Config{Store: config.StoreConfig{Backend: config.BackendMemory}}, false, false},
		{"sqlite", config.Config{Store: config.StoreConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "p.db")}}, false, true},
		{"unknown", config.Config{Store: config.StoreConfig{Backend: "mongo"}}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := openBackend(context.Background(), &tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer b.close()

			if (b.ready != nil) != tt.wantReady {
				t.Errorf("ready set = %v, want %v", b.ready != nil, tt.wantReady)
			}
			if b.ready != nil {
				if err := b.ready(t.Context()); err != nil {
					t.Errorf("ready() error = %v", err)
				}
			}
			if err := b.records.Set(t.Context(), "k", []byte(`{}`)); err != nil {
				t.Errorf("Set() error = %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		debug bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false},
		{"text debug", config.LogConfig{Level: "debug", Format: "text"}, true},
		{"bad level falls back to info", config.LogConfig{Level: "loud"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLogger(tt.cfg)
			if got := l.Enabled(context.Background(), slog.LevelDebug); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}

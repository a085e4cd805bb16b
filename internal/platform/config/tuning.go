package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Tuning is the optional TOML file that adjusts grading and gating
// thresholds. Unset fields keep the built-in defaults.
type Tuning struct {
	Gating   GatingTuning   `toml:"gating"`
	Grading  GradingTuning  `toml:"grading"`
	Schedule ScheduleTuning `toml:"schedule"`
}

// GatingTuning maps unlock and pass thresholds, in percent.
type GatingTuning struct {
	UnlockThreshold *int `toml:"unlock-threshold"`
	PassThreshold   *int `toml:"pass-threshold"`
}

// GradingTuning maps grader settings.
type GradingTuning struct {
	BreakdownRatio *float64 `toml:"breakdown-ratio"`
}

// ScheduleTuning maps the flashcard review curve.
type ScheduleTuning struct {
	AgainMinutes      *int     `toml:"again-minutes"`
	FirstIntervalDays *int     `toml:"first-interval-days"`
	MaxIntervalDays   *int     `toml:"max-interval-days"`
	Growth            *float64 `toml:"growth"`
}

// LoadTuning reads a TOML tuning file from the given path. Missing file is not an error.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return Tuning{}, fmt.Errorf("tuning path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Tuning{}, nil
		}
		return Tuning{}, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	var t Tuning
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to decode tuning file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Tuning{}, fmt.Errorf("unknown tuning keys: %v", undecoded)
	}
	if err := t.validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func (t Tuning) validate() error {
	for name, v := range map[string]*int{
		"gating.unlock-threshold": t.Gating.UnlockThreshold,
		"gating.pass-threshold":   t.Gating.PassThreshold,
	} {
		if v != nil && (*v < 1 || *v > 100) {
			return fmt.Errorf("%s must be between 1 and 100, got %d", name, *v)
		}
	}
	if r := t.Grading.BreakdownRatio; r != nil && (*r <= 0 || *r > 1) {
		return fmt.Errorf("grading.breakdown-ratio must be in (0, 1], got %g", *r)
	}
	if g := t.Schedule.Growth; g != nil && *g < 1 {
		return fmt.Errorf("schedule.growth must be at least 1, got %g", *g)
	}
	return nil
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultSQLitePath returns the default path of the local progress database.
func DefaultSQLitePath() string {
	return filepath.Join(XDGDataHome(), "pai-study", "progress.db")
}

// DefaultTuningPath returns the default tuning file path.
func DefaultTuningPath() string {
	return filepath.Join(XDGConfigHome(), "pai-study", "tuning.toml")
}

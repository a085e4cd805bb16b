// Package gating derives unlock state from persisted progress records.
// Nothing here is stored; every flag is recomputed on read.
package gating

import "fmt"

// Stage is a position in a learn → check → practice → test → passed chain.
type Stage int

const (
	StageLearn Stage = iota
	StageCheck
	StagePractice
	StageTest
	StagePassed
)

func (s Stage) String() string {
	switch s {
	case StageLearn:
		return "learn"
	case StageCheck:
		return "check"
	case StagePractice:
		return "practice"
	case StageTest:
		return "test"
	case StagePassed:
		return "passed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for st := StageLearn; st <= StagePassed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// Chain is the generic linear unlock chain shared by every curriculum.
// Practice stages unlock in order: the first once the check is cleared,
// each later one once its predecessor is unlocked and completed. The test
// unlocks when every practice stage is completed.
type Chain struct {
	// Started is set once any learning activity was recorded.
	Started bool
	// CheckCleared is set once mastery and quick check meet the gate.
	CheckCleared bool
	// PracticeCompleted holds completion of each practice stage in order.
	PracticeCompleted []bool
	// TestPassed is set once the test met the pass threshold.
	TestPassed bool
}

// PracticeUnlocked reports whether practice stage i is available.
func (c Chain) PracticeUnlocked(i int) bool {
	if i < 0 || i >= len(c.PracticeCompleted) || !c.CheckCleared {
		return false
	}
	for j := range i {
		if !c.PracticeCompleted[j] {
			return false
		}
	}
	return true
}

// TestUnlocked reports whether the test is available.
func (c Chain) TestUnlocked() bool {
	if !c.CheckCleared {
		return false
	}
	for _, done := range c.PracticeCompleted {
		if !done {
			return false
		}
	}
	return true
}

// Stage returns the furthest stage reached.
func (c Chain) Stage() Stage {
	switch {
	case c.TestUnlocked() && c.TestPassed:
		return StagePassed
	case c.TestUnlocked():
		return StageTest
	case c.CheckCleared:
		return StagePractice
	case c.Started:
		return StageCheck
	default:
		return StageLearn
	}
}

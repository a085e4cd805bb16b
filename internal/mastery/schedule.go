package mastery

import (
	"math"
	"time"

	"github.com/p-n-ai/pai-study/internal/progress"
)

// Schedule defines the review interval curve.
type Schedule struct {
	// AgainDelay is how soon a card rated "again" comes back.
	AgainDelay time.Duration
	// FirstInterval is the shortest interval after a non-"again" rating.
	FirstInterval time.Duration
	// MaxInterval caps interval growth.
	MaxInterval time.Duration
	// Growth multiplies the interval on every "got it" rating.
	Growth float64
}

// DefaultSchedule returns the standard curve: again in 10 minutes, then
// 1, 2, 4, 8... days on consecutive "got it" ratings, capped at 60 days.
func DefaultSchedule() Schedule {
	return Schedule{
		AgainDelay:    10 * time.Minute,
		FirstInterval: 24 * time.Hour,
		MaxInterval:   60 * 24 * time.Hour,
		Growth:        2.0,
	}
}

// withDefaults fills unset fields from DefaultSchedule.
func (s Schedule) withDefaults() Schedule {
	d := DefaultSchedule()
	if s.AgainDelay <= 0 {
		s.AgainDelay = d.AgainDelay
	}
	if s.FirstInterval <= 0 {
		s.FirstInterval = d.FirstInterval
	}
	if s.MaxInterval < s.FirstInterval {
		s.MaxInterval = max(d.MaxInterval, s.FirstInterval)
	}
	if s.Growth < 1 {
		s.Growth = d.Growth
	}
	return s
}

// NextInterval returns the interval following prev for rating c. The
// result never shrinks on ConfidenceGotIt and never grows on
// ConfidenceAgain.
func (s Schedule) NextInterval(prev time.Duration, c progress.Confidence) time.Duration {
	s = s.withDefaults()
	switch c {
	case progress.ConfidenceAgain:
		return 0
	case progress.ConfidenceLearning:
		return min(max(prev, s.FirstInterval), s.MaxInterval)
	default:
		grown := time.Duration(float64(prev) * s.Growth)
		return min(max(grown, s.FirstInterval), s.MaxInterval)
	}
}

// Apply returns rec updated for a rating of c at now. rec is not modified.
func Apply(rec progress.FlashcardRecord, c progress.Confidence, now time.Time, s Schedule) progress.FlashcardRecord {
	s = s.withDefaults()
	next := rec

	next.ConfidenceLevel = c
	next.TimesViewed++
	if c == progress.ConfidenceGotIt {
		next.TimesConfident++
		next.ConsecutiveConfident++
	} else {
		next.ConsecutiveConfident = 0
	}
	next.LastViewed = now
	next.MasteryPercent = Percent(next.TimesConfident, next.TimesViewed)

	prev := time.Duration(rec.IntervalMinutes) * time.Minute
	interval := s.NextInterval(prev, c)
	next.IntervalMinutes = int(interval / time.Minute)
	if c == progress.ConfidenceAgain {
		next.NextReviewDate = now.Add(s.AgainDelay)
	} else {
		next.NextReviewDate = now.Add(interval)
	}
	return next
}

// Percent returns round(100*part/whole) clamped to [0, 100]; 0 when whole
// is not positive.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(part) / float64(whole)))
	return min(max(p, 0), 100)
}

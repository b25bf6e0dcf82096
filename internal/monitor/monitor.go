// Package monitor tracks how the user responds to suggestions and
// derives two adaptive controls from that history: the aggressiveness
// level consulted before each assembly, and the debounce delay applied
// before the next request.
//
// A single Monitor instance is shared per editor session. The host
// serializes calls per instance, so no locking is needed.
package monitor

import (
	"math"
	"time"

	"github.com/tabflow-ai/tabflow/internal/intent"
)

// ActionKind classifies a user response to a shown suggestion.
type ActionKind int

const (
	Accepted ActionKind = iota
	Rejected
	Ignored
)

func (k ActionKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Event is one recorded user action.
type Event struct {
	Time time.Time
	Kind ActionKind
}

const (
	// scoringCapacity bounds the history used for happiness scoring.
	scoringCapacity = 30
	// timingCapacity bounds the accepted/rejected history used for
	// debounce derivation.
	timingCapacity = 10
	// scoreWindowSize is how many admitted entries the happiness score
	// considers.
	scoreWindowSize = 10

	debounceMin = 50 * time.Millisecond
	debounceMax = 3000 * time.Millisecond
	// decayWindow is the time constant of the exponential decay applied
	// to timing entries.
	decayWindow = 10 * time.Minute
)

// Config holds the scoring weights, thresholds and debounce factors.
// All values are plain numbers supplied by the host configuration.
type Config struct {
	AcceptedScore float64
	RejectedScore float64
	IgnoredScore  float64

	HighThreshold   float64
	MediumThreshold float64

	// Override pins the aggressiveness level regardless of history.
	Override *intent.Level

	// LimitIgnored enables skipping ignored entries once either cap is
	// hit; a cap of 0 disables that cap.
	LimitIgnored          bool
	MaxConsecutiveIgnored int
	MaxTotalIgnored       int

	BaseDebounce           time.Duration
	AcceptedDebounceFactor float64 // < 1: acceptances shorten the delay
	RejectedDebounceFactor float64 // > 1: rejections lengthen it
}

// DefaultConfig returns the stock weights and thresholds.
func DefaultConfig() Config {
	return Config{
		AcceptedScore:          1.0,
		RejectedScore:          0.0,
		IgnoredScore:           0.25,
		HighThreshold:          0.7,
		MediumThreshold:        0.4,
		LimitIgnored:           false,
		MaxConsecutiveIgnored:  2,
		MaxTotalIgnored:        4,
		BaseDebounce:           200 * time.Millisecond,
		AcceptedDebounceFactor: 0.9,
		RejectedDebounceFactor: 1.3,
	}
}

// Monitor owns the two bounded interaction histories.
type Monitor struct {
	scoring []Event // all kinds, capacity 30
	timing  []Event // accepted/rejected only, capacity 10

	now func() time.Time
}

// New returns an empty monitor.
func New() *Monitor {
	return &Monitor{now: time.Now}
}

// Record appends a user action to both histories (the timing history
// only for accepted/rejected) and trims each to capacity, dropping the
// oldest entries.
func (m *Monitor) Record(kind ActionKind) {
	m.RecordAt(kind, m.now())
}

// RecordAt is Record with an explicit timestamp.
func (m *Monitor) RecordAt(kind ActionKind, at time.Time) {
	ev := Event{Time: at, Kind: kind}
	m.scoring = append(m.scoring, ev)
	if n := len(m.scoring); n > scoringCapacity {
		m.scoring = append(m.scoring[:0:0], m.scoring[n-scoringCapacity:]...)
	}
	if kind == Accepted || kind == Rejected {
		m.timing = append(m.timing, ev)
		if n := len(m.timing); n > timingCapacity {
			m.timing = append(m.timing[:0:0], m.timing[n-timingCapacity:]...)
		}
	}
}

// scoreWindow selects up to scoreWindowSize entries, newest first,
// skipping ignored entries past their caps while extending the scan
// further back to keep trying to fill the window. The result is in
// chronological order.
func (m *Monitor) scoreWindow(cfg Config) []Event {
	var admitted []Event
	consecutiveIgnored := 0
	totalIgnored := 0
	for i := len(m.scoring) - 1; i >= 0 && len(admitted) < scoreWindowSize; i-- {
		ev := m.scoring[i]
		if ev.Kind == Ignored && cfg.LimitIgnored {
			overConsecutive := cfg.MaxConsecutiveIgnored > 0 && consecutiveIgnored >= cfg.MaxConsecutiveIgnored
			overTotal := cfg.MaxTotalIgnored > 0 && totalIgnored >= cfg.MaxTotalIgnored
			if overConsecutive || overTotal {
				continue
			}
			consecutiveIgnored++
			totalIgnored++
		} else if ev.Kind != Ignored {
			consecutiveIgnored = 0
		}
		admitted = append(admitted, ev)
	}
	for i, j := 0, len(admitted)-1; i < j; i, j = i+1, j-1 {
		admitted[i], admitted[j] = admitted[j], admitted[i]
	}
	return admitted
}

func (cfg Config) kindScore(k ActionKind) float64 {
	switch k {
	case Accepted:
		return cfg.AcceptedScore
	case Rejected:
		return cfg.RejectedScore
	case Ignored:
		return cfg.IgnoredScore
	default:
		return cfg.RejectedScore
	}
}

// HappinessScore summarizes recent user satisfaction as a value in
// [0,1]. Entries are weighted by their 1-based position in the window
// (more recent weighs more); each kind's configured score is
// normalized against the accepted/rejected span; and the deviation
// from neutral is shrunk by windowSize/10 so sparse history pulls the
// result toward 0.5. Empty history yields exactly 0.5.
func (m *Monitor) HappinessScore(cfg Config) float64 {
	window := m.scoreWindow(cfg)
	if len(window) == 0 {
		return 0.5
	}
	span := cfg.AcceptedScore - cfg.RejectedScore
	if span == 0 {
		span = 1
	}
	var weighted, weightSum float64
	for i, ev := range window {
		w := float64(i + 1)
		norm := (cfg.kindScore(ev.Kind) - cfg.RejectedScore) / span
		weighted += w * norm
		weightSum += w
	}
	avg := weighted / weightSum
	score := 0.5 + (avg-0.5)*float64(len(window))/float64(scoreWindowSize)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// Aggressiveness maps the happiness score to a level through the
// configured thresholds, unless an explicit override is set.
func (m *Monitor) Aggressiveness(cfg Config) intent.Level {
	if cfg.Override != nil {
		return *cfg.Override
	}
	score := m.HappinessScore(cfg)
	switch {
	case score >= cfg.HighThreshold:
		return intent.LevelHigh
	case score >= cfg.MediumThreshold:
		return intent.LevelMedium
	default:
		return intent.LevelLow
	}
}

// DebounceTime derives the delay before the next request from the
// timing history. Each entry contributes a per-kind multiplier
// weighted by exponential time decay (time constant 10 minutes) and
// the contributions compound multiplicatively; the configured base is
// scaled by the product and clamped to [50ms, 3s].
func (m *Monitor) DebounceTime(cfg Config) time.Duration {
	mult := 1.0
	now := m.now()
	for _, ev := range m.timing {
		decay := math.Exp(-now.Sub(ev.Time).Minutes() / decayWindow.Minutes())
		if decay > 1 {
			decay = 1
		}
		factor := cfg.AcceptedDebounceFactor
		if ev.Kind == Rejected {
			factor = cfg.RejectedDebounceFactor
		}
		mult *= 1 + (factor-1)*decay
	}
	d := time.Duration(float64(cfg.BaseDebounce) * mult)
	if d < debounceMin {
		d = debounceMin
	}
	if d > debounceMax {
		d = debounceMax
	}
	return d
}

package monitor

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Property: the happiness score stays within [0,1] for any history and
// any sane config (kind scores ordered rejected <= ignored <= accepted).
func TestHappinessScoreRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := DefaultConfig()
		cfg.RejectedScore = rapid.Float64Range(-2, 2).Draw(t, "rejected")
		cfg.AcceptedScore = cfg.RejectedScore + rapid.Float64Range(0.1, 4).Draw(t, "span")
		cfg.IgnoredScore = cfg.RejectedScore +
			rapid.Float64Range(0, 1).Draw(t, "ignoredFrac")*(cfg.AcceptedScore-cfg.RejectedScore)
		cfg.LimitIgnored = rapid.Bool().Draw(t, "limit")
		cfg.MaxConsecutiveIgnored = rapid.IntRange(0, 5).Draw(t, "maxConsecutive")
		cfg.MaxTotalIgnored = rapid.IntRange(0, 8).Draw(t, "maxTotal")

		m := New()
		n := rapid.IntRange(0, 60).Draw(t, "events")
		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			kind := ActionKind(rapid.IntRange(0, 2).Draw(t, "kind"))
			m.RecordAt(kind, base.Add(time.Duration(i)*time.Second))
		}

		score := m.HappinessScore(cfg)
		if score < 0 || score > 1 {
			t.Fatalf("score %v out of [0,1]", score)
		}
		if n == 0 && score != 0.5 {
			t.Fatalf("empty history score = %v, want 0.5", score)
		}
	})
}

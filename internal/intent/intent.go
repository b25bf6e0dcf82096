// Package intent parses the model's self-reported confidence tag from
// the head of a streamed response and gates suggestion visibility
// against the session's aggressiveness level.
package intent

import "strings"

// Intent is the model's confidence in its proposed edit.
type Intent int

const (
	NoEdit Intent = iota
	Low
	Medium
	High
)

func (i Intent) String() string {
	switch i {
	case NoEdit:
		return "no_edit"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// Level is the coarse aggressiveness knob governing how readily
// low-confidence suggestions are shown.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseLevel maps a config string to a Level. Unrecognized values
// report ok=false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow, true
	case "medium":
		return LevelMedium, true
	case "high":
		return LevelHigh, true
	default:
		return LevelLow, false
	}
}

// ParseTag describes how the confidence tag was (or was not) parsed.
// Every outcome except TagParsed resolves to High — the most
// permissive intent — so the caller can still choose to proceed.
type ParseTag int

const (
	TagParsed ParseTag = iota
	TagNoTagFound
	TagMalformed
	TagEmptyResponse
)

func (p ParseTag) String() string {
	switch p {
	case TagParsed:
		return "parsed"
	case TagNoTagFound:
		return "no_tag_found"
	case TagMalformed:
		return "malformed_tag"
	case TagEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// ShouldShowEdit applies the suppression table: NoEdit is never shown;
// Low intent is always shown; Medium is suppressed at high
// aggressiveness; High intent is shown only at low aggressiveness.
func ShouldShowEdit(i Intent, lvl Level) bool {
	switch i {
	case NoEdit:
		return false
	case Low:
		return true
	case Medium:
		return lvl == LevelLow || lvl == LevelMedium
	case High:
		return lvl == LevelLow
	default:
		return false
	}
}

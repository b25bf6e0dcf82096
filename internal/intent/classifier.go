package intent

import "strings"

// Tag delimiters as the model emits them at the head of a response,
// e.g. "<|edit_intent|>medium<|/edit_intent|>".
const (
	tagOpen  = "<|edit_intent|>"
	tagClose = "<|/edit_intent|>"
)

// Stream is a single-pass line iterator: it returns the next line and
// whether one was available.
type Stream func() (string, bool)

// Lines adapts a materialized slice to a Stream, so buffered and
// incremental consumers share one classification path and produce
// identical results.
func Lines(lines []string) Stream {
	i := 0
	return func() (string, bool) {
		if i >= len(lines) {
			return "", false
		}
		l := lines[i]
		i++
		return l, true
	}
}

// Collect drains a stream into a slice.
func Collect(s Stream) []string {
	var out []string
	for {
		l, ok := s()
		if !ok {
			return out
		}
		out = append(out, l)
	}
}

func parseValue(v string) Intent {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "no_edit", "noedit", "none":
		return NoEdit
	case "low":
		return Low
	case "medium":
		return Medium
	case "high":
		return High
	default:
		// Unknown value inside a well-formed tag: most permissive,
		// not flagged as malformed.
		return High
	}
}

// Classify inspects the head of a streamed response for the confidence
// tag and returns the parsed intent, how the parse went, and the
// remaining stream.
//
// Only the first line is inspected. Once the closing delimiter is
// seen, everything after it on that line plus all subsequent lines
// pass through unchanged — except that a leading fragment which is
// empty after trimming is dropped rather than emitted as a blank line.
// A missing tag leaves the first line in the remaining stream; a
// malformed tag (open without close, or close without open) consumes
// the first line and resolves to High.
func Classify(next Stream) (Intent, ParseTag, Stream) {
	first, ok := next()
	if !ok {
		return High, TagEmptyResponse, next
	}

	openIdx := strings.Index(first, tagOpen)
	closeIdx := strings.Index(first, tagClose)

	switch {
	case openIdx == -1 && closeIdx == -1:
		// No tag: the first line is content.
		return High, TagNoTagFound, prepend(first, next)
	case openIdx == -1 || closeIdx == -1 || closeIdx < openIdx:
		return High, TagMalformed, next
	}

	value := first[openIdx+len(tagOpen) : closeIdx]
	rest := first[closeIdx+len(tagClose):]
	if strings.TrimSpace(rest) == "" {
		return parseValue(value), TagParsed, next
	}
	return parseValue(value), TagParsed, prepend(rest, next)
}

// prepend yields head before delegating to tail.
func prepend(head string, tail Stream) Stream {
	done := false
	return func() (string, bool) {
		if !done {
			done = true
			return head, true
		}
		return tail()
	}
}

package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tabflow-ai/tabflow/internal/config"
	"github.com/tabflow-ai/tabflow/internal/history"
	"github.com/tabflow-ai/tabflow/internal/intent"
	"github.com/tabflow-ai/tabflow/internal/monitor"
	"github.com/tabflow-ai/tabflow/internal/prompt"
	"github.com/tabflow-ai/tabflow/internal/provider"
)

// fakeProvider replays a canned response and records the last request.
type fakeProvider struct {
	text    string
	err     error
	lastReq *provider.Request
}

func (f *fakeProvider) Name() string         { return "fake" }
func (f *fakeProvider) DefaultModel() string { return "fake-model" }

func (f *fakeProvider) Complete(_ context.Context, req *provider.Request) (<-chan provider.Event, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan provider.Event, 2)
	ch <- provider.Event{Type: provider.EventTextDelta, TextDelta: f.text}
	ch <- provider.Event{Type: provider.EventDone, Usage: &provider.Usage{InputTokens: 10, OutputTokens: 3}}
	close(ch)
	return ch, nil
}

func newTestEngine(t *testing.T, text string) (*Engine, *fakeProvider) {
	t.Helper()
	fp := &fakeProvider{text: text}
	return New(config.DefaultConfig(), fp, nil), fp
}

func testDoc() prompt.DocumentState {
	return prompt.DocumentState{
		ID:           "doc1",
		Path:         "pkg/main.go",
		OriginalText: "a\nb\nc",
		CurrentText:  "a\nb\nc",
		Cursor:       1,
	}
}

func TestSuggestTagged(t *testing.T) {
	eng, fp := newTestEngine(t, "<|edit_intent|>low<|/edit_intent|>\na\nB\nc")

	s, err := eng.Suggest(context.Background(), Request{Doc: testDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if s.RequestID == "" {
		t.Fatal("missing request id")
	}
	if s.Intent != intent.Low || s.Tag != intent.TagParsed {
		t.Fatalf("intent = %v tag = %v", s.Intent, s.Tag)
	}
	if len(s.Edits) != 1 {
		t.Fatalf("edits = %+v", s.Edits)
	}
	e := s.Edits[0]
	if e.StartLine != 1 || e.EndLine != 2 || !reflect.DeepEqual(e.Lines, []string{"B"}) {
		t.Fatalf("edit = %+v", e)
	}
	if !s.Show {
		t.Fatal("low intent must always be shown")
	}
	if s.Usage == nil || s.Usage.InputTokens != 10 {
		t.Fatalf("usage = %+v", s.Usage)
	}
	if !strings.Contains(fp.lastReq.Prompt, "<|cursor|>") {
		t.Fatal("tagged prompt must carry the cursor marker")
	}
}

func TestSuggestNoEdit(t *testing.T) {
	eng, _ := newTestEngine(t, "<|edit_intent|>no_edit<|/edit_intent|>")

	s, err := eng.Suggest(context.Background(), Request{Doc: testDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if s.Intent != intent.NoEdit || s.Show || len(s.Edits) != 0 {
		t.Fatalf("suggestion = %+v", s)
	}
}

func TestSuggestFixedWindow(t *testing.T) {
	eng, fp := newTestEngine(t, "a\nb2\nc")

	s, err := eng.Suggest(context.Background(), Request{
		Doc:     testDoc(),
		Options: json.RawMessage(`{"strategy":"fixed-window"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Edits) != 1 {
		t.Fatalf("edits = %+v", s.Edits)
	}
	e := s.Edits[0]
	if e.StartLine != 1 || e.EndLine != 2 || !reflect.DeepEqual(e.Lines, []string{"b2"}) {
		t.Fatalf("edit = %+v", e)
	}
	// The full-window rewrite carries no tag and is treated as high
	// confidence, so a fresh (neutral) session suppresses it.
	if s.Intent != intent.High || s.Show {
		t.Fatalf("intent = %v show = %v", s.Intent, s.Show)
	}
	if !reflect.DeepEqual(fp.lastReq.StopSequences, []string{prompt.FileSep}) {
		t.Fatalf("stop sequences = %q", fp.lastReq.StopSequences)
	}
	if !strings.Contains(fp.lastReq.Prompt, prompt.FileSep+"updated/pkg/main.go") {
		t.Fatal("fixed-window prompt must end in the open updated section")
	}
}

func TestSuggestFixedWindowBlankBaselineFallsBackToTagged(t *testing.T) {
	eng, fp := newTestEngine(t, "<|edit_intent|>low<|/edit_intent|>\na\nb\nc")

	doc := testDoc()
	doc.OriginalText = ""
	s, err := eng.Suggest(context.Background(), Request{
		Doc:     doc,
		Options: json.RawMessage(`{"strategy":"fixed-window"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Tag != intent.TagParsed {
		t.Fatalf("tag = %v, want tagged-protocol parse", s.Tag)
	}
	if !strings.Contains(fp.lastReq.Prompt, "<|current_file_content|>") {
		t.Fatal("fallback must render the tagged protocol")
	}
}

func TestSuggestMalformedOptionsIgnored(t *testing.T) {
	eng, _ := newTestEngine(t, "<|edit_intent|>no_edit<|/edit_intent|>")

	s, err := eng.Suggest(context.Background(), Request{
		Doc:     testDoc(),
		Options: json.RawMessage(`{"strategy": unquoted}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Intent != intent.NoEdit {
		t.Fatalf("intent = %v", s.Intent)
	}
}

func TestSuggestProviderError(t *testing.T) {
	fp := &fakeProvider{err: errors.New("boom")}
	eng := New(config.DefaultConfig(), fp, nil)

	if _, err := eng.Suggest(context.Background(), Request{Doc: testDoc()}); err == nil {
		t.Fatal("provider error must propagate")
	}
}

func TestSuggestCancelledContext(t *testing.T) {
	eng, fp := newTestEngine(t, "anything")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A sizable history log must not delay the cancelled request: the
	// walk is abandoned and the provider is never called.
	req := Request{Doc: testDoc()}
	for i := 0; i < 100; i++ {
		req.History = append(req.History, history.NewEdit("doc1", "pkg/main.go", "a\nb\nc", history.LineEdit{
			StartLine: 0, EndLine: 1, NewLines: []string{fmt.Sprintf("a%d", i)},
		}, time.Now()))
	}
	if _, err := eng.Suggest(ctx, req); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if fp.lastReq != nil {
		t.Fatal("cancelled request must not reach the provider")
	}
}

func TestRecordActionShortensDebounce(t *testing.T) {
	eng, _ := newTestEngine(t, "<|edit_intent|>low<|/edit_intent|>\na\nb\nc")

	base := time.Duration(eng.cfg.Debounce.BaseMs) * time.Millisecond
	for i := 0; i < 3; i++ {
		eng.RecordAction(monitor.Accepted)
	}
	s, err := eng.Suggest(context.Background(), Request{Doc: testDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if s.Debounce >= base {
		t.Fatalf("debounce = %v, want < %v after acceptances", s.Debounce, base)
	}
}

func TestAggressivenessOverrideFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scoring.AggressivenessOverride = "low"
	fp := &fakeProvider{text: "<|edit_intent|>high<|/edit_intent|>\na\nb\nc2"}
	eng := New(cfg, fp, nil)

	s, err := eng.Suggest(context.Background(), Request{Doc: testDoc()})
	if err != nil {
		t.Fatal(err)
	}
	if s.Level != intent.LevelLow {
		t.Fatalf("level = %v", s.Level)
	}
	if !s.Show {
		t.Fatal("high intent must be shown at low aggressiveness")
	}
}

// Package suggest orchestrates one next-edit prediction round trip:
// consult the interaction monitor, assemble and render the prompt,
// stream the completion, classify the intent tag and reconstruct
// absolute document edits from the response.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tabflow-ai/tabflow/internal/clip"
	"github.com/tabflow-ai/tabflow/internal/config"
	"github.com/tabflow-ai/tabflow/internal/history"
	"github.com/tabflow-ai/tabflow/internal/intent"
	"github.com/tabflow-ai/tabflow/internal/linediff"
	"github.com/tabflow-ai/tabflow/internal/monitor"
	"github.com/tabflow-ai/tabflow/internal/prompt"
	"github.com/tabflow-ai/tabflow/internal/provider"
	"github.com/tabflow-ai/tabflow/internal/tokenizer"
	"github.com/tabflow-ai/tabflow/internal/window"
)

// Request carries everything the host knows about one prediction
// opportunity. Options is an opaque per-request override blob; a
// malformed blob is ignored rather than failing the request.
type Request struct {
	Doc             prompt.DocumentState
	RecentDocs      []clip.RecentDoc // newest first
	History         []history.Entry  // chronological
	LanguageContext string
	Options         json.RawMessage
}

// Suggestion is the outcome of one prediction round trip.
type Suggestion struct {
	RequestID string
	Intent    intent.Intent
	Tag       intent.ParseTag
	Level     intent.Level
	Show      bool
	Edits     []window.Edit
	Debounce  time.Duration
	Usage     *provider.Usage
}

// requestOptions are the per-request overrides the host may attach.
type requestOptions struct {
	Strategy              string `json:"strategy"`
	LineNumbers           string `json:"line_numbers"`
	PrioritizeAboveCursor *bool  `json:"prioritize_above_cursor"`
	MaxDiffEntries        *int   `json:"max_diff_entries"`
}

// Engine runs prediction requests against one provider and keeps the
// per-session interaction monitor.
type Engine struct {
	cfg  *config.Config
	prov provider.Provider
	mon  *monitor.Monitor
	cost tokenizer.CostFunc
	log  *slog.Logger
}

// New builds an engine. A nil logger falls back to slog.Default.
func New(cfg *config.Config, prov provider.Provider, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:  cfg,
		prov: prov,
		mon:  monitor.New(),
		cost: tokenizer.Default(),
		log:  log,
	}
}

// RecordAction feeds a user response to a shown suggestion back into
// the adaptive monitor.
func (e *Engine) RecordAction(kind monitor.ActionKind) {
	e.mon.Record(kind)
	e.log.Debug("recorded user action", "kind", kind.String())
}

// Suggest performs one prediction round trip.
func (e *Engine) Suggest(ctx context.Context, req Request) (*Suggestion, error) {
	id := uuid.NewString()
	log := e.log.With("request_id", id, "doc", req.Doc.Path)

	monCfg := e.monitorConfig()
	level := e.mon.Aggressiveness(monCfg)
	debounce := e.mon.DebounceTime(monCfg)
	log.Debug("session state", "aggressiveness", level.String(), "debounce", debounce)

	reqOpts := parseOptions(req.Options, log)
	strategy := e.strategy(reqOpts)
	opts := e.promptOptions(reqOpts)

	pieces := prompt.Assemble(ctx, req.Doc, req.RecentDocs, req.History, req.LanguageContext, opts, e.cost)

	text, err := prompt.Render(strategy, pieces)
	if err != nil {
		return nil, err
	}
	if strategy == prompt.StrategyFixedWindow && text == "" {
		// Blank original baseline: the fixed-window protocol has no
		// anchor, so serve the request through the tagged protocol.
		strategy = prompt.StrategyTagged
		if text, err = prompt.Render(strategy, pieces); err != nil {
			return nil, err
		}
		log.Debug("blank baseline, falling back to tagged strategy")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preq := &provider.Request{
		Model:        e.cfg.Model,
		SystemPrompt: systemPrompt(strategy),
		Prompt:       text,
	}
	if strategy == prompt.StrategyFixedWindow {
		preq.StopSequences = []string{prompt.FileSep}
	}

	ch, err := e.prov.Complete(ctx, preq)
	if err != nil {
		return nil, fmt.Errorf("suggest: completion request failed: %w", err)
	}
	lines, usage, err := provider.CollectLines(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("suggest: stream failed: %w", err)
	}

	s := &Suggestion{RequestID: id, Level: level, Debounce: debounce, Usage: usage}

	switch strategy {
	case prompt.StrategyTagged:
		it, tag, rest := intent.Classify(intent.Lines(lines))
		s.Intent, s.Tag = it, tag
		if it != intent.NoEdit {
			s.Edits = reconcileTagged(pieces, intent.Collect(rest))
		}
	case prompt.StrategyFixedWindow:
		// The fixed-window protocol carries no intent tag; treat the
		// rewrite as a high-confidence suggestion.
		s.Intent, s.Tag = intent.High, intent.TagNoTagFound
		res := window.Reconcile(req.Doc.OriginalText, req.Doc.CurrentText, req.Doc.Cursor, opts.WindowAbove, opts.WindowBelow, strings.Join(lines, "\n"))
		s.Edits = res.Edits
	}

	s.Show = intent.ShouldShowEdit(s.Intent, level) && len(s.Edits) > 0
	log.Debug("suggestion ready", "intent", s.Intent.String(), "tag", s.Tag.String(), "edits", len(s.Edits), "show", s.Show)
	return s, nil
}

// reconcileTagged diffs the clipped region that was sent against the
// model's rewrite and translates each change to absolute document
// coordinates.
func reconcileTagged(p prompt.Pieces, outLines []string) []window.Edit {
	if p.CurrentLines == nil || len(outLines) == 0 {
		return nil
	}
	var edits []window.Edit
	for _, ch := range linediff.Changes(p.CurrentLines, outLines) {
		edits = append(edits, window.Edit{
			StartLine: p.CurrentRange.Start + ch.Original.Start,
			EndLine:   p.CurrentRange.Start + ch.Original.End,
			Lines:     outLines[ch.Modified.Start:ch.Modified.End],
		})
	}
	return edits
}

func (e *Engine) strategy(o requestOptions) prompt.Strategy {
	if o.Strategy != "" {
		return prompt.Strategy(o.Strategy)
	}
	if e.cfg.Prediction.Strategy != "" {
		return prompt.Strategy(e.cfg.Prediction.Strategy)
	}
	return prompt.StrategyTagged
}

func (e *Engine) promptOptions(o requestOptions) prompt.Options {
	pc := e.cfg.Prediction
	opts := prompt.Options{
		PageSize: pc.PageSize,
		Budgets: prompt.Budgets{
			CurrentFile:     pc.Budgets.CurrentFile,
			RecentDocs:      pc.Budgets.RecentDocs,
			DiffHistory:     pc.Budgets.DiffHistory,
			LanguageContext: pc.Budgets.LanguageContext,
		},
		MaxDiffEntries:          pc.MaxDiffEntries,
		DiffOnlyForDocsInPrompt: pc.DiffOnlyForDocsInPrompt,
		UseRelativePaths:        pc.UseRelativePaths,
		LineNumbers:             prompt.LineNumberStyle(pc.LineNumbers),
		PrioritizeAboveCursor:   pc.PrioritizeAboveCursor,
		WindowAbove:             pc.WindowAbove,
		WindowBelow:             pc.WindowBelow,
	}
	if o.LineNumbers != "" {
		opts.LineNumbers = prompt.LineNumberStyle(o.LineNumbers)
	}
	if o.PrioritizeAboveCursor != nil {
		opts.PrioritizeAboveCursor = *o.PrioritizeAboveCursor
	}
	if o.MaxDiffEntries != nil {
		opts.MaxDiffEntries = *o.MaxDiffEntries
	}
	return opts
}

func (e *Engine) monitorConfig() monitor.Config {
	sc, dc := e.cfg.Scoring, e.cfg.Debounce
	mc := monitor.Config{
		AcceptedScore:          sc.AcceptedScore,
		RejectedScore:          sc.RejectedScore,
		IgnoredScore:           sc.IgnoredScore,
		HighThreshold:          sc.HighThreshold,
		MediumThreshold:        sc.MediumThreshold,
		LimitIgnored:           sc.LimitIgnored,
		MaxConsecutiveIgnored:  sc.MaxConsecutiveIgnored,
		MaxTotalIgnored:        sc.MaxTotalIgnored,
		BaseDebounce:           time.Duration(dc.BaseMs) * time.Millisecond,
		AcceptedDebounceFactor: dc.AcceptedFactor,
		RejectedDebounceFactor: dc.RejectedFactor,
	}
	if lvl, ok := intent.ParseLevel(sc.AggressivenessOverride); ok {
		mc.Override = &lvl
	}
	return mc
}

// parseOptions decodes the per-request override blob. Malformed JSON
// is logged and ignored so a buggy host never loses a prediction.
func parseOptions(raw json.RawMessage, log *slog.Logger) requestOptions {
	var o requestOptions
	if len(raw) == 0 {
		return o
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		log.Warn("ignoring malformed request options", "error", err)
		return requestOptions{}
	}
	return o
}

func systemPrompt(s prompt.Strategy) string {
	switch s {
	case prompt.StrategyFixedWindow:
		return fixedWindowSystemPrompt
	default:
		return taggedSystemPrompt
	}
}

const taggedSystemPrompt = `You are a next-edit prediction engine inside a code editor.
You receive recently viewed code snippets, a diff history of the user's recent edits, and the current file content with a <|cursor|> marker.
First output your confidence on its own line as <|edit_intent|>VALUE<|/edit_intent|> where VALUE is one of no_edit, low, medium, high.
Then output the rewritten current file content exactly as it should read after the next edit, with the <|cursor|> marker removed. Output nothing else.`

const fixedWindowSystemPrompt = `You are a next-edit prediction engine inside a code editor.
You receive three windows of the file under edit: the original version, the current version, and an open updated section.
Complete the updated section with the window text as it should read after the user's next edit. Output only the window lines.`

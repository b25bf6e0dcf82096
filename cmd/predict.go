package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabflow-ai/tabflow/internal/clip"
	"github.com/tabflow-ai/tabflow/internal/linediff"
	"github.com/tabflow-ai/tabflow/internal/prompt"
	"github.com/tabflow-ai/tabflow/internal/suggest"
)

func newPredictCmd() *cobra.Command {
	var (
		line        int
		origPath    string
		historyPath string
		contextPath string
		recentPaths []string
		optionsJSON string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "predict <file>",
		Short: "Predict the next edit for a file",
		Long: "Reads the file, assembles the prediction context and prints the suggested edit.\n" +
			"The session baseline defaults to the file itself; pass --original to diff against an earlier snapshot.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(args[0], line, origPath, historyPath, contextPath, recentPaths, optionsJSON, jsonOut)
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 1, "1-based cursor line")
	cmd.Flags().StringVar(&origPath, "original", "", "session-start snapshot of the file")
	cmd.Flags().StringVar(&historyPath, "history", "", "JSON log of recorded edit/view events to replay")
	cmd.Flags().StringVar(&contextPath, "language-context", "", "file with extra language context to include")
	cmd.Flags().StringArrayVar(&recentPaths, "recent", nil, "recently viewed file (repeatable, newest first)")
	cmd.Flags().StringVar(&optionsJSON, "options", "", "per-request option overrides as JSON")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the suggestion as JSON")

	return cmd
}

func runPredict(path string, line int, origPath, historyPath, contextPath string, recentPaths []string, optionsJSON string, jsonOut bool) error {
	cfg := initConfig()
	prov, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	current, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	original := string(current)
	if origPath != "" {
		data, err := os.ReadFile(origPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", origPath, err)
		}
		original = string(data)
	}

	cursor := line - 1
	if cursor < 0 {
		cursor = 0
	}
	if n := len(linediff.SplitLines(string(current))); cursor >= n {
		cursor = n - 1
	}

	req := suggest.Request{
		Doc: prompt.DocumentState{
			ID:           path,
			Path:         path,
			OriginalText: original,
			CurrentText:  string(current),
			Cursor:       cursor,
		},
	}

	for _, rp := range recentPaths {
		data, err := os.ReadFile(rp)
		if err != nil {
			return fmt.Errorf("read %s: %w", rp, err)
		}
		req.RecentDocs = append(req.RecentDocs, clip.RecentDoc{
			ID:    rp,
			Path:  rp,
			Lines: linediff.SplitLines(string(data)),
		})
	}

	if historyPath != "" {
		data, err := os.ReadFile(historyPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", historyPath, err)
		}
		if err := json.Unmarshal(data, &req.History); err != nil {
			return fmt.Errorf("parse history log %s: %w", historyPath, err)
		}
	}

	if contextPath != "" {
		data, err := os.ReadFile(contextPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", contextPath, err)
		}
		req.LanguageContext = strings.TrimRight(string(data), "\n")
	}

	if optionsJSON != "" {
		req.Options = json.RawMessage(optionsJSON)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := suggest.New(cfg, prov, nil)
	s, err := eng.Suggest(ctx, req)
	if err != nil {
		return err
	}

	if jsonOut {
		return printSuggestionJSON(s)
	}
	printSuggestion(s)
	return nil
}

func printSuggestion(s *suggest.Suggestion) {
	fmt.Printf("intent: %s (%s)\n", s.Intent, s.Tag)
	fmt.Printf("aggressiveness: %s\n", s.Level)
	fmt.Printf("show: %v\n", s.Show)
	fmt.Printf("debounce: %s\n", s.Debounce)
	for _, e := range s.Edits {
		fmt.Printf("\nreplace lines %d-%d with:\n", e.StartLine+1, e.EndLine)
		for _, l := range e.Lines {
			fmt.Printf("  %s\n", l)
		}
	}
}

func printSuggestionJSON(s *suggest.Suggestion) error {
	type editOut struct {
		StartLine int      `json:"start_line"`
		EndLine   int      `json:"end_line"`
		Lines     []string `json:"lines"`
	}
	out := struct {
		RequestID  string    `json:"request_id"`
		Intent     string    `json:"intent"`
		Tag        string    `json:"tag"`
		Level      string    `json:"aggressiveness"`
		Show       bool      `json:"show"`
		DebounceMs int64     `json:"debounce_ms"`
		Edits      []editOut `json:"edits"`
	}{
		RequestID:  s.RequestID,
		Intent:     s.Intent.String(),
		Tag:        s.Tag.String(),
		Level:      s.Level.String(),
		Show:       s.Show,
		DebounceMs: s.Debounce.Milliseconds(),
	}
	for _, e := range s.Edits {
		out.Edits = append(out.Edits, editOut{StartLine: e.StartLine, EndLine: e.EndLine, Lines: e.Lines})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

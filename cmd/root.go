package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabflow-ai/tabflow/internal/config"
	"github.com/tabflow-ai/tabflow/internal/provider"
)

var (
	cfgFile      string
	modelFlag    string
	providerFlag string
	verbose      bool
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd := &cobra.Command{
		Use:   "tabflow",
		Short: "Next-edit prediction engine",
		Long:  "tabflow predicts the user's next edit from the current file, recently viewed code and recent edit history.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := slog.LevelInfo
			if verbose {
				lvl = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/tabflow/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Subcommands
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	return cfg
}

// buildProvider creates a Provider instance based on configuration.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	name := cfg.Provider
	pc := cfg.GetProviderConfig(name)

	apiKey := pc.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key not configured for provider %q.\n"+
				"Set it via:\n"+
				"  - config file: providers.%s.api_key\n"+
				"  - environment: LLM_API_KEY\n"+
				"  - run: tabflow init",
			name, name,
		)
	}

	// Determine model: CLI flag > config file > known defaults
	model := cfg.Model
	if model == "" && pc.Model != "" {
		model = pc.Model
	}
	if model == "" {
		if m, ok := config.KnownProviderModels[name]; ok {
			model = m
		}
	}

	baseURL := pc.BaseURL
	if baseURL == "" && name != "anthropic" {
		if u, ok := config.KnownProviderBaseURLs[name]; ok {
			baseURL = u
		}
	}

	return provider.New(name, apiKey, baseURL, model)
}

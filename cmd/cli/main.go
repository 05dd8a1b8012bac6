package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"misinfo-guard/internal/config"
	"misinfo-guard/pkg/logger"
)

var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "misinfo-guard",
	Short: "Credibility checks for page text",
	Long: `misinfo-guard scans pages for headline-like text, sends it to a
classification service and reports a verdict for each piece of text.

It can also replay the context menu flow of the browser extension for a
single selection and print the resulting panel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log = logger.NewLevel(level)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "misinfo-guard", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./.misinfo-guard.yaml or the XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	scanCmd.Flags().StringVarP(&scanInput, "input", "i", "", "file with URLs (csv with a 'url' column or ndjson)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "output NDJSON file (default stdout)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 10, "pages fetched at once")

	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "page to open before selecting the text (default a blank page)")
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "file with headlines (csv with a 'headline' column or ndjson)")
	analyzeCmd.Flags().BoolVar(&analyzeHTML, "html", false, "include the page markup with the panel in the output")

	rootCmd.AddCommand(scanCmd, analyzeCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

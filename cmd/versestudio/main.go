package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/versestudio/internal/config"
	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/logging"
	"github.com/csheth/versestudio/internal/notes"
	"github.com/csheth/versestudio/internal/persist"
	"github.com/csheth/versestudio/internal/tui"
)

var (
	v          = config.NewViper()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "versestudio",
	Short: "Compose a song from the best lines of several lyric drafts",
	Long: `VerseStudio opens up to four lyric versions side by side with synced
scrolling. Select lines, drop them into the composition with section
markers, and export the result back into the library.

The composition is autosaved while the studio is open and restored on the
next start if the program exits unexpectedly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, configFile)
	},
	RunE: runStudio,
}

func init() {
	d := config.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: ./versestudio.toml or the user config dir)")
	flags.String(config.KeyLibrary, d.LibraryPath, "path to the lyric library JSON file")
	flags.String(config.KeyStore, string(d.Store), "autosave backend: file, sqlite, redis or memory")
	flags.String(config.KeyStoreDSN, "", "backend location: directory, sqlite path or redis:// URL")
	flags.String(config.KeyLogFile, "", "log file path, - for stderr")

	rootCmd.Flags().Duration(config.KeyAutosaveInterval, d.AutosaveInterval, "autosave interval")
	rootCmd.Flags().String(config.KeySyncMode, string(d.SyncMode), "scroll sync mode: proportional, paragraph or line")
	rootCmd.Flags().Float64(config.KeyLineHeight, d.LineHeight, "lines per scroll step in fixed-line mode")
	rootCmd.Flags().Bool(config.KeyAutoNumber, d.AutoNumber, "number verses and choruses automatically")
	rootCmd.Flags().String(config.KeyLLMProvider, "", "LLM provider: ollama, openai or anthropic (default: from env)")
	rootCmd.Flags().String(config.KeyLLMModel, "", "override the provider's default model")
	rootCmd.Flags().String(config.KeyLLMEndpoint, "", "custom LLM endpoint (eg. http://localhost:11434)")
	rootCmd.Flags().Bool(config.KeyNoAltScreen, false, "disable the alternate screen buffer")

	for _, key := range []string{config.KeyLibrary, config.KeyStore, config.KeyStoreDSN, config.KeyLogFile} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
	for _, key := range []string{
		config.KeyAutosaveInterval, config.KeySyncMode, config.KeyLineHeight, config.KeyAutoNumber,
		config.KeyLLMProvider, config.KeyLLMModel, config.KeyLLMEndpoint, config.KeyNoAltScreen,
	} {
		_ = v.BindPFlag(key, rootCmd.Flags().Lookup(key))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStudio(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(logging.Config{File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()
	logger.Printf("starting (library=%s store=%s sync=%s)", cfg.LibraryPath, cfg.Store, cfg.SyncMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := persist.Open(ctx, cfg.Store, cfg.StoreDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer persist.Close(store)

	client, err := llm.NewFromEnv(llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		Endpoint: cfg.LLMEndpoint,
	})
	if err != nil {
		logger.Printf("LLM disabled: %v", err)
		fmt.Fprintf(os.Stderr, "LLM disabled: %v\n", err)
		client = nil
	}

	watcher, changes := watchLibrary(cfg.LibraryPath, logger)
	if watcher != nil {
		defer watcher.Stop()
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			LibraryPath:      cfg.LibraryPath,
			LibraryChanges:   changes,
			Agent:            persist.NewAgent(store, logger),
			LLM:              client,
			SyncMode:         cfg.SyncMode,
			LineHeight:       cfg.LineHeight,
			AutosaveInterval: cfg.AutosaveInterval,
			AutoNumber:       cfg.AutoNumber,
			Logger:           logger,
		}),
		opts...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// watchLibrary starts a file watcher on the library. Watch failures only
// disable live reload.
func watchLibrary(path string, logger *log.Logger) (*notes.Watcher, <-chan struct{}) {
	watcher, err := notes.NewWatcher(path)
	if err != nil {
		logger.Printf("[library] watch disabled: %v", err)
		return nil, nil
	}
	if err := watcher.Start(); err != nil {
		logger.Printf("[library] watch disabled: %v", err)
		_ = watcher.Stop()
		return nil, nil
	}
	go func() {
		for err := range watcher.Errors() {
			logger.Printf("[library] watch error: %v", err)
		}
	}()
	return watcher, watcher.Changes()
}

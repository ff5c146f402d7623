package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/completion"
	"vibegen/pkg/config"
	"vibegen/pkg/logging"
	"vibegen/pkg/suggest"
	"vibegen/pkg/ui"
	"vibegen/pkg/version"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "vibegen",
		Short: "Generate puns, flirty lines and lyrics from someone's bio",
		Long: `vibegen turns a name, a short bio and a vibe into two ready-to-send messages.
Run it without arguments for the interactive form, or use the generate and
serve commands from scripts.`,
		Version:      version.Summary(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runTUI(cmd, cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.vibegen/config.json)")

	root.AddCommand(
		newGenerateCmd(&configPath),
		newServeCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file and starts file logging, mirrored to
// logTo. A logging failure is reported but does not stop the command.
func loadConfig(cmd *cobra.Command, path string, logTo ...io.Writer) (config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if _, err := logging.Init(cfg, logTo...); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: file logging disabled: %v\n", err)
	}
	slog.Info("config_loaded", "path", path, "provider", cfg.LLMProvider, "parser", cfg.Parser)
	return cfg, nil
}

// defaultVibe parses the configured vibe, falling back to the built-in one.
func defaultVibe(cfg config.Config) ai.Vibe {
	if cfg.DefaultVibe == "" {
		return ai.DefaultVibe
	}
	vibe, err := ai.ParseVibe(cfg.DefaultVibe)
	if err != nil {
		slog.Warn("config_default_vibe_invalid", "value", cfg.DefaultVibe, "error", err)
		return ai.DefaultVibe
	}
	return vibe
}

func runTUI(cmd *cobra.Command, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	source, err := completion.NewSource(cfg)
	if err != nil {
		return err
	}

	model := ui.NewModel(cmd.Context(), ui.Options{
		Consumer:       completion.NewConsumer(source),
		Parser:         suggest.ForName(cfg.Parser),
		DefaultVibe:    defaultVibe(cfg),
		StreamThrottle: time.Duration(cfg.StreamThrottleMs) * time.Millisecond,
	})

	slog.Info("tui_start", "version", version.Summary())
	program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		slog.Error("tui_error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	slog.Info("tui_exit")
	return nil
}

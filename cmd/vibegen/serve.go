package main

import (
	"fmt"

	"vibegen/pkg/completion"
	"vibegen/pkg/server"

	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the streaming completion endpoint over HTTP",
		Long: `serve exposes POST /api/generate. It takes {"name","vibe","bio"} as JSON and
streams the generated text back as text/plain. Logs go to the log file and to
stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.ValidateServer(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			source, err := completion.NewSource(cfg)
			if err != nil {
				return err
			}
			return server.New(cfg.Server, source).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8787)")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"vibegen/pkg/ai"
	"vibegen/pkg/completion"
	"vibegen/pkg/suggest"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultReportWidth = 80

type generateOptions struct {
	name     string
	bio      string
	vibe     string
	parser   string
	noReport bool
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Stream suggestions for a bio to stdout",
		Long: `generate sends one request, streams the raw text as it arrives and then prints
the parsed suggestions. When --bio is not given and stdin is piped, the bio is
read from stdin.`,
		Example: `  vibegen generate --name "Aditi" --vibe flirty --bio "Loves coffee and Formula 1"
  echo "Liverpool fan, collects vinyl" | vibegen generate --vibe lyrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if opts.parser != "" {
				cfg.Parser = strings.ToLower(opts.parser)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			vibe := defaultVibe(cfg)
			if opts.vibe != "" {
				if vibe, err = ai.ParseVibe(opts.vibe); err != nil {
					return err
				}
			}

			bio := opts.bio
			if !cmd.Flags().Changed("bio") {
				if bio, err = readPipedBio(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read bio from stdin: %w", err)
				}
			}

			source, err := completion.NewSource(cfg)
			if err != nil {
				return err
			}

			req := completion.Request{Name: opts.name, Vibe: vibe, Bio: bio}
			return runGenerate(cmd, source, suggest.ForName(cfg.Parser), req, !opts.noReport)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "", "name of the person the messages are for")
	flags.StringVar(&opts.bio, "bio", "", "bio or a few sentences about the person")
	flags.StringVar(&opts.vibe, "vibe", "", "one of "+strings.Join(ai.VibeNames(), ", ")+" (default from config)")
	flags.StringVar(&opts.parser, "parser", "", "suggestion parser: legacy or numbered (default from config)")
	flags.BoolVar(&opts.noReport, "no-report", false, "only stream the raw text")
	return cmd
}

// runGenerate streams one completion to stdout and optionally prints the
// parsed suggestions afterwards.
func runGenerate(cmd *cobra.Command, source completion.Source, parser suggest.Parser, req completion.Request, report bool) error {
	out := cmd.OutOrStdout()
	consumer := completion.NewConsumer(source)
	h := consumer.Submit(cmd.Context(), req)

	var text string
	for ev := range h.Events() {
		if !ev.Done {
			if _, err := io.WriteString(out, ev.Delta); err != nil {
				h.Cancel()
				return err
			}
			continue
		}
		if ev.Err != nil {
			if ev.Text != "" {
				fmt.Fprintln(out)
			}
			return fmt.Errorf("generation failed: %w", ev.Err)
		}
		text = ev.Text
	}
	fmt.Fprintln(out)

	if !report {
		return nil
	}
	fmt.Fprintln(out)
	_, err := io.WriteString(out, suggest.FormatReport(suggest.Parse(parser, text), reportWidth(out)))
	return err
}

// readPipedBio returns stdin's content unless stdin is a terminal.
func readPipedBio(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func reportWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultReportWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultReportWidth
	}
	return width
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vibegen/pkg/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below debug and carries full prompts and stream payloads.
const LevelTrace = slog.Level(-8)

const defaultLogFile = "vibegen.log"
const (
	maxLogSizeMB  = 5
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Init configures slog to write structured logs to a rotating file.
// Extra writers (stderr for `serve`) receive the same records.
func Init(cfg config.Config, extra ...io.Writer) (*slog.Logger, error) {
	level := parseLogLevel(cfg.LogLevel)
	handlerOptions := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelName,
	}

	logPath := strings.TrimSpace(cfg.LogFile)
	if logPath == "" {
		logPath = defaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		out := io.Discard
		if len(extra) > 0 {
			out = io.MultiWriter(extra...)
		}
		logger := slog.New(newHandler(cfg.LogFormat, out, handlerOptions))
		slog.SetDefault(logger)
		return logger, err
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	}
	if len(extra) > 0 {
		out = io.MultiWriter(append([]io.Writer{out}, extra...)...)
	}

	logger := slog.New(newHandler(cfg.LogFormat, out, handlerOptions))
	slog.SetDefault(logger)
	return logger, nil
}

func defaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(homeDir) == "" {
		return filepath.Join(".vibegen", "logs", defaultLogFile)
	}
	return filepath.Join(homeDir, ".vibegen", "logs", defaultLogFile)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

func newHandler(format string, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		return slog.NewTextHandler(out, opts)
	default:
		return slog.NewJSONHandler(out, opts)
	}
}

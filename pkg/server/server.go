// Package server exposes suggestion generation over HTTP as a chunked
// plain-text stream.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"vibegen/pkg/ai"
	"vibegen/pkg/completion"
	"vibegen/pkg/config"
	"vibegen/pkg/version"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// GeneratePath is the route the endpoint source posts to.
const GeneratePath = "/api/generate"

const shutdownTimeout = 5 * time.Second

// Server streams completions for POST /api/generate.
type Server struct {
	echo   *echo.Echo
	source completion.Source
	cfg    config.ServerConfig
}

// New builds the echo router. Rate limits come from cfg.
func New(cfg config.ServerConfig, source completion.Source) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, source: source, cfg: cfg}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"remote_ip", v.RemoteIP,
				"latency_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				slog.Warn("http_request_error", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("http_request", attrs...)
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.POST(GeneratePath, s.handleGenerate, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: newClientLimiters(cfg.RatePerSecond, cfg.Burst),
	}))

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_start", "addr", ln.Addr().String())
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("server_shutdown")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req completion.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Vibe == "" {
		req.Vibe = ai.DefaultVibe
	}
	vibe, err := ai.ParseVibe(string(req.Vibe))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Vibe = vibe

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	stream, err := s.source.Stream(c.Request().Context(), req)
	if err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadGateway,
			Message:  "completion failed",
			Internal: err,
		}
	}
	defer stream.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderXContentTypeOptions, "nosniff")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	written := 0
	for stream.Next() {
		delta := stream.Content()
		if delta == "" {
			continue
		}
		n, err := io.WriteString(res, delta)
		written += n
		if err != nil {
			slog.Debug("generate_client_gone", "request_id", requestID, "error", err)
			return nil
		}
		res.Flush()
	}

	if err := stream.Err(); err != nil {
		// Headers are out, so the only way to report the failure is to break
		// the chunked body; the client's read then fails instead of seeing EOF.
		slog.Warn("generate_stream_error", "request_id", requestID, "error", err, "bytes", written)
		panic(http.ErrAbortHandler)
	}
	slog.Debug("generate_done", "request_id", requestID, "bytes", written, "vibe", string(vibe))
	return nil
}

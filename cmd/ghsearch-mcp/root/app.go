package root

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ghsearch-mcp/config"
	"github.com/felixgeelhaar/ghsearch-mcp/github"
	"github.com/felixgeelhaar/ghsearch-mcp/logging"
	"github.com/felixgeelhaar/ghsearch-mcp/middleware"
	"github.com/felixgeelhaar/ghsearch-mcp/server"
	"github.com/felixgeelhaar/ghsearch-mcp/telemetry"
	"github.com/felixgeelhaar/ghsearch-mcp/transport"
)

const telemetryShutdownTimeout = 5 * time.Second

// app holds everything a serving command needs, built once from config.
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	logCloser  io.Closer
	tracing    *telemetry.Provider
	registry   *server.Registry
	middleware []middleware.Middleware
}

func newApp(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.envFiles...)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, logCloser: logCloser}

	i := info()
	a.tracing, err = telemetry.Setup(ctx, telemetry.Options{
		Endpoint:       cfg.OTLPEndpoint,
		ServiceName:    i.Name,
		ServiceVersion: i.Version,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	opts := []github.ClientOption{github.WithUserAgent(Name + "/" + appVersion)}
	if cfg.GitHubAPIURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHubAPIURL))
	}
	client, err := github.NewClient(cfg.GitHubToken, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	a.registry, err = newRegistry(client)
	if err != nil {
		a.close()
		return nil, err
	}

	a.middleware = middleware.Stack(middleware.StackConfig{
		Logger:       logging.NewAdapter(logger),
		Timeout:      cfg.RequestTimeout,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		MaxBodyBytes: cfg.MaxRequestBytes,
		OTel: []middleware.OTelOption{
			middleware.WithTracerProvider(a.tracing.TracerProvider),
			middleware.WithOTelServiceName(Name),
			middleware.WithOTelVersion(appVersion),
		},
	})

	logger.WithFields(logrus.Fields{
		"version":  appVersion,
		"timeout":  cfg.RequestTimeout,
		"tracing":  a.tracing.Enabled(),
		"api_url":  cfg.GitHubAPIURL,
		"rate":     cfg.RateLimit,
		"max_body": cfg.MaxRequestBytes,
	}).Debug("configuration loaded")

	return a, nil
}

func newRegistry(s github.Searcher) (*server.Registry, error) {
	tool, err := github.NewSearchTool(s)
	if err != nil {
		return nil, fmt.Errorf("build search tool: %w", err)
	}
	return server.NewRegistry(tool)
}

func (a *app) newServer(t transport.Transport) *server.Server {
	return server.New(t, a.registry, server.WithMiddleware(a.middleware...))
}

func (a *app) close() {
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		if err := a.tracing.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("telemetry shutdown failed")
		}
		cancel()
	}
	_ = a.logCloser.Close()
}

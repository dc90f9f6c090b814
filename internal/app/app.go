package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	server "motion-arena/server"
	"motion-arena/server/internal/channel"
	"motion-arena/server/internal/config"
	servernet "motion-arena/server/internal/net"
	"motion-arena/server/internal/observability"
	"motion-arena/server/internal/telemetry"
	"motion-arena/server/logging"
	loggingSinks "motion-arena/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Settings config.Config
	// Logger overrides the logrus logger built from Settings.
	Logger *logrus.Logger
}

// Run serves the host until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	settings := cfg.Settings
	logger := cfg.Logger
	if logger == nil {
		built, err := telemetry.NewLogrus(settings.LogLevel, settings.LogFormat, os.Stdout)
		if err != nil {
			built.Printf("%v", err)
		}
		logger = built
	}

	stopProfile, err := observability.Start(observability.Config{
		Profile: settings.Profile,
		Path:    settings.ProfilePath,
	})
	if err != nil {
		logger.Printf("profiling disabled: %v", err)
	}
	defer stopProfile()

	logConfig := logging.DefaultConfig()
	logConfig.EnabledSinks = settings.LogSinks
	logConfig.JSON.FilePath = settings.LogJSONPath
	if severity, err := logging.ParseSeverity(settings.LogLevel); err == nil {
		logConfig.MinimumSeverity = severity
	}
	sinks, err := buildSinks(logConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to construct logging sinks: %w", err)
	}
	router := logging.NewRouter(logging.SystemClock{}, logConfig, sinks, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	metrics := &logging.Metrics{}
	bus := channel.NewBus(nil)
	defer bus.Close()

	hubCfg := server.DefaultHubConfig()
	hubCfg.TickRate = settings.TickRate
	hubCfg.BroadcastEvery = settings.BroadcastEvery
	hubCfg.CommandCapacity = settings.CommandCapacity
	hubCfg.PerActorLimit = settings.PerActorLimit
	hubCfg.DefaultGame = settings.DefaultGame
	hubCfg.DisconnectGrace = settings.DisconnectGrace
	hubCfg.Logger = logger
	hubCfg.Publisher = router
	hubCfg.Metrics = metrics

	hub := server.NewHub(bus, hubCfg)
	defer hub.Close()

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		ClientDir:   settings.ClientDir,
		Logger:      logger,
		Publisher:   router,
		RouterStats: router.Stats,
	})

	srv := &http.Server{Addr: settings.Addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Printf("server stopped")
	return nil
}

func buildSinks(cfg logging.Config, logger *logrus.Logger) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	for _, name := range cfg.EnabledSinks {
		switch name {
		case logging.SinkConsole:
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewConsole(os.Stdout)})
		case logging.SinkLogrus:
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewLogrus(logger)})
		case logging.SinkMemory:
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewMemory()})
		case logging.SinkJSON:
			file, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", cfg.JSON.FilePath, err)
			}
			sinks = append(sinks, logging.NamedSink{Name: name, Sink: loggingSinks.NewJSON(file, cfg.JSON.FlushInterval)})
		default:
			logger.Printf("ignoring unknown log sink %q", name)
		}
	}
	return sinks, nil
}

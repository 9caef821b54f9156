package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "solar_follower/docs"
	"solar_follower/internal/config"
	"solar_follower/internal/handlers"
	"solar_follower/internal/logger"
	"solar_follower/internal/metrics"
	"solar_follower/internal/repository"
	"solar_follower/internal/repository/db"
	"solar_follower/internal/server"
	"solar_follower/internal/service"
	"solar_follower/internal/sink"
)

const shutdownTimeout = 10 * time.Second

// @title        Solar Follower API
// @version      1.0
// @description  Coordination backend between the solar tracker device and its web control panel.
// @BasePath     /
func main() {
	// load configs/config.yml + SOLAR_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Format)

	// open DB (control-event log only)
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	sinks, closeSinks := buildSinks(ctx, cfg, log)
	defer closeSinks()

	// wire dependencies
	repos := repository.NewRepository(sqlDB, cfg.Telemetry.Capacity)
	services := service.NewService(repos, service.Options{
		LivenessTimeout: cfg.Liveness.Timeout,
		Sinks:           sinks,
		ForwardQueue:    cfg.Telemetry.ForwardQueue,
		Metrics:         m,
		Log:             log,
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		Metrics:       m,
	})

	// background liveness sweep
	go services.Watchdog.Run(ctx, cfg.Liveness.SweepInterval)

	// telemetry fan-out to the sinks, off the request path
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		services.Forwarder.Forward(ctx)
	}()

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
	// sinks are closed by the deferred closeSinks only after the queue is flushed
	<-forwardDone
}

func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" || path == db.MemoryPath {
		log.Infow("control events kept in memory", "db.path", db.MemoryPath)
	}
	return db.InitDB(path)
}

// buildSinks connects the enabled telemetry sinks, each behind a circuit breaker.
// A sink that cannot connect is logged and skipped; telemetry ingest keeps working.
func buildSinks(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]service.TelemetrySink, func()) {
	var (
		sinks   []service.TelemetrySink
		closers []func()
	)

	if cfg.MQTT.Enabled {
		mq, err := sink.ConnectMQTT(cfg.MQTT, log)
		if err != nil {
			log.Errorw("mqtt_sink_disabled", "err", err)
		} else {
			sinks = append(sinks, sink.NewBreaker(mq, cfg.Breaker, log))
			closers = append(closers, mq.Close)
		}
	}

	if cfg.InfluxDB.Enabled {
		in, err := sink.ConnectInflux(ctx, cfg.InfluxDB)
		if err != nil {
			log.Errorw("influxdb_sink_disabled", "err", err)
		} else {
			log.Infow("influxdb_connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
			sinks = append(sinks, sink.NewBreaker(in, cfg.Breaker, log))
			closers = append(closers, in.Close)
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listen", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

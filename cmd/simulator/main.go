package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"orrery/internal/platform/config"
	"orrery/internal/platform/httpserver"
	"orrery/internal/platform/logger"
	platformredis "orrery/internal/platform/redis"
	"orrery/internal/publish"
	"orrery/internal/publish/broker"
	"orrery/internal/sim/body"
	"orrery/internal/sim/clock"
	"orrery/internal/sim/engine"
	"orrery/internal/sim/scenario"
	"orrery/internal/state"
	httptransport "orrery/internal/transport/http"
	"orrery/pkg/platform/backoff"
	"orrery/pkg/platform/circuit"
)

// main wires dependencies and owns process lifecycle. All behavior lives in
// the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Scenario: bodies from file, or the built-in solar system.
	var bodies []body.Body
	if cfg.ScenarioPath != "" {
		var err error
		bodies, err = scenario.Load(cfg.ScenarioPath)
		if err != nil {
			log.Error("scenario load failed", "path", cfg.ScenarioPath, "error", err)
			os.Exit(1)
		}
	} else {
		bodies = scenario.Default()
	}

	registry := body.NewRegistry()
	for _, b := range bodies {
		if err := registry.Add(ctx, b); err != nil {
			log.Error("registry seed failed", "id", b.ID, "error", err)
			os.Exit(1)
		}
	}
	log.Info("scenario loaded", "bodies", registry.Len())

	// Broker connection is a hard startup dependency.
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	producer, err := broker.New(connectCtx, broker.Config{
		Brokers:        cfg.Brokers,
		ClientID:       cfg.ClientID,
		SASLUser:       cfg.SASLUser,
		SASLPassword:   cfg.SASLPassword,
		TLS:            cfg.TLS,
		RequiredTopics: []string{cfg.PlanetTopic, cfg.ShipTopic},
		QueueSize:      cfg.QueueSize,
		Policy:         broker.EnqueuePolicy(cfg.EnqueuePolicy),
		Retry: backoff.Policy{
			Initial:     cfg.RetryInitial,
			Max:         cfg.RetryMax,
			Multiplier:  2.0,
			MaxAttempts: cfg.RetryAttempts,
		},
		DrainTimeout: cfg.DrainTimeout,
	}, log, broker.WithMetrics(broker.NewMetrics()))
	cancel()
	if err != nil {
		log.Error("broker connection failed", "brokers", cfg.Brokers, "error", err)
		os.Exit(1)
	}

	// Latest-state mirror: always in memory, optionally copied to Redis.
	mirrorOpts := []state.Option{state.WithMetrics(state.NewMetrics())}
	var redisHealth httptransport.HealthChecker
	if cfg.RedisURL != "" {
		rc, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		redisHealth = rc
		mirrorOpts = append(mirrorOpts,
			state.WithSecondary(state.NewRedisStore(rc.Client), circuit.New(5, 30*time.Second)))
	}
	mirror := state.NewMirror(log, mirrorOpts...)

	publisher := publish.New(producer, log,
		publish.WithTopics(publish.Topics{Planets: cfg.PlanetTopic, Ships: cfg.ShipTopic}),
		publish.WithSnapshotSink(mirror),
		publish.WithMetrics(publish.NewMetrics()))

	simClock := clock.New(0)
	stepper := clock.NewStepper(registry, log, clock.WithMetrics(clock.NewMetrics()))
	eng := engine.New(registry, simClock, stepper, publisher, log,
		engine.WithInterval(cfg.TickInterval), engine.WithDT(cfg.DT))

	handler := httptransport.NewHandler(mirror, eng, log)
	if redisHealth != nil {
		handler = handler.WithHealthChecker(redisHealth)
	}
	srv := httpserver.New(cfg.HTTPAddr, httptransport.NewRouter(handler))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The worker stops via producer.Close below, not via gctx, so a
		// shutdown signal cannot abort records the drain can still flush.
		return producer.Run()
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown failed", "error", err)
		}

		// Drain queued updates before the process exits; at-least-once
		// holds up to the drain timeout.
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		defer cancel()
		if err := producer.Close(drainCtx); err != nil {
			log.Warn("broker drain incomplete", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("simulator exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("simulator stopped")
}

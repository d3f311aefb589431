// Command zortexd is zortex-core's entry point: it wires configuration,
// logging, the XP and notification stores, the event bus, the inspection
// HTTP server, and the background schedulers, then waits for a shutdown
// signal. Wiring order: config -> logger -> bus/registries -> calculator ->
// stores -> services -> router -> background pollers -> signal handling ->
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zortex-io/zortex-core/internal/channel"
	"github.com/zortex-io/zortex-core/internal/config"
	"github.com/zortex-io/zortex-core/internal/eventbus"
	"github.com/zortex-io/zortex-core/internal/httpapi"
	"github.com/zortex-io/zortex-core/internal/logging"
	"github.com/zortex-io/zortex-core/internal/metrics"
	"github.com/zortex-io/zortex-core/internal/notify"
	"github.com/zortex-io/zortex-core/internal/store"
	"github.com/zortex-io/zortex-core/internal/xp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err) // no logger yet to report through
	}

	log := logging.New(cfg)
	log.Info().Str("env", cfg.Env).Msg("zortex-core starting")

	bus := eventbus.New(log)
	persistMgr := store.NewPersistenceManager(cfg.Persistence.BatchWindow, log)
	registry := metrics.NewRegistry()

	calc := xp.NewCalculator(cfg.XP)

	xpStore := xp.NewStore(filepath.Join(cfg.DataDir, "xp_state.json"), calc, bus, registry, log)
	if err := xpStore.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load xp state")
	}
	persistMgr.Register(xpStore)

	xpService := xp.NewService(calc, xpStore, bus, log)
	_ = xpService // kept alive via bus subscriptions registered in NewService

	channels := map[string]channel.Channel{
		"log": channel.NewLogChannel(log),
	}
	notifyMgr := notify.NewManager(filepath.Join(cfg.DataDir, "notifications_state.json"), channels, bus, registry, log)
	if err := notifyMgr.Load(); err != nil {
		log.Fatal().Err(err).Msg("failed to load notification state")
	}
	persistMgr.Register(notifyMgr)

	scheduler := notify.NewScheduler(notifyMgr, cfg.Notifications.CheckInterval, log)

	router := httpapi.NewRouter(cfg, log, xpStore, calc, notifyMgr, registry)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	persistMgr.Start()
	scheduler.Start()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("inspection api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("inspection api failed")
		}
	}()

	<-done
	log.Info().Msg("shutdown signal received")

	scheduler.Stop()
	persistMgr.Stop() // final flush of every registered store

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("zortex-core stopped gracefully")
	}
}

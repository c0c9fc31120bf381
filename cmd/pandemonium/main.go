// Command pandemonium runs the Eludris gateway (§4.10, §6.3).
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/config"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/db"
	"github.com/eludris-go/eludris/internal/gateway"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/logging"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/presence"
	"github.com/eludris-go/eludris/internal/pubsub"
	"github.com/eludris-go/eludris/internal/ratelimit"
	"github.com/eludris-go/eludris/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to instance config YAML (§6.5)")
	addr := flag.String("addr", ":7160", "address to listen on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.New("pandemonium", cfg.Log)
	log.Info().Str("addr", *addr).Msg("starting pandemonium")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := db.Migrate(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	gen := ids.NewGenerator(cfg.WorkerID)
	entities := store.New(database, gen)
	sharedCache := cache.NewMemory(cfg.Cache.CleanupInterval)
	signer := cryptoutil.NewSigner([]byte(cfg.Secret))
	limiter := ratelimit.New(sharedCache)
	pres := presence.New(sharedCache)
	bus := pubsub.New[models.Envelope](64)

	srv := gateway.NewServer(entities, signer, pres, limiter, bus, cfg.Pandemonium, cfg.InstanceInfo(true), log)

	mux := http.NewServeMux()
	mux.Handle("/", srv)

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown pandemonium")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("serve pandemonium")
	}
	log.Info().Msg("pandemonium stopped")
}

// Command effis runs the Eludris CDN/file service (§4.6, §6.1).
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
	"github.com/eludris-go/eludris/internal/db"
	"github.com/eludris-go/eludris/internal/effis"
	"github.com/eludris-go/eludris/internal/filestore"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/logging"
	"github.com/eludris-go/eludris/internal/ratelimit"
	"github.com/eludris-go/eludris/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to instance config YAML (§6.5)")
	addr := flag.String("addr", ":7161", "address to listen on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.New("effis", cfg.Log)
	log.Info().Str("addr", *addr).Str("root", cfg.Effis.Root).Msg("starting effis")

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
	limiter := ratelimit.New(sharedCache)
	files := filestore.New(cfg.Effis.Root, entities, gen)

	// The URL proxy's outbound client carries no explicit timeout or
	// redirect cap beyond net/http's defaults (§5) — only the byte
	// ceiling filestore.ProxyFetch enforces is specific to this route.
	client := &http.Client{}

	srv := effis.New(files, cfg, limiter, client, log)

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown effis")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("serve effis")
	}
	log.Info().Msg("effis stopped")
}

// Command oprish runs the Eludris REST API (§4.11, §6.1).
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/config"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/db"
	"github.com/eludris-go/eludris/internal/email"
	"github.com/eludris-go/eludris/internal/embeds"
	"github.com/eludris-go/eludris/internal/filestore"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/logging"
	"github.com/eludris-go/eludris/internal/messages"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/presence"
	"github.com/eludris-go/eludris/internal/pubsub"
	"github.com/eludris-go/eludris/internal/ratelimit"
	"github.com/eludris-go/eludris/internal/rest"
	"github.com/eludris-go/eludris/internal/store"
	"github.com/eludris-go/eludris/internal/sweep"
)

func main() {
	configPath := flag.String("config", "", "path to instance config YAML (§6.5)")
	addr := flag.String("addr", ":7159", "address to listen on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log := logging.New("oprish", cfg.Log)
	log.Info().Str("addr", *addr).Msg("starting oprish")

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
	files := filestore.New(cfg.Effis.Root, entities, gen)
	embedGen := embeds.New(embeds.DefaultConfig(), sharedCache)
	msgs := messages.New(entities, gen, embedGen, bus)
	mailer := email.New(cfg.Email)

	sw := sweep.New(entities, log)
	if err := sw.Start(); err != nil {
		log.Fatal().Err(err).Msg("start sweep")
	}
	defer sw.Stop()

	srv := rest.New(entities, signer, gen, limiter, pres, bus, msgs, files, mailer, cfg, log)

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
			log.Error().Err(err).Msg("shutdown oprish")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("serve oprish")
	}
	log.Info().Msg("oprish stopped")
	_ = os.Stdout.Sync()
}

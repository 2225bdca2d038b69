package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		closer, err := applog.TeeToFile(cfg.LogFile)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer closer.Close()
		}
	}

	db, err := repos.Open(cfg.DBDSN, cfg.SeedDemo)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	deps := handlers.NewDeps(db, cfg)
	app := handlers.NewApp(cfg, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on :%s", cfg.Port)
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.Fatalf("[http] server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Println("[http] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[http] shutdown: %v", err)
		}
	}
}

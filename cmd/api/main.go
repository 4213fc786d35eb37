package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotamart/storefront-backend/config"
	"github.com/kotamart/storefront-backend/internal/bootstrap"
	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/products"
	"github.com/kotamart/storefront-backend/internal/session"
	"github.com/kotamart/storefront-backend/internal/storage"
	"github.com/kotamart/storefront-backend/internal/suggestions"
	"github.com/kotamart/storefront-backend/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	fb, err := bootstrap.InitFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatalf("firebase: %v", err)
	}
	defer fb.Close()

	rdb, err := bootstrap.RedisFromConfig(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	provider, err := identity.NewFirebaseProvider(fb.Auth, cfg.Firebase.WebAPIKey)
	if err != nil {
		log.Fatalf("identity provider: %v", err)
	}

	userRepo := users.NewRepo(fb.DB)

	sessions := session.NewManager(provider, userRepo, cfg.Session.IdleTTL)
	defer sessions.Close()

	var images *storage.Store
	if fb.Bucket != nil {
		images = storage.New(fb.Bucket, cfg.Firebase.StorageBucket)
	}

	suggestClient := suggestions.NewClient(cfg.Suggest.BaseURL)
	suggestCatalog := products.NewRepo(fb.DB, products.NewListCache(rdb), images)
	suggestSvc := suggestions.NewService(suggestClient, suggestCatalog, rdb)

	scheduler := suggestions.NewScheduler(suggestSvc)
	if err := scheduler.Start(cfg.Suggest.CronSpec); err != nil {
		log.Printf("suggestions scheduler: %v", err)
	}
	defer scheduler.Stop()

	deps := bootstrap.RouterDeps{
		ServiceName:    "storefront-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CartTTL:        cfg.Session.CartTTL,
		DB:             fb.DB,
		Redis:          rdb,
		Sessions:       sessions,
		Users:          userRepo,
		Suggest:        suggestSvc,
	}
	if images != nil {
		deps.Images = images
		deps.Uploads = images
	}

	router := bootstrap.BuildRouter(deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

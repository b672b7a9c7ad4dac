package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ziroworld/ailav-client/config"
	"github.com/Ziroworld/ailav-client/devserver"
	"github.com/Ziroworld/ailav-client/devserver/database"
	"github.com/Ziroworld/ailav-client/logger"
)

func main() {
	cfg := config.LoadServer()
	logger.Initialize(cfg.Env)
	defer logger.Log.Sync() //nolint:errcheck

	opts := devserver.Options{}

	// Without an external user store, seed demo accounts so the SDK
	// demo has something to log in with.
	if cfg.DatabaseURL == "" {
		users := database.NewMemoryUserRepository()
		if _, err := devserver.SeedUser(users, "Demo Admin", "admin@ailav.dev", "admin123", "admin"); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
		if _, err := devserver.SeedUser(users, "Demo Customer", "customer@ailav.dev", "customer123", "customer"); err != nil {
			log.Fatalf("failed to seed customer: %v", err)
		}
		log.Println("Seeded demo accounts: admin@ailav.dev/admin123, customer@ailav.dev/customer123")
		opts.Users = users
	}

	router := devserver.New(cfg, opts)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Dev server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server shutdown complete.")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hive-corporation/alert-enricher/internal/adapter/handler"
	"github.com/hive-corporation/alert-enricher/internal/app"
	"github.com/hive-corporation/alert-enricher/internal/config"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (using process environment)")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	rt, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Failed to start enrichment runtime: %v", err)
	}
	defer rt.Close()

	restHandler := handler.NewRestHandler(rt.Enricher, rt.Repo)
	router := handler.NewRouter(restHandler, cfg.RestAuthToken)

	srv := &http.Server{
		Addr:         ":" + cfg.RestPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // an alert with many public IPs waits on rate-limited lookups
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("🚀 Alert enricher REST API listening on port %s", cfg.RestPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
		return
	}

	log.Println("✅ Server stopped gracefully")
}

package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/hive-corporation/alert-enricher/internal/adapter/handler"
	"github.com/hive-corporation/alert-enricher/internal/app"
	"github.com/hive-corporation/alert-enricher/internal/config"
)

func main() {
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

	lis, err := net.Listen("tcp", cfg.GRPCListenAddr)
	if err != nil {
		log.Fatalf("❌ failed to listen: %v", err)
	}

	s := grpc.NewServer()
	handler.RegisterEnrichmentServer(s, handler.NewGrpcServer(rt.Enricher))

	go func() {
		log.Printf("🚀 Alert enricher gRPC API listening on %s", cfg.GRPCListenAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("❌ failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	s.GracefulStop()
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hive-corporation/alert-enricher/internal/adapter/stream"
	"github.com/hive-corporation/alert-enricher/internal/app"
	"github.com/hive-corporation/alert-enricher/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Consumer stopped: %v", err)
		os.Exit(1)
	}
	log.Println("✅ Consumer stopped gracefully")
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found (using process environment)")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ValidateKafka(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start enrichment runtime: %w", err)
	}
	defer rt.Close()

	processor := stream.NewProcessor(
		stream.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaInputTopic, cfg.KafkaGroupID),
		stream.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOutputTopic),
		rt.Enricher,
	)
	defer func() {
		if err := processor.Close(); err != nil {
			log.Printf("⚠️  Error closing Kafka clients: %v", err)
		}
	}()

	log.Printf("🚀 Consuming alarms from %s, publishing results to %s", cfg.KafkaInputTopic, cfg.KafkaOutputTopic)

	return processor.Run(ctx)
}

package app

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hive-corporation/alert-enricher/internal/adapter/geoip"
	"github.com/hive-corporation/alert-enricher/internal/adapter/metrics"
	"github.com/hive-corporation/alert-enricher/internal/adapter/notifier"
	"github.com/hive-corporation/alert-enricher/internal/adapter/repository"
	"github.com/hive-corporation/alert-enricher/internal/config"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
	"github.com/hive-corporation/alert-enricher/internal/core/service"
)

// Runtime is the enrichment pipeline with its optional audit sinks, as shared
// by the REST, gRPC and Kafka binaries.
type Runtime struct {
	Enricher ports.Enricher
	// Repo is nil when no DATABASE_URL is configured.
	Repo ports.AlertRepository

	pool      *pgxpool.Pool
	batchSink *repository.BatchSink
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New connects the configured sinks and builds the instrumented pipeline.
// Close must be called to flush pending audit records.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	metrics.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	rt := &Runtime{}
	sinks := []ports.AlertSink{service.NewLogSink(nil)}

	if cfg.DatabaseURL != "" {
		log.Println("🔌 Database connection...")
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		repo := repository.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}

		rt.pool = pool
		rt.Repo = repo
		rt.batchSink = repository.NewBatchSink(repo, cfg.AuditBatchSize, cfg.AuditFlushInterval)
		sinks = append(sinks, rt.batchSink)

		runCtx, cancel := context.WithCancel(context.Background())
		rt.cancel = cancel
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			rt.batchSink.Run(runCtx)
		}()
		log.Println("✅ Postgres audit sink enabled")
	} else {
		log.Println("⚠️  Postgres audit sink disabled (no DATABASE_URL)")
	}

	if cfg.SlackBotToken != "" {
		sinks = append(sinks, notifier.NewSlackNotifier(
			cfg.SlackBotToken,
			cfg.SlackChannel,
			cfg.SlackMentionTeam,
			cfg.SlackMinSeverity,
		))
		log.Printf("✅ Slack notifier enabled (min severity %s)", cfg.SlackMinSeverity)
	} else {
		log.Println("⚠️  Slack notifier disabled (no SLACK_BOT_TOKEN)")
	}

	locator := geoip.NewIPAPILocator(cfg.GeoTimeout)
	geo := service.NewGeoContextProvider(locator, cfg.GeoTimeout)
	log.Printf("✅ Geolocation via %s (timeout %v)", locator.Name(), cfg.GeoTimeout)

	rt.Enricher = metrics.Instrument(service.NewPipeline(geo, service.WithSinks(sinks...)))

	return rt, nil
}

// Close stops the audit batch loop, flushing pending records, then closes the pool.
func (rt *Runtime) Close() {
	if rt.cancel != nil {
		rt.cancel()
		rt.wg.Wait()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

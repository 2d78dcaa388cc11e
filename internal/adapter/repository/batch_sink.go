package repository

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

var ErrSinkClosed = errors.New("batch sink closed")

// BatchSink buffers recorded alerts and writes them with SaveBatch, either when
// the batch is full or when the flush interval elapses. Record never blocks on
// the database; it fails fast when the buffer is full. Every Record that
// returns nil is either saved or reported by the final flush.
type BatchSink struct {
	repo    ports.AlertRepository
	records chan domain.RecordedAlert

	// mu orders sends on records against shutdown: once closed is set no
	// further send can land in the buffer behind the final drain.
	mu     sync.Mutex
	closed bool

	batchSize int
	interval  time.Duration
	now       func() time.Time
}

func NewBatchSink(repo ports.AlertRepository, batchSize int, interval time.Duration) *BatchSink {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &BatchSink{
		repo:      repo,
		records:   make(chan domain.RecordedAlert, batchSize*4),
		batchSize: batchSize,
		interval:  interval,
		now:       time.Now,
	}
}

func (s *BatchSink) Name() string {
	return "postgres-batch"
}

func (s *BatchSink) Record(ctx context.Context, alert *domain.EnrichedAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := NewRecord(*alert, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.records <- rec:
		return nil
	default:
		return errors.New("batch sink buffer full")
	}
}

// close stops Record from accepting alerts. Sends already under way finish
// before it returns, so the buffer holds everything that was accepted.
func (s *BatchSink) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Run flushes batches until ctx is cancelled, then writes whatever is left.
// It returns the number of records saved.
func (s *BatchSink) Run(ctx context.Context) int {
	var batch []domain.RecordedAlert
	totalSaved := 0

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		// Use a fresh context so the final flush still runs after shutdown.
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.repo.SaveBatch(flushCtx, batch); err != nil {
			log.Printf("❌ Error saving alert batch (%s): %v", reason, err)
		} else {
			totalSaved += len(batch)
			log.Printf("📦 Alert batch saved (%s): %d items (Total: %d)", reason, len(batch), totalSaved)
		}
		batch = nil
	}

	for {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
			if len(batch) >= s.batchSize {
				flush("size")
			}

		case <-ticker.C:
			flush("ticker")

		case <-ctx.Done():
			s.close()
			for {
				select {
				case rec := <-s.records:
					batch = append(batch, rec)
				default:
					flush("final")
					return totalSaved
				}
			}
		}
	}
}

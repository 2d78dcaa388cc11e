package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
	"github.com/hive-corporation/alert-enricher/internal/core/ports"
)

// Pipeline enriches one raw alarm notification per call. It holds no per-call
// state and is safe for concurrent use.
type Pipeline struct {
	geo   *GeoContextProvider
	sinks []ports.AlertSink
	now   func() time.Time
}

type Option func(*Pipeline)

// WithClock replaces time.Now as the source of default timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithSinks registers audit sinks that receive every successful alert.
// Sink failures are logged and never change the result.
func WithSinks(sinks ...ports.AlertSink) Option {
	return func(p *Pipeline) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func NewPipeline(geo *GeoContextProvider, opts ...Option) *Pipeline {
	if geo == nil {
		geo = NewGeoContextProvider(nil, DefaultGeoTimeout)
	}
	p := &Pipeline{
		geo: geo,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enrich always returns a well-formed Success or Failure result.
func (p *Pipeline) Enrich(ctx context.Context, raw []byte) (result domain.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Failed to enrich alert: unexpected error: %v", r)
			result = domain.FailureResult(fmt.Errorf("unexpected error: %v", r))
		}
	}()

	alert, err := p.enrich(ctx, raw)
	if err != nil {
		log.Printf("❌ Failed to enrich alert: %v", err)
		return domain.FailureResult(err)
	}

	p.record(ctx, alert)

	return domain.SuccessResult(alert)
}

func (p *Pipeline) enrich(ctx context.Context, raw []byte) (*domain.EnrichedAlert, error) {
	alarm, err := domain.ParseNotification(raw, p.now())
	if err != nil {
		return nil, err
	}

	log.Printf("📥 Processing alarm: %s (state: %s)", alarm.Name, alarm.NewState)

	indicators := domain.ExtractIndicators(alarm.StateReason)
	verdict := domain.ClassifyAlarm(alarm.Name)

	alert := &domain.EnrichedAlert{
		Timestamp:        alarm.Timestamp,
		AlarmName:        alarm.Name,
		AlarmDescription: alarm.Description,
		State:            alarm.NewState,
		DetectionType:    verdict.DetectionType,
		Severity:         verdict.Severity,
		SourceIndicators: make([]domain.IndicatorContext, 0, len(indicators)),
		Recommendations:  verdict.Recommendations,
	}

	// Sequential on purpose: the geolocation API allows only a few dozen calls per minute.
	for _, addr := range indicators {
		alert.SourceIndicators = append(alert.SourceIndicators, domain.IndicatorContext{
			Address: addr,
			Geo:     p.geo.Resolve(ctx, addr),
		})
	}

	return alert, nil
}

func (p *Pipeline) record(ctx context.Context, alert *domain.EnrichedAlert) {
	for _, sink := range p.sinks {
		if err := recordSafely(ctx, sink, alert); err != nil {
			log.Printf("⚠️  Failed to record alert in %s: %v", sink.Name(), err)
		}
	}
}

// recordSafely turns a sink panic into an error so the alert, already
// enriched, is still returned and the remaining sinks still run.
func recordSafely(ctx context.Context, sink ports.AlertSink, alert *domain.EnrichedAlert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Record(ctx, alert)
}

// LogSink writes each enriched alert to the process log as indented JSON.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink uses the standard logger when logger is nil.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Record(_ context.Context, alert *domain.EnrichedAlert) error {
	data, err := json.MarshalIndent(alert, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	s.logger.Printf("[ALERT] %s", data)
	return nil
}

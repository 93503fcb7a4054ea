package sheets

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RetryConfig configures exponential backoff between append attempts.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig suits the Sheets API write quota.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:     4,
	InitialDelay:   time.Second,
	MaxDelay:       30 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.2,
}

// Job is one pending row.
type Job struct {
	ID    string
	Sheet string
	Row   []string
}

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	QueueSize int
	Retry     RetryConfig
	// OnFailure is called once a job is dropped after its last attempt.
	OnFailure func(Job, error)
}

// Syncer forwards rows to an Appender from a single background worker so rows
// land in the order they were enqueued.
type Syncer struct {
	app  Appender
	jobs chan Job
	opts SyncerOptions
	log  zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewSyncer creates a Syncer. Call Start before enqueueing.
func NewSyncer(app Appender, opts SyncerOptions, log zerolog.Logger) *Syncer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Retry.BackoffFactor <= 0 {
		opts.Retry.BackoffFactor = 2.0
	}
	return &Syncer{
		app:  app,
		jobs: make(chan Job, opts.QueueSize),
		opts: opts,
		log:  log.With().Str("component", "sheets").Logger(),
	}
}

// Start launches the worker. ctx bounds every remote call.
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.worker(ctx)
}

// Enqueue schedules row for sheet without blocking. It reports false when the
// queue is full or stopped; the row is then dropped.
func (s *Syncer) Enqueue(sheet string, row []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	job := Job{ID: uuid.NewString(), Sheet: sheet, Row: append([]string(nil), row...)}
	select {
	case s.jobs <- job:
		return true
	default:
		s.log.Warn().Str("sheet", sheet).Msg("sync queue full, dropping row")
		return false
	}
}

// Stop closes the queue and waits for queued rows to drain or ctx to expire.
func (s *Syncer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) worker(ctx context.Context) {
	defer s.wg.Done()
	for job := range s.jobs {
		s.process(ctx, job)
	}
}

func (s *Syncer) process(ctx context.Context, job Job) {
	err := withRetry(ctx, s.opts.Retry, func(ctx context.Context) error {
		return s.app.AppendRow(ctx, job.Sheet, job.Row)
	})
	if err == nil {
		s.log.Debug().Str("job_id", job.ID).Str("sheet", job.Sheet).Msg("row synced")
		return
	}

	s.log.Error().Err(err).Str("job_id", job.ID).Str("sheet", job.Sheet).Msg("row sync failed")
	if s.opts.OnFailure != nil {
		s.opts.OnFailure(job, err)
	}
}

// withRetry runs fn until it succeeds, returns a non-retryable SyncError,
// ctx ends, or the retries are exhausted.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var syncErr *SyncError
		if errors.As(err, &syncErr) && !syncErr.Retryable {
			return err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(cfg, attempt)):
		}
	}
	return lastErr
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.JitterFraction > 0 {
		delay += delay * cfg.JitterFraction * (rand.Float64()*2 - 1)
		if delay < 0 {
			delay = float64(cfg.InitialDelay)
		}
	}
	return time.Duration(delay)
}

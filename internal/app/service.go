// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	submissionqueue "github.com/modularizer/gulfer/internal/adapters/mq/queue"
	workerpool "github.com/modularizer/gulfer/internal/adapters/mq/worker"
	"github.com/modularizer/gulfer/internal/adapters/repository"
	"github.com/modularizer/gulfer/internal/domain/dedupe"
	"github.com/modularizer/gulfer/internal/domain/method"
	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/internal/engine"
	"github.com/modularizer/gulfer/pkg/logger"
	"github.com/modularizer/gulfer/pkg/metrics"
)

// Store backend identifiers recognized by the service.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      submissionqueue.Queue
	registry   *method.Registry
	engine     *engine.Engine
	workerPool *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	storeBackend string
	sqlitePath   string

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreBackend selects the persistence backend by name.
func WithStoreBackend(backend string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
	}
}

// WithSQLitePath sets the database file path for the sqlite backend.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithStore injects a prebuilt store, overriding the backend selection.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    100000,
		dedupeSize:   50000,
		storeBackend: BackendMemory,
		sqlitePath:   "gulfer.db",
		stopCh:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.store == nil {
		switch s.storeBackend {
		case BackendSQLite:
			db, err := repository.OpenSQLite(s.sqlitePath, s.logger.Named("sqlite"))
			if err != nil {
				return fmt.Errorf("open sqlite store: %w", err)
			}
			s.store = repository.NewSQLStore(db)
			s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
		default:
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
		submissionqueue.WithBufferSize(s.queueSize),
	)

	s.registry = method.NewRegistry()
	if err := method.RegisterBuiltins(s.registry); err != nil {
		return fmt.Errorf("register scoring methods: %w", err)
	}

	s.engine = engine.New(s.store, s.registry, engine.WithLogger(s.logger.Named("engine")))

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.engine, s.deduper)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping scoring service...")

	// Close the queue first so workers drain it and exit their loops.
	if q, ok := s.queue.(*submissionqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// Store exposes the persistence layer for setup operations such as
// registering sports, formats, venues, events, and participants.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Methods exposes the scoring method registry so callers can register
// custom strategies before traffic starts.
func (s *Service) Methods() *method.Registry {
	return s.registry
}

// SeenAndRecord atomically checks if a submission id was seen and records
// it if not. Returns true if the submission was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord removes a submission id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a score for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, sub model.ScoreSubmission) bool {
	ok := s.queue.Enqueue(ctx, sub)
	if !ok {
		s.logger.Warn(ctx, "submission queue full",
			logger.String("submission_id", sub.SubmissionID),
			logger.String("event_id", sub.EventID),
		)
	}
	return ok
}

// SetStageScore records a raw score synchronously, bypassing the queue.
func (s *Service) SetStageScore(ctx context.Context, eventID, stageID, participantID string, value model.Value) error {
	return s.engine.SetStageScore(ctx, eventID, stageID, participantID, value)
}

// EventScores returns the recomputed standings for an event.
func (s *Service) EventScores(ctx context.Context, eventID string) (*engine.EventScores, error) {
	return s.engine.EventScores(ctx, eventID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["scoringMethods"] = s.registry.Names()

		counts := s.store.Count(ctx)
		stats["store"] = counts
		metrics.UpdateStoreEvents(counts.Events)
		metrics.UpdateStoreScores(counts.Scores)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Package scheduler periodically triggers catalog syncs for active connections.
// It is a caller of the sync engine like the admin API; the tracker's
// one-run-per-connection gate applies to it the same way.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/domain/integration"
)

// ConnectionLister lists the connections due for a periodic sync
type ConnectionLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CatalogSyncer runs a full catalog sync for one connection
type CatalogSyncer interface {
	SyncProducts(ctx context.Context, connectionID uuid.UUID) (*integration.SyncResult, error)
}

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Interval between sweeps over the active connections
	Interval time.Duration
	// Workers is the number of concurrent sync runs
	Workers int
	// JobTimeout bounds one run; it should exceed the sync run budget
	JobTimeout time.Duration
	// QueueSize is the capacity of the pending job queue
	QueueSize int
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Interval:   time.Hour,
		Workers:    2,
		JobTimeout: 6 * time.Minute,
		QueueSize:  100,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 || c.Workers <= 0 || c.JobTimeout <= 0 || c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler feeds active connections to a worker pool on a fixed interval.
// A connection already queued is not queued twice.
type SyncScheduler struct {
	config SyncSchedulerConfig
	lister ConnectionLister
	syncer CatalogSyncer
	logger *zap.Logger

	jobs      chan uuid.UUID
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	queued    map[uuid.UUID]struct{}
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, lister ConnectionLister, syncer CatalogSyncer, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config: config,
		lister: lister,
		syncer: syncer,
		logger: logger.Named("sync_scheduler"),
		queued: make(map[uuid.UUID]struct{}),
	}, nil
}

// Start starts the workers and the trigger loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan uuid.UUID, s.config.QueueSize)
	s.queued = make(map[uuid.UUID]struct{})
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels in-flight runs and waits for the workers to exit
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues one connection for a sync run
func (s *SyncScheduler) Submit(connectionID uuid.UUID) error {
	_, err := s.submit(connectionID)
	return err
}

// submit reports false when the connection was already waiting in the queue
func (s *SyncScheduler) submit(connectionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return false, ErrSchedulerNotRunning
	}
	if _, ok := s.queued[connectionID]; ok {
		return false, nil
	}
	select {
	case s.jobs <- connectionID:
		s.queued[connectionID] = struct{}{}
		return true, nil
	default:
		return false, ErrJobQueueFull
	}
}

// Trigger queues every active connection and returns how many were newly queued
func (s *SyncScheduler) Trigger(ctx context.Context) (int, error) {
	ids, err := s.lister.ListActiveIDs(ctx)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for i, id := range ids {
		queued, err := s.submit(id)
		if err != nil {
			if errors.Is(err, ErrJobQueueFull) {
				s.logger.Warn("Sync queue full, deferring to next tick",
					zap.Int("remaining", len(ids)-i))
			}
			return submitted, err
		}
		if queued {
			submitted++
		}
	}
	return submitted, nil
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncScheduler) tick(ctx context.Context) {
	n, err := s.Trigger(ctx)
	if err != nil && !errors.Is(err, ErrJobQueueFull) && !errors.Is(err, ErrSchedulerNotRunning) {
		s.logger.Error("Failed to list connections for sync", zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled connection syncs", zap.Int("submitted", n))
}

func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-s.jobs:
			if !ok {
				return
			}
			s.release(id)
			s.run(ctx, id, workerID)
		}
	}
}

func (s *SyncScheduler) release(id uuid.UUID) {
	s.mu.Lock()
	delete(s.queued, id)
	s.mu.Unlock()
}

func (s *SyncScheduler) run(ctx context.Context, connectionID uuid.UUID, workerID int) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("connection_id", connectionID.String()),
	)

	result, err := s.syncer.SyncProducts(jobCtx, connectionID)
	switch {
	case err == nil:
		log.Info("Scheduled sync completed",
			zap.Bool("success", result.Success),
			zap.Int("added", result.Added),
			zap.Int("updated", result.Updated),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
		)
	case errors.Is(err, integration.ErrConcurrentSync):
		log.Debug("Sync already in progress, skipping")
	case errors.Is(err, integration.ErrSyncSuperseded):
		log.Warn("Scheduled sync was superseded by a newer run", zap.Error(err))
	case errors.Is(err, integration.ErrConnectionInactive), errors.Is(err, integration.ErrCredentialsNotFound):
		log.Info("Connection no longer syncable, skipping", zap.Error(err))
	default:
		log.Error("Scheduled sync failed", zap.Error(err))
	}
}

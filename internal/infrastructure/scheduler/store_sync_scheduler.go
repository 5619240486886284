package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semdin/sellerx-backend/internal/domain/store"
)

// SyncKind selects which feed a sync job pulls for its store
type SyncKind string

const (
	SyncKindOrders      SyncKind = "ORDERS"
	SyncKindSettlements SyncKind = "SETTLEMENTS"
	SyncKindProducts    SyncKind = "PRODUCTS"
)

// SyncJobStatus represents the status of a store sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob represents one scheduled sync run for a store
type SyncJob struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	Kind        SyncKind
	Status      SyncJobStatus
	Error       string
	Summary     string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewSyncJob creates a pending sync job for a store
func NewSyncJob(storeID uuid.UUID, kind SyncKind, maxRetries int) *SyncJob {
	return &SyncJob{
		ID:         uuid.New(),
		StoreID:    storeID,
		Kind:       kind,
		Status:     SyncJobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful with a human-readable result summary
func (j *SyncJob) Complete(summary string) {
	now := time.Now()
	j.Status = SyncJobStatusSuccess
	j.Summary = summary
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *SyncJob) ShouldRetry() bool {
	return j.Status == SyncJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *SyncJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = SyncJobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// SyncExecutor executes store sync jobs
type SyncExecutor interface {
	Execute(ctx context.Context, job *SyncJob) error
}

// StoreLister enumerates the stores due for periodic syncing
type StoreLister interface {
	List(ctx context.Context) ([]*store.Store, error)
}

// Config holds store sync scheduler configuration
type Config struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	SyncInterval      time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        15 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        1 * time.Minute,
		SyncInterval:      6 * time.Hour,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.SyncInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// StoreSyncScheduler runs store sync jobs on a worker pool and periodically
// enqueues order and settlement syncs for every known store.
type StoreSyncScheduler struct {
	config   Config
	executor SyncExecutor
	stores   StoreLister
	logger   *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewStoreSyncScheduler creates a new store sync scheduler
func NewStoreSyncScheduler(config Config, executor SyncExecutor, stores StoreLister, logger *zap.Logger) (*StoreSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &StoreSyncScheduler{
		config:     config,
		executor:   executor,
		stores:     stores,
		logger:     logger,
		jobs:       make(chan *SyncJob, 100),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the worker pool and the periodic sync trigger
func (s *StoreSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	if s.stores != nil {
		s.wg.Add(1)
		go s.intervalLoop(ctx)
	}

	s.logger.Info("Store sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("sync_interval", s.config.SyncInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *StoreSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	// Closed under the same mutex that guards every send, so a worker
	// re-queuing a retry can never hit a closed channel.
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Store sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Store sync scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob submits a job for execution
func (s *StoreSyncScheduler) SubmitJob(job *SyncJob) error {
	if err := s.enqueue(job); err != nil {
		return err
	}
	s.logger.Debug("Sync job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("store_id", job.StoreID.String()),
		zap.String("kind", string(job.Kind)),
	)
	return nil
}

// enqueue performs a non-blocking send into the job queue. The running check
// and the send happen under one mutex hold so no send can race Stop closing
// the channel.
func (s *StoreSyncScheduler) enqueue(job *SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleSync enqueues one sync job for a store
func (s *StoreSyncScheduler) ScheduleSync(storeID uuid.UUID, kind SyncKind) error {
	return s.SubmitJob(NewSyncJob(storeID, kind, s.config.RetryAttempts))
}

// intervalLoop periodically enqueues order and settlement syncs per store
func (s *StoreSyncScheduler) intervalLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.enqueueAllStores(ctx)
		}
	}
}

func (s *StoreSyncScheduler) enqueueAllStores(ctx context.Context) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list stores for periodic sync", zap.Error(err))
		return
	}

	for _, st := range stores {
		for _, kind := range []SyncKind{SyncKindOrders, SyncKindSettlements} {
			if err := s.ScheduleSync(st.ID, kind); err != nil {
				s.logger.Warn("Failed to enqueue periodic sync",
					zap.String("store_id", st.ID.String()),
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
			}
		}
	}
}

// worker processes jobs from the queue
func (s *StoreSyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *StoreSyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		if err := s.enqueue(job); err != nil {
			s.logger.Warn("Failed to re-queue sync job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
		return
	}

	job.Start()
	s.logger.Info("Processing sync job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("store_id", job.StoreID.String()),
		zap.String("kind", string(job.Kind)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		s.logger.Error("Sync job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("store_id", job.StoreID.String()),
			zap.String("kind", string(job.Kind)),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Sync job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			if err := s.enqueue(job); err != nil {
				s.logger.Warn("Failed to re-queue sync job for retry",
					zap.String("job_id", job.ID.String()),
					zap.Error(err),
				)
			}
		}

		s.addToHistory(job)
		return
	}

	s.logger.Info("Sync job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("store_id", job.StoreID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("summary", job.Summary),
	)
	s.addToHistory(job)
}

// addToHistory adds a completed job to history, newest first
func (s *StoreSyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history
func (s *StoreSyncScheduler) GetJobHistory(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByStore returns job history for one store
func (s *StoreSyncScheduler) GetJobHistoryByStore(storeID uuid.UUID, limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*SyncJob, 0, limit)
	for _, job := range s.history {
		if job.StoreID == storeID {
			result = append(result, job)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}

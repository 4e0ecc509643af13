package services

import (
	"context"
	"sync"
	"time"

	"mediahub/logger"
)

// CleanupService periodically removes anonymous analyses nobody saved.
type CleanupService struct {
	store     Storage
	retention time.Duration
	interval  time.Duration
	log       *logger.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service.
// retentionDays <= 0 disables the periodic worker.
func InitCleanupService(store Storage, retentionDays int, interval time.Duration, log *logger.Logger) *CleanupService {
	cleanupService = NewCleanupService(store, retentionDays, interval, log)
	return cleanupService
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

func NewCleanupService(store Storage, retentionDays int, interval time.Duration, log *logger.Logger) *CleanupService {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		log:       log.With("service", "CleanupService"),
		now:       time.Now,
	}
}

// Start runs a pass immediately and then every interval until Stop.
func (s *CleanupService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.retention <= 0 {
		if s.retention <= 0 {
			s.log.Info("analysis retention disabled")
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			if _, err := s.CleanupStaleAnalyses(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("cleanup pass failed", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the worker and waits for an in-flight pass to finish.
func (s *CleanupService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// CleanupStaleAnalyses deletes anonymous, unsaved analyses past the retention window.
func (s *CleanupService) CleanupStaleAnalyses(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.store.DeleteStaleAnalyses(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("cleaned up stale analyses", "deleted", n, "cutoff", cutoff)
	} else {
		s.log.Debug("no stale analyses to cleanup")
	}
	return n, nil
}

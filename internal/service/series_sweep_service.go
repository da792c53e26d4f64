package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
	appErrors "github.com/jdu211171/schedule-website-sub003/pkg/errors"
	"github.com/jdu211171/schedule-website-sub003/pkg/jobs"
)

// SeriesExtendJobType identifies sweep jobs on the queue.
const SeriesExtendJobType = "class_series.extend"

type seriesExtender interface {
	Extend(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error)
}

type activeSeriesLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

type sweepMetrics interface {
	ObserveSweepJob(outcome string)
}

// SeriesSweepConfig configures background extension.
type SeriesSweepConfig struct {
	// Interval between automatic sweeps. Zero disables the ticker; manual sweeps still work.
	Interval      time.Duration
	HorizonMonths int
	Workers       int
	Retries       int
	RetryDelay    time.Duration
}

// SeriesSweepService extends every active series on a worker queue.
type SeriesSweepService struct {
	extender seriesExtender
	lister   activeSeriesLister
	metrics  sweepMetrics
	logger   *zap.Logger
	cfg      SeriesSweepConfig
	queue    *jobs.Queue

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSeriesSweepService builds the sweeper and its queue. metrics may be nil.
func NewSeriesSweepService(extender seriesExtender, lister activeSeriesLister, metrics sweepMetrics, logger *zap.Logger, cfg SeriesSweepConfig) *SeriesSweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonMonths <= 0 {
		cfg.HorizonMonths = 1
	}
	svc := &SeriesSweepService{
		extender: extender,
		lister:   lister,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
	svc.queue = jobs.NewQueue("class-series-sweep", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers and, when an interval is configured, the periodic sweep.
func (s *SeriesSweepService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)
	s.done = make(chan struct{})
	if s.cfg.Interval <= 0 {
		close(s.done)
		return
	}
	go s.loop(ctx)
}

// Stop halts the ticker and the workers. In-flight extensions see a cancelled context.
func (s *SeriesSweepService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.queue.Stop()
}

// Wait blocks until all queued extensions have finished.
func (s *SeriesSweepService) Wait(ctx context.Context) error {
	return s.queue.Wait(ctx)
}

// EnqueueActive queues one extension job per active series.
func (s *SeriesSweepService) EnqueueActive(ctx context.Context) (dto.SweepResponse, error) {
	ids, err := s.lister.ListActiveIDs(ctx)
	if err != nil {
		return dto.SweepResponse{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active class series")
	}
	resp := dto.SweepResponse{SeriesIDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		if err := s.queue.Enqueue(jobs.Job{Type: SeriesExtendJobType, Payload: id}); err != nil {
			return resp, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "series sweep queue is not running")
		}
		resp.SeriesIDs = append(resp.SeriesIDs, id)
		resp.Enqueued++
	}
	s.logger.Info("series sweep enqueued", zap.Int("count", resp.Enqueued))
	return resp, nil
}

func (s *SeriesSweepService) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.EnqueueActive(ctx); err != nil {
				s.logger.Error("series sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *SeriesSweepService) handle(ctx context.Context, job jobs.Job) error {
	seriesID, ok := job.Payload.(string)
	if !ok || seriesID == "" {
		s.observe("invalid")
		return jobs.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type))
	}

	resp, err := s.extender.Extend(ctx, seriesID, dto.ExtendSeriesRequest{HorizonMonths: s.cfg.HorizonMonths})
	if err != nil {
		switch {
		case isSweepSkip(err):
			s.observe("skipped")
			s.logger.Info("series sweep skipped series", zap.String("series_id", seriesID), zap.String("reason", appErrors.FromError(err).Code))
			return nil
		case isSweepPermanent(err):
			s.observe("failed")
			return jobs.Permanent(err)
		default:
			s.observe("retry")
			return err
		}
	}
	s.observe("ok")
	s.logger.Debug("series sweep extended series",
		zap.String("series_id", seriesID),
		zap.Int("created", resp.CreatedCount),
		zap.Int("conflicted", resp.ConflictCount),
	)
	return nil
}

func (s *SeriesSweepService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveSweepJob(outcome)
	}
}

// isSweepSkip matches outcomes that are expected while sweeping, such as a series ending.
func isSweepSkip(err error) bool {
	return appErrors.Is(err, appErrors.ErrSeriesExhausted) ||
		appErrors.Is(err, appErrors.ErrSeriesNotActive) ||
		appErrors.Is(err, appErrors.ErrSeriesSpecialType) ||
		appErrors.Is(err, appErrors.ErrSeriesLocked)
}

func isSweepPermanent(err error) bool {
	return appErrors.Is(err, appErrors.ErrValidation) ||
		appErrors.Is(err, appErrors.ErrNotFound) ||
		appErrors.Is(err, appErrors.ErrInvalidSeriesConfig)
}

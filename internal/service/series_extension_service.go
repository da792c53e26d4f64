package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jdu211171/schedule-website-sub003/internal/dto"
	"github.com/jdu211171/schedule-website-sub003/internal/models"
	"github.com/jdu211171/schedule-website-sub003/internal/scheduling"
	"github.com/jdu211171/schedule-website-sub003/pkg/database"
	appErrors "github.com/jdu211171/schedule-website-sub003/pkg/errors"
	"github.com/jdu211171/schedule-website-sub003/pkg/logger"
	"github.com/jdu211171/schedule-website-sub003/pkg/tracing"
)

type classSeriesRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSeries, error)
	UpdateProgress(ctx context.Context, id string, through time.Time, status models.SeriesStatus) error
	UpdateStatus(ctx context.Context, id string, status models.SeriesStatus) error
}

type classSessionRepository interface {
	ListActiveByDates(ctx context.Context, dates []time.Time, filter models.ResourceFilter) ([]models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
}

type classTypeChecker interface {
	IsSpecial(ctx context.Context, classTypeID string) (bool, error)
}

type seriesLocker interface {
	Acquire(ctx context.Context, seriesID string) (release func(), ok bool, err error)
}

type seriesEventPublisher interface {
	PublishSeriesExtended(ctx context.Context, event models.SeriesExtendedEvent) error
}

type seriesMetrics interface {
	scheduling.CacheObserver
	ObserveSeriesRun(mode, outcome string, duration time.Duration)
	AddOccurrences(created, skipped, conflicted, cancelled int)
}

const (
	runModeExtend  = "extend"
	runModePreview = "preview"
)

// SeriesExtensionConfig governs extension behaviour.
type SeriesExtensionConfig struct {
	// Location is the calendar in which "today" is evaluated.
	Location         *time.Location
	MaxHorizonMonths int
	Now              func() time.Time
}

// SeriesExtensionService materializes class series into sessions.
type SeriesExtensionService struct {
	series       classSeriesRepository
	sessions     classSessionRepository
	availability scheduling.AvailabilityLookup
	vacations    scheduling.VacationLookup
	classTypes   classTypeChecker
	locker       seriesLocker
	publisher    seriesEventPublisher
	metrics      seriesMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          SeriesExtensionConfig
}

// NewSeriesExtensionService wires the orchestrator. classTypes, locker, publisher and metrics may be nil.
func NewSeriesExtensionService(
	series classSeriesRepository,
	sessions classSessionRepository,
	availability scheduling.AvailabilityLookup,
	vacations scheduling.VacationLookup,
	classTypes classTypeChecker,
	locker seriesLocker,
	publisher seriesEventPublisher,
	metrics seriesMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SeriesExtensionConfig,
) *SeriesExtensionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxHorizonMonths <= 0 {
		cfg.MaxHorizonMonths = 12
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SeriesExtensionService{
		series:       series,
		sessions:     sessions,
		availability: availability,
		vacations:    vacations,
		classTypes:   classTypes,
		locker:       locker,
		publisher:    publisher,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// Extend generates and persists the next window of a series.
func (s *SeriesExtensionService) Extend(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error) {
	return s.execute(ctx, runModeExtend, seriesID, req)
}

// Preview classifies the next window without persisting sessions or moving the cursor.
func (s *SeriesExtensionService) Preview(ctx context.Context, seriesID string, req dto.ExtendSeriesRequest) (*dto.ExtendSeriesResponse, error) {
	return s.execute(ctx, runModePreview, seriesID, req)
}

func (s *SeriesExtensionService) execute(ctx context.Context, mode, seriesID string, req dto.ExtendSeriesRequest) (resp *dto.ExtendSeriesResponse, err error) {
	started := time.Now()
	ctx, span := tracing.Tracer("internal/service").Start(ctx, "SeriesExtension."+mode)
	span.SetAttributes(
		attribute.String("series.id", seriesID),
		attribute.Int("series.horizon_months", req.HorizonMonths),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = appErrors.FromError(err).Code
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetAttributes(
				attribute.Int("series.created", resp.CreatedCount),
				attribute.Int("series.skipped", resp.SkippedCount),
				attribute.Int("series.conflicted", resp.ConflictCount),
			)
		}
		if s.metrics != nil {
			s.metrics.ObserveSeriesRun(mode, outcome, time.Since(started))
		}
		span.End()
	}()

	overrides, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}

	persist := mode == runModeExtend
	if persist && s.locker != nil {
		release, ok, lockErr := s.locker.Acquire(ctx, seriesID)
		if lockErr != nil {
			return nil, appErrors.Wrap(lockErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock class series")
		}
		defer release()
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrSeriesLocked, fmt.Sprintf("class series %s is being extended by another request", seriesID))
		}
	}

	return s.run(ctx, seriesID, req.HorizonMonths, overrides, persist)
}

type dateOverride struct {
	action     models.OverrideAction
	start, end int
}

func (s *SeriesExtensionService) parseRequest(req dto.ExtendSeriesRequest) (map[string]dateOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series extension payload")
	}
	if req.HorizonMonths > s.cfg.MaxHorizonMonths {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("horizonMonths must not exceed %d", s.cfg.MaxHorizonMonths))
	}

	overrides := make(map[string]dateOverride, len(req.Overrides))
	for _, o := range req.Overrides {
		if _, dup := overrides[o.Date]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate override for %s", o.Date))
		}
		parsed := dateOverride{action: o.Action}
		if o.Action == models.OverrideUseAlternative {
			if o.AlternativeStart == nil || o.AlternativeEnd == nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("override for %s needs alternativeStart and alternativeEnd", o.Date))
			}
			start, startErr := scheduling.ParseClock(*o.AlternativeStart)
			end, endErr := scheduling.ParseClock(*o.AlternativeEnd)
			if startErr != nil || endErr != nil || end <= start {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("override for %s has an invalid alternative window", o.Date))
			}
			parsed.start, parsed.end = start, end
		}
		overrides[o.Date] = parsed
	}
	return overrides, nil
}

func (s *SeriesExtensionService) loadSeries(ctx context.Context, seriesID string) (*models.ClassSeries, error) {
	series, err := s.series.FindByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class series")
	}
	if series.Status != models.SeriesStatusActive {
		return nil, appErrors.Clone(appErrors.ErrSeriesNotActive, fmt.Sprintf("class series %s is %s", series.ID, series.Status))
	}
	if series.ClassTypeID != nil && *series.ClassTypeID != "" && s.classTypes != nil {
		special, err := s.classTypes.IsSpecial(ctx, *series.ClassTypeID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class type")
		}
		if special {
			return nil, appErrors.Clone(appErrors.ErrSeriesSpecialType, "special class types cannot be extended as a series")
		}
	}
	return series, nil
}

// generationRun carries the state of one invocation. Nothing in it outlives the call.
type generationRun struct {
	series     *models.ClassSeries
	classifier *scheduling.Classifier
	bookings   map[string][]scheduling.Booking
	resp       *dto.ExtendSeriesResponse
	cancelled  int
}

func (s *SeriesExtensionService) run(ctx context.Context, seriesID string, horizon int, overrides map[string]dateOverride, persist bool) (*dto.ExtendSeriesResponse, error) {
	log := logger.WithContext(ctx, s.logger).With(zap.String("series_id", seriesID))

	series, err := s.loadSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	start, end, err := seriesTimes(series)
	if err != nil {
		return nil, err
	}
	weekdays := series.Weekdays()
	if len(weekdays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidSeriesConfig, "class series has no days of week")
	}

	today := scheduling.Today(s.cfg.Now(), s.cfg.Location)
	window, exhausted, err := scheduling.GenerationWindow(series, today, horizon)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid horizon")
	}
	if exhausted {
		if persist {
			if err := s.series.UpdateStatus(ctx, series.ID, models.SeriesStatusEnded); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end class series")
			}
			log.Info("class series exhausted", zap.Timep("end_date", series.EndDate))
		}
		return nil, appErrors.Clone(appErrors.ErrSeriesExhausted, fmt.Sprintf("class series %s has no dates left before its end date", series.ID))
	}

	resp := newExtendResponse(series, window, !persist)
	if window.Empty() {
		return resp, nil
	}

	candidates, err := scheduling.CandidateDates(weekdays, window)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSeriesConfig.Code, appErrors.ErrInvalidSeriesConfig.Status, "class series has no days of week")
	}

	calendar, err := scheduling.LoadVacationCalendar(ctx, s.vacations, series.BranchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vacations")
	}
	remaining := make([]time.Time, 0, len(candidates))
	for _, date := range candidates {
		if calendar.IsVacationDay(date) {
			resp.SkippedDetails = append(resp.SkippedDetails, dto.SkippedDetail{Date: date.Format(scheduling.DateLayout), Reason: models.SkipVacation})
			continue
		}
		remaining = append(remaining, date)
	}

	bookings, err := s.prefetchBookings(ctx, series, remaining)
	if err != nil {
		return nil, err
	}

	lookups := scheduling.NewLookupCache(scheduling.NewAvailabilityResolver(s.availability), s.metrics)
	state := &generationRun{
		series:     series,
		classifier: scheduling.NewClassifier(series, lookups),
		bookings:   bookings,
		resp:       resp,
	}
	for _, date := range remaining {
		if err := s.processDate(ctx, state, date, start, end, overrides, persist); err != nil {
			log.Error("series extension aborted", zap.Time("date", date), zap.Error(err))
			return nil, err
		}
	}

	through := window.To
	status := models.SeriesStatusActive
	if series.EndDate != nil && !through.Before(scheduling.Day(*series.EndDate)) {
		status = models.SeriesStatusEnded
	}
	if persist {
		if err := s.series.UpdateProgress(ctx, series.ID, through, status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class series progress")
		}
	}
	cursor := through.Format(scheduling.DateLayout)
	resp.LastGeneratedThrough = &cursor
	resp.SeriesStatus = status
	resp.SkippedCount = len(resp.SkippedDetails)
	resp.CancelledCount = state.cancelled

	if persist {
		s.afterPersist(ctx, log, series, resp, through, lookups.Len())
	}
	return resp, nil
}

func (s *SeriesExtensionService) prefetchBookings(ctx context.Context, series *models.ClassSeries, dates []time.Time) (map[string][]scheduling.Booking, error) {
	byDate := make(map[string][]scheduling.Booking, len(dates))
	if len(dates) == 0 {
		return byDate, nil
	}
	existing, err := s.sessions.ListActiveByDates(ctx, dates, series.ResourceFilter())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing sessions")
	}
	for _, session := range existing {
		booking, ok := scheduling.BookingFromSession(session)
		if !ok {
			continue
		}
		key := booking.Date.Format(scheduling.DateLayout)
		byDate[key] = append(byDate[key], booking)
	}
	return byDate, nil
}

func (s *SeriesExtensionService) processDate(ctx context.Context, state *generationRun, date time.Time, start, end int, overrides map[string]dateOverride, persist bool) error {
	key := date.Format(scheduling.DateLayout)
	resp := state.resp
	override, hasOverride := overrides[key]
	if hasOverride && override.action == models.OverrideSkip {
		resp.SkippedDetails = append(resp.SkippedDetails, dto.SkippedDetail{Date: key, Reason: models.SkipUser})
		return nil
	}

	occStart, occEnd := start, end
	if hasOverride && override.action == models.OverrideUseAlternative {
		occStart, occEnd = override.start, override.end
	}
	dayBookings := state.bookings[key]
	for _, b := range dayBookings {
		if b.IsOccurrenceOf(state.series.ID, occStart, occEnd) {
			s.logger.Debug("occurrence already materialized", zap.String("series_id", state.series.ID), zap.String("date", key))
			resp.SkippedDetails = append(resp.SkippedDetails, dto.SkippedDetail{Date: key, Reason: models.SkipDBConstraint})
			return nil
		}
	}

	result, err := state.classifier.Classify(ctx, date, start, end, dayBookings)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to classify occurrence")
	}
	if hasOverride {
		switch override.action {
		case models.OverrideUseAlternative:
			result.Resource = state.classifier.ResourceConflicts(dayBookings, occStart, occEnd)
		case models.OverrideForceCreate:
			result = result.Downgrade()
		}
	}

	session := buildSession(state.series, date, occStart, occEnd, result)
	if persist {
		session.ID = uuid.NewString()
		if err := s.sessions.Create(ctx, session); err != nil {
			if database.IsUniqueViolation(err) {
				logger.WithContext(ctx, s.logger).Warn("occurrence already exists",
					zap.String("series_id", state.series.ID), zap.String("date", key))
				resp.SkippedDetails = append(resp.SkippedDetails, dto.SkippedDetail{Date: key, Reason: models.SkipDBConstraint})
				return nil
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class session")
		}
		resp.CreatedIDs = append(resp.CreatedIDs, session.ID)
	}
	resp.CreatedCount++

	state.bookings[key] = append(dayBookings, scheduling.Booking{
		ID:        session.ID,
		SeriesID:  session.SeriesID,
		Date:      date,
		Start:     occStart,
		End:       occEnd,
		TeacherID: session.TeacherID,
		StudentID: session.StudentID,
		BoothID:   session.BoothID,
	})

	outcome := dto.OccurrenceOutcome{
		Date:      key,
		SessionID: session.ID,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
		Status:    session.Status,
		Cancelled: session.IsCancelled,
		Reasons:   result.HardReasons(),
		Warnings:  result.Soft,
	}
	resp.Occurrences = append(resp.Occurrences, outcome)
	if result.Conflicted() {
		resp.ConflictCount++
		resp.ConflictDetails = append(resp.ConflictDetails, dto.ConflictDetail{
			Date:      key,
			SessionID: session.ID,
			StartTime: session.StartTime,
			EndTime:   session.EndTime,
			Reasons:   outcome.Reasons,
			Cancelled: session.IsCancelled,
		})
	}
	if len(result.Soft) > 0 {
		resp.SoftWarnings = append(resp.SoftWarnings, dto.SoftWarning{Date: key, Reasons: result.Soft})
	}
	if result.Cancelled {
		state.cancelled++
	}
	return nil
}

func (s *SeriesExtensionService) afterPersist(ctx context.Context, log *zap.Logger, series *models.ClassSeries, resp *dto.ExtendSeriesResponse, through time.Time, memoized int) {
	if s.metrics != nil {
		s.metrics.AddOccurrences(resp.CreatedCount, resp.SkippedCount, resp.ConflictCount, resp.CancelledCount)
	}
	log.Info("series extended",
		zap.String("from", resp.From),
		zap.String("to", resp.To),
		zap.Int("created", resp.CreatedCount),
		zap.Int("skipped", resp.SkippedCount),
		zap.Int("conflicted", resp.ConflictCount),
		zap.Int("cancelled", resp.CancelledCount),
		zap.String("status", string(resp.SeriesStatus)),
		zap.Int("lookups_memoized", memoized),
	)
	if s.publisher == nil {
		return
	}
	event := models.SeriesExtendedEvent{
		EventID:              uuid.NewString(),
		SeriesID:             series.ID,
		BranchID:             series.BranchID,
		CreatedIDs:           resp.CreatedIDs,
		CreatedCount:         resp.CreatedCount,
		SkippedCount:         resp.SkippedCount,
		ConflictCount:        resp.ConflictCount,
		CancelledCount:       resp.CancelledCount,
		LastGeneratedThrough: &through,
		Status:               resp.SeriesStatus,
		OccurredAt:           s.cfg.Now().UTC(),
	}
	if err := s.publisher.PublishSeriesExtended(ctx, event); err != nil {
		log.Warn("failed to publish series extended event", zap.Error(err))
	}
}

func seriesTimes(series *models.ClassSeries) (int, int, error) {
	start, err := scheduling.ParseClock(series.StartTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInvalidSeriesConfig.Code, appErrors.ErrInvalidSeriesConfig.Status, "class series has an invalid start time")
	}
	end, err := scheduling.ParseClock(series.EndTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInvalidSeriesConfig.Code, appErrors.ErrInvalidSeriesConfig.Status, "class series has an invalid end time")
	}
	if end <= start {
		return 0, 0, appErrors.Clone(appErrors.ErrInvalidSeriesConfig, "class series must end after it starts")
	}
	return start, end, nil
}

func buildSession(series *models.ClassSeries, date time.Time, start, end int, result scheduling.Classification) *models.ClassSession {
	seriesID := series.ID
	session := &models.ClassSession{
		SeriesID:    &seriesID,
		TeacherID:   series.TeacherID,
		StudentID:   series.StudentID,
		BoothID:     series.BoothID,
		SubjectID:   series.SubjectID,
		ClassTypeID: series.ClassTypeID,
		BranchID:    series.BranchID,
		Date:        date,
		StartTime:   scheduling.FormatClock(start),
		EndTime:     scheduling.FormatClock(end),
		Duration:    end - start,
		Status:      result.Status(),
		IsCancelled: result.Cancelled,
	}
	if result.Cancelled {
		reason := models.CancellationAdmin
		session.CancellationReason = &reason
	}
	return session
}

func newExtendResponse(series *models.ClassSeries, window scheduling.Window, preview bool) *dto.ExtendSeriesResponse {
	resp := &dto.ExtendSeriesResponse{
		SeriesID:        series.ID,
		From:            window.From.Format(scheduling.DateLayout),
		To:              window.To.Format(scheduling.DateLayout),
		Preview:         preview,
		CreatedIDs:      []string{},
		SkippedDetails:  []dto.SkippedDetail{},
		ConflictDetails: []dto.ConflictDetail{},
		SoftWarnings:    []dto.SoftWarning{},
		Occurrences:     []dto.OccurrenceOutcome{},
		SeriesStatus:    series.Status,
	}
	if series.LastGeneratedThrough != nil {
		cursor := series.LastGeneratedThrough.Format(scheduling.DateLayout)
		resp.LastGeneratedThrough = &cursor
	}
	return resp
}

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupanel/agenda-api/internal/models"
	appErrors "github.com/edupanel/agenda-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.ScheduleEvent, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEvent, error)
	Create(ctx context.Context, event *models.ScheduleEvent) error
	Update(ctx context.Context, event *models.ScheduleEvent) error
	Delete(ctx context.Context, id string) error
}

// EventService manages schedule events and their visibility.
type EventService struct {
	repo      eventRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EventService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
	svc.validator.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		return models.EventAudience(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	Location    *string   `json:"location"`
	Audience    string    `json:"audience" validate:"required,audience"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	CreatedBy   string    `json:"created_by" validate:"required"`
	SubjectID   *string   `json:"subject_id"`
	SubjectName *string   `json:"subject_name"`
	TargetClass *string   `json:"target_class"`
	TeacherName *string   `json:"teacher_name"`
}

// eventListPayload is the cache representation for list results.
type eventListPayload struct {
	Events []models.ScheduleEvent `json:"events"`
	Total  int                    `json:"total"`
}

// Create registers a new schedule event.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*models.ScheduleEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "")
	}
	audience := models.EventAudience(strings.ToUpper(req.Audience))
	if err := ensureAudienceTarget(audience, req.TargetClass); err != nil {
		return nil, err
	}

	subjectName := req.SubjectName
	if subjectName == nil || *subjectName == "" {
		title := req.Title
		subjectName = &title
	}

	event := &models.ScheduleEvent{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Audience:    audience,
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		CreatedBy:   req.CreatedBy,
		SubjectID:   req.SubjectID,
		SubjectName: subjectName,
		TargetClass: req.TargetClass,
		TeacherName: req.TeacherName,
	}
	start := time.Now()
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.metrics.ObserveDBQuery("insert_event", time.Since(start))
	s.invalidateCache(ctx)
	return event, nil
}

// List returns the events matching the filter, restricted to what the viewer
// may see. A zero viewer bypasses visibility filtering entirely.
//
// Visibility runs after the database page is fetched: a page may hold fewer
// than page_size events, and TotalCount counts matching rows before the
// viewer filter.
func (s *EventService) List(ctx context.Context, filter models.EventFilter, viewer models.Viewer) ([]models.ScheduleEvent, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	key := listCacheKey("list", filter, viewer)
	var payload eventListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: payload.Total}
		return payload.Events, pagination, nil
	}

	start := time.Now()
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	s.metrics.ObserveDBQuery("list_events", time.Since(start))

	if !viewer.IsZero() {
		visible := make([]models.ScheduleEvent, 0, len(events))
		for _, event := range events {
			if CanView(event, viewer) {
				visible = append(visible, event)
			}
		}
		events = visible
	}

	_ = s.cache.Set(ctx, key, eventListPayload{Events: events, Total: total}, 0)

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns a single event, denying access when the viewer may not see it.
func (s *EventService) Get(ctx context.Context, id string, viewer models.Viewer) (*models.ScheduleEvent, error) {
	start := time.Now()
	event, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("find_event", time.Since(start))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	if !viewer.IsZero() && !CanView(*event, viewer) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return event, nil
}

// Update applies a partial patch to an existing event. The merged record is
// always re-validated against the time-order invariant, including when only
// one of starts_at / ends_at moves.
func (s *EventService) Update(ctx context.Context, id string, patch models.EventPatch) (*models.ScheduleEvent, error) {
	start := time.Now()
	existing, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("find_event", time.Since(start))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	merged := *existing
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = patch.Description
	}
	if patch.Location != nil {
		merged.Location = patch.Location
	}
	if patch.Audience != nil {
		audience := models.EventAudience(strings.ToUpper(string(*patch.Audience)))
		if !audience.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown audience")
		}
		merged.Audience = audience
	}
	if patch.StartsAt != nil {
		merged.StartsAt = patch.StartsAt.UTC()
	}
	if patch.EndsAt != nil {
		merged.EndsAt = patch.EndsAt.UTC()
	}
	if patch.SubjectID != nil {
		merged.SubjectID = patch.SubjectID
	}
	if patch.SubjectName != nil {
		merged.SubjectName = patch.SubjectName
	}
	if patch.TargetClass != nil {
		merged.TargetClass = patch.TargetClass
	}
	if patch.TeacherName != nil {
		merged.TeacherName = patch.TeacherName
	}

	if !merged.EndsAt.After(merged.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "")
	}
	if err := ensureAudienceTarget(merged.Audience, merged.TargetClass); err != nil {
		return nil, err
	}

	start = time.Now()
	if err := s.repo.Update(ctx, &merged); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.metrics.ObserveDBQuery("update_event", time.Since(start))
	s.invalidateCache(ctx)
	return &merged, nil
}

// Delete removes a schedule event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	start := time.Now()
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.metrics.ObserveDBQuery("delete_event", time.Since(start))
	s.invalidateCache(ctx)
	return nil
}

// CalendarGrid runs the same retrieval and visibility pipeline as List and
// projects the result into weekday buckets.
func (s *EventService) CalendarGrid(ctx context.Context, filter models.EventFilter, viewer models.Viewer) (map[string][]models.CalendarSlot, error) {
	filter.Page = 1
	filter.PageSize = 500

	key := listCacheKey("grid", filter, viewer)
	var cached map[string][]models.CalendarSlot
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	start := time.Now()
	events, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	s.metrics.ObserveDBQuery("list_events", time.Since(start))

	if !viewer.IsZero() {
		visible := make([]models.ScheduleEvent, 0, len(events))
		for _, event := range events {
			if CanView(event, viewer) {
				visible = append(visible, event)
			}
		}
		events = visible
	}

	grid := BuildCalendarGrid(events)
	_ = s.cache.Set(ctx, key, grid, 0)
	return grid, nil
}

func (s *EventService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "events:*"); err != nil {
		s.logger.Warn("event cache invalidation failed", zap.Error(err))
	}
}

func ensureAudienceTarget(audience models.EventAudience, target *string) error {
	if audience == models.EventAudienceClassOnly && (target == nil || *target == "") {
		return appErrors.Clone(appErrors.ErrValidation, "target_class required for CLASS_ONLY audience")
	}
	return nil
}

func listCacheKey(kind string, filter models.EventFilter, viewer models.Viewer) string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("events:%s:%s:%s:%s:%s:%s:%s:%s:%s:%d:%d:%s:%s",
		kind,
		format(filter.From),
		format(filter.To),
		format(filter.Day),
		filter.SubjectID,
		filter.CreatedBy,
		filter.Audience,
		filter.TargetClass,
		filter.Search,
		filter.Page,
		filter.PageSize,
		viewer.ViewerID,
		viewer.ViewerClass,
	)
}

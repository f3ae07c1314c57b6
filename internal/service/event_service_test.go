package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/agenda-api/internal/models"
	appErrors "github.com/edupanel/agenda-api/pkg/errors"
)

type eventRepoStub struct {
	events map[string]models.ScheduleEvent
	nextID int
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{events: map[string]models.ScheduleEvent{}}
}

func (s *eventRepoStub) List(ctx context.Context, filter models.EventFilter) ([]models.ScheduleEvent, int, error) {
	result := make([]models.ScheduleEvent, 0, len(s.events))
	for _, event := range s.events {
		result = append(result, event)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartsAt.Equal(result[j].StartsAt) {
			return result[i].StartsAt.Before(result[j].StartsAt)
		}
		return result[i].Title < result[j].Title
	})
	return result, len(result), nil
}

func (s *eventRepoStub) FindByID(ctx context.Context, id string) (*models.ScheduleEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &event, nil
}

func (s *eventRepoStub) Create(ctx context.Context, event *models.ScheduleEvent) error {
	if event.ID == "" {
		s.nextID++
		event.ID = fmt.Sprintf("event-%d", s.nextID)
	}
	s.events[event.ID] = *event
	return nil
}

func (s *eventRepoStub) Update(ctx context.Context, event *models.ScheduleEvent) error {
	s.events[event.ID] = *event
	return nil
}

func (s *eventRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.events, id)
	return nil
}

func newTestEventService(repo eventRepository) *EventService {
	return NewEventService(repo, nil, nil, nil, nil)
}

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func validCreateRequest() CreateEventRequest {
	starts := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return CreateEventRequest{
		Title:     "Algebra",
		Audience:  "PUBLIC",
		StartsAt:  starts,
		EndsAt:    starts.Add(45 * time.Minute),
		CreatedBy: "u1",
	}
}

func TestEventServiceCreateRejectsInvalidTimeRange(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	req := validCreateRequest()
	req.EndsAt = req.StartsAt
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeRange.Code, appErrors.FromError(err).Code)

	req.EndsAt = req.StartsAt.Add(-time.Hour)
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeRange.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateDefaultsSubjectName(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	event, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.NotNil(t, event.SubjectName)
	assert.Equal(t, "Algebra", *event.SubjectName)

	req := validCreateRequest()
	req.SubjectName = strPtr("Mathematics")
	event, err = svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", *event.SubjectName)
}

func TestEventServiceCreateClassOnlyRequiresTarget(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	req := validCreateRequest()
	req.Audience = "CLASS_ONLY"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.TargetClass = strPtr("S3A")
	event, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.EventAudienceClassOnly, event.Audience)
}

func TestEventServiceCreateRejectsUnknownAudience(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	req := validCreateRequest()
	req.Audience = "EVERYBODY"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceListFiltersByViewerClass(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	req := validCreateRequest()
	req.Title = "Class briefing"
	req.Audience = "CLASS_ONLY"
	req.TargetClass = strPtr("S3A")
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	events, _, err := svc.List(context.Background(), models.EventFilter{}, models.Viewer{ViewerClass: "S3B"})
	require.NoError(t, err)
	assert.Empty(t, events)

	events, _, err = svc.List(context.Background(), models.EventFilter{}, models.Viewer{ViewerClass: "S3A"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].ID)
}

func TestEventServiceListUnscopedBypassesVisibility(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	req := validCreateRequest()
	req.Audience = "PRIVATE"
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// No viewer context at all: the unscoped read path returns everything.
	events, _, err := svc.List(context.Background(), models.EventFilter{}, models.Viewer{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// A different viewer does not see the private event.
	events, _, err = svc.List(context.Background(), models.EventFilter{}, models.Viewer{ViewerID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventServiceGetEnforcesVisibility(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	req := validCreateRequest()
	req.Audience = "PRIVATE"
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), created.ID, models.Viewer{ViewerID: "u2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	event, err := svc.Get(context.Background(), created.ID, models.Viewer{ViewerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, event.ID)

	// Unscoped lookups skip the visibility check.
	event, err = svc.Get(context.Background(), created.ID, models.Viewer{})
	require.NoError(t, err)
	assert.Equal(t, created.ID, event.ID)
}

func TestEventServiceGetNotFound(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	_, err := svc.Get(context.Background(), "missing", models.Viewer{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventServiceUpdateAppliesOnlyPresentFields(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	req := validCreateRequest()
	req.Location = strPtr("Room 12")
	req.TeacherName = strPtr("Mrs. Hartono")
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, models.EventPatch{Title: strPtr("Algebra II")})
	require.NoError(t, err)
	assert.Equal(t, "Algebra II", updated.Title)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Room 12", *updated.Location)
	require.NotNil(t, updated.TeacherName)
	assert.Equal(t, "Mrs. Hartono", *updated.TeacherName)
	assert.True(t, updated.StartsAt.Equal(created.StartsAt))
	assert.True(t, updated.EndsAt.Equal(created.EndsAt))
}

func TestEventServiceUpdateRevalidatesMergedTimes(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	// Moving starts_at past the unchanged ends_at is rejected against the
	// merged record, not just when both bounds are patched together.
	_, err = svc.Update(context.Background(), created.ID, models.EventPatch{
		StartsAt: timePtr(created.EndsAt.Add(time.Hour)),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeRange.Code, appErrors.FromError(err).Code)

	// An earlier start against the unchanged end is fine.
	updated, err := svc.Update(context.Background(), created.ID, models.EventPatch{
		StartsAt: timePtr(created.StartsAt.Add(-time.Hour)),
	})
	require.NoError(t, err)
	assert.True(t, updated.EndsAt.Equal(created.EndsAt))
}

func TestEventServiceUpdateNotFound(t *testing.T) {
	svc := newTestEventService(newEventRepoStub())

	_, err := svc.Update(context.Background(), "missing", models.EventPatch{Title: strPtr("x")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventServiceDelete(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	created, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventServiceListTotalCountsBeforeVisibility(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	public := validCreateRequest()
	public.Title = "Assembly"
	_, err := svc.Create(context.Background(), public)
	require.NoError(t, err)

	private := validCreateRequest()
	private.Title = "Planning"
	private.Audience = "PRIVATE"
	_, err = svc.Create(context.Background(), private)
	require.NoError(t, err)

	// The private event is filtered out of the page, but the total still
	// reflects the rows matched by the query.
	events, pagination, err := svc.List(context.Background(), models.EventFilter{}, models.Viewer{ViewerID: "u2"})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestEventServiceRecordsQueryTimings(t *testing.T) {
	repo := newEventRepoStub()
	metrics := NewMetricsService()
	svc := NewEventService(repo, nil, metrics, nil, nil)

	created, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), models.EventFilter{}, models.Viewer{})
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), created.ID, models.Viewer{})
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), created.ID, models.EventPatch{Title: strPtr("Algebra II")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), created.ID))

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	metrics.Handler().ServeHTTP(w, req)

	body := w.Body.String()
	assert.Contains(t, body, `db_query_duration_seconds_count{query="insert_event"}`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="list_events"}`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="find_event"}`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="update_event"}`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="delete_event"}`)
}

func TestEventServiceCalendarGridAppliesVisibility(t *testing.T) {
	repo := newEventRepoStub()
	svc := newTestEventService(repo)

	public := validCreateRequest()
	public.Title = "Assembly"
	_, err := svc.Create(context.Background(), public)
	require.NoError(t, err)

	classOnly := validCreateRequest()
	classOnly.Title = "Class briefing"
	classOnly.Audience = "CLASS_ONLY"
	classOnly.TargetClass = strPtr("S3A")
	_, err = svc.Create(context.Background(), classOnly)
	require.NoError(t, err)

	grid, err := svc.CalendarGrid(context.Background(), models.EventFilter{}, models.Viewer{ViewerClass: "S3B"})
	require.NoError(t, err)
	require.Len(t, grid["Monday"], 1)
	assert.Equal(t, "Assembly", grid["Monday"][0].Title)

	grid, err = svc.CalendarGrid(context.Background(), models.EventFilter{}, models.Viewer{ViewerClass: "S3A"})
	require.NoError(t, err)
	assert.Len(t, grid["Monday"], 2)
}

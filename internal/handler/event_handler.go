package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupanel/agenda-api/internal/models"
	"github.com/edupanel/agenda-api/internal/service"
	appErrors "github.com/edupanel/agenda-api/pkg/errors"
	"github.com/edupanel/agenda-api/pkg/response"
)

type eventService interface {
	Create(ctx context.Context, req service.CreateEventRequest) (*models.ScheduleEvent, error)
	List(ctx context.Context, filter models.EventFilter, viewer models.Viewer) ([]models.ScheduleEvent, *models.Pagination, error)
	Get(ctx context.Context, id string, viewer models.Viewer) (*models.ScheduleEvent, error)
	Update(ctx context.Context, id string, patch models.EventPatch) (*models.ScheduleEvent, error)
	Delete(ctx context.Context, id string) error
	CalendarGrid(ctx context.Context, filter models.EventFilter, viewer models.Viewer) (map[string][]models.CalendarSlot, error)
}

// EventHandler manages the schedule event endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List schedule events
// @Tags Events
// @Produce json
// @Param from query string false "Events starting at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Events ending before (RFC3339 or YYYY-MM-DD)"
// @Param day query string false "Single UTC day (YYYY-MM-DD)"
// @Param subjectId query string false "Filter by subject"
// @Param createdById query string false "Filter by creator"
// @Param audience query string false "Filter by audience"
// @Param targetClass query string false "Filter by target class"
// @Param q query string false "Free-text search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter, viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// CalendarGrid godoc
// @Summary Project events into a weekday calendar grid
// @Tags Events
// @Produce json
// @Param from query string false "Events starting at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Events ending before (RFC3339 or YYYY-MM-DD)"
// @Param day query string false "Single UTC day (YYYY-MM-DD)"
// @Param subjectId query string false "Filter by subject"
// @Param targetClass query string false "Filter by target class"
// @Success 200 {object} response.Envelope
// @Router /events/calendar [get]
func (h *EventHandler) CalendarGrid(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	grid, err := h.service.CalendarGrid(c.Request.Context(), filter, viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Get godoc
// @Summary Get a schedule event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"), viewerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create a schedule event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Partially update a schedule event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body models.EventPatch true "Fields to update"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	var patch models.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, bindError(err))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete a schedule event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseEventFilter(c *gin.Context) (models.EventFilter, error) {
	var filter models.EventFilter

	from, err := parseEventTime(pickQuery(c, "from", "startsAfter"))
	if err != nil {
		return filter, err
	}
	to, err := parseEventTime(pickQuery(c, "to", "endsBefore"))
	if err != nil {
		return filter, err
	}
	day, err := parseEventDate(c.Query("day"))
	if err != nil {
		return filter, err
	}

	filter.From = from
	filter.To = to
	filter.Day = day
	filter.SubjectID = pickQuery(c, "subject_id", "subjectId")
	filter.CreatedBy = pickQuery(c, "created_by_id", "createdById")
	filter.Audience = models.EventAudience(strings.ToUpper(c.Query("audience")))
	filter.TargetClass = pickQuery(c, "target_class", "targetClass")
	filter.Search = c.Query("q")

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}

	return filter, nil
}

func parseEventTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "invalid timestamp, expected RFC3339 or YYYY-MM-DD")
	}
	return &parsed, nil
}

func parseEventDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

// bindError maps malformed timestamps in a JSON body onto the time-range
// error; everything else stays a generic validation failure.
func bindError(err error) error {
	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, "invalid timestamp in payload")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}

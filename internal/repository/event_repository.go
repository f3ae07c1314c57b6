package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupanel/agenda-api/internal/models"
)

// EventRepository persists schedule events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, title, description, location, audience, starts_at, ends_at, created_by, subject_id, subject_name, target_class, teacher_name, created_at, updated_at"

// List returns schedule events matching the filter, ordered by starts_at
// with title as the tie-break.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.ScheduleEvent, int, error) {
	base := "FROM schedule_events"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.From != nil {
		where = append(where, fmt.Sprintf("starts_at >= $%d", len(args)+1))
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		// Strict upper bound, intentionally asymmetric with the inclusive lower bound.
		where = append(where, fmt.Sprintf("ends_at < $%d", len(args)+1))
		args = append(args, filter.To.UTC())
	}
	if filter.Day != nil {
		dayStart, dayEnd := models.DayWindow(*filter.Day)
		where = append(where, fmt.Sprintf("starts_at >= $%d", len(args)+1))
		args = append(args, dayStart)
		where = append(where, fmt.Sprintf("starts_at < $%d", len(args)+1))
		args = append(args, dayEnd)
	}
	if filter.SubjectID != "" {
		where = append(where, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Audience != "" {
		where = append(where, fmt.Sprintf("audience = $%d", len(args)+1))
		args = append(args, string(filter.Audience))
	}
	if filter.TargetClass != "" {
		where = append(where, fmt.Sprintf("target_class = $%d", len(args)+1))
		args = append(args, filter.TargetClass)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR subject_name ILIKE $%d OR teacher_name ILIKE $%d OR location ILIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY starts_at ASC, title ASC LIMIT %d OFFSET %d", eventColumns, base, whereClause, size, offset)
	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule events: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches a schedule event.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_events WHERE id = $1", eventColumns)
	var event models.ScheduleEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a schedule event.
func (r *EventRepository) Create(ctx context.Context, event *models.ScheduleEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	query := `INSERT INTO schedule_events (id, title, description, location, audience, starts_at, ends_at, created_by, subject_id, subject_name, target_class, teacher_name, created_at, updated_at)
VALUES (:id, :title, :description, :location, :audience, :starts_at, :ends_at, :created_by, :subject_id, :subject_name, :target_class, :teacher_name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create schedule event: %w", err)
	}
	return nil
}

// Update writes the full merged record back; partial-update semantics are
// resolved by the caller before this point.
func (r *EventRepository) Update(ctx context.Context, event *models.ScheduleEvent) error {
	event.UpdatedAt = time.Now().UTC()
	query := `UPDATE schedule_events SET title = :title, description = :description, location = :location, audience = :audience,
starts_at = :starts_at, ends_at = :ends_at, subject_id = :subject_id, subject_name = :subject_name, target_class = :target_class, teacher_name = :teacher_name, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update schedule event: %w", err)
	}
	return nil
}

// Delete removes a schedule event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM schedule_events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete schedule event: %w", err)
	}
	return nil
}

package service

import (
	"math"
	"sort"

	"github.com/edupanel/agenda-api/internal/models"
)

// BuildCalendarGrid groups events into weekday buckets keyed by the long
// English weekday name of starts_at in UTC. Buckets are created lazily, so
// days without events are absent from the result. The map is built per call;
// grid contents depend on the viewer and filters of the request.
func BuildCalendarGrid(events []models.ScheduleEvent) map[string][]models.CalendarSlot {
	grid := make(map[string][]models.CalendarSlot)

	for _, event := range events {
		weekday := event.StartsAt.UTC().Weekday().String()

		duration := int(math.Round(event.EndsAt.Sub(event.StartsAt).Minutes()))
		if duration < 0 {
			duration = 0
		}

		subjectName := event.Title
		if event.SubjectName != nil && *event.SubjectName != "" {
			subjectName = *event.SubjectName
		}

		grid[weekday] = append(grid[weekday], models.CalendarSlot{
			ID:          event.ID,
			Title:       event.Title,
			SubjectName: subjectName,
			TeacherName: event.TeacherName,
			Location:    event.Location,
			SubjectID:   event.SubjectID,
			TargetClass: event.TargetClass,
			StartsAt:    event.StartsAt,
			EndsAt:      event.EndsAt,
			DurationMin: duration,
		})
	}

	// Upstream ordering is (starts_at, title); regrouping across days can
	// interleave titles, so each bucket is sorted again by start time.
	for weekday := range grid {
		slots := grid[weekday]
		sort.SliceStable(slots, func(i, j int) bool {
			return slots[i].StartsAt.Before(slots[j].StartsAt)
		})
	}

	return grid
}

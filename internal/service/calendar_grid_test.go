package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/agenda-api/internal/models"
)

func TestBuildCalendarGridGroupsByWeekday(t *testing.T) {
	// 2025-03-10 is a Monday, 2025-03-11 a Tuesday.
	monday9 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	monday8 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)

	events := []models.ScheduleEvent{
		{ID: "e1", Title: "Algebra", StartsAt: monday9, EndsAt: monday9.Add(45 * time.Minute)},
		{ID: "e2", Title: "Biology", StartsAt: monday8, EndsAt: monday8.Add(90 * time.Minute)},
		{ID: "e3", Title: "Chemistry", StartsAt: tuesday, EndsAt: tuesday.Add(time.Hour)},
	}

	grid := BuildCalendarGrid(events)

	require.Len(t, grid, 2)
	require.Len(t, grid["Monday"], 2)
	require.Len(t, grid["Tuesday"], 1)

	// Buckets are re-sorted by start time even though the input arrived
	// with the 09:00 event first.
	assert.Equal(t, "e2", grid["Monday"][0].ID)
	assert.Equal(t, "e1", grid["Monday"][1].ID)
	assert.Equal(t, 90, grid["Monday"][0].DurationMin)
	assert.Equal(t, 45, grid["Monday"][1].DurationMin)
}

func TestBuildCalendarGridEmptyDaysAbsent(t *testing.T) {
	monday := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	grid := BuildCalendarGrid([]models.ScheduleEvent{
		{ID: "e1", Title: "Algebra", StartsAt: monday, EndsAt: monday.Add(time.Hour)},
	})

	require.Len(t, grid, 1)
	_, ok := grid["Sunday"]
	assert.False(t, ok)
}

func TestBuildCalendarGridDurationClamp(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	grid := BuildCalendarGrid([]models.ScheduleEvent{
		{ID: "zero", Title: "Zero", StartsAt: start, EndsAt: start},
		{ID: "neg", Title: "Negative", StartsAt: start, EndsAt: start.Add(-30 * time.Minute)},
	})

	for _, slot := range grid["Monday"] {
		assert.GreaterOrEqual(t, slot.DurationMin, 0)
		assert.Equal(t, 0, slot.DurationMin)
	}
}

func TestBuildCalendarGridSubjectNameFallback(t *testing.T) {
	start := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	subject := "Mathematics"

	grid := BuildCalendarGrid([]models.ScheduleEvent{
		{ID: "e1", Title: "Algebra", StartsAt: start, EndsAt: start.Add(time.Hour)},
		{ID: "e2", Title: "Lab", SubjectName: &subject, StartsAt: start.Add(time.Hour), EndsAt: start.Add(2 * time.Hour)},
	})

	slots := grid["Wednesday"]
	require.Len(t, slots, 2)
	assert.Equal(t, "Algebra", slots[0].SubjectName)
	assert.Equal(t, "Mathematics", slots[1].SubjectName)
}

func TestBuildCalendarGridWeekdayIsUTC(t *testing.T) {
	// 23:30 UTC on Monday is already Tuesday in UTC+2; the bucket must
	// follow UTC.
	loc := time.FixedZone("UTC+2", 2*3600)
	start := time.Date(2025, 3, 11, 1, 30, 0, 0, loc) // 2025-03-10 23:30 UTC

	grid := BuildCalendarGrid([]models.ScheduleEvent{
		{ID: "e1", Title: "Late", StartsAt: start, EndsAt: start.Add(time.Hour)},
	})

	require.Len(t, grid["Monday"], 1)
}

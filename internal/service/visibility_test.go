package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edupanel/agenda-api/internal/models"
)

func TestCanViewPrivate(t *testing.T) {
	event := models.ScheduleEvent{Audience: models.EventAudiencePrivate, CreatedBy: "u1"}

	assert.True(t, CanView(event, models.Viewer{ViewerID: "u1"}))
	assert.False(t, CanView(event, models.Viewer{ViewerID: "u2"}))
	assert.False(t, CanView(event, models.Viewer{ViewerClass: "S3A"}))
}

func TestCanViewClassOnly(t *testing.T) {
	target := "S3A"
	event := models.ScheduleEvent{Audience: models.EventAudienceClassOnly, TargetClass: &target}

	assert.True(t, CanView(event, models.Viewer{ViewerClass: "S3A"}))
	assert.False(t, CanView(event, models.Viewer{ViewerClass: "S3B"}))

	event.TargetClass = nil
	assert.False(t, CanView(event, models.Viewer{ViewerClass: "S3A"}))
}

func TestCanViewTotalOverAudiences(t *testing.T) {
	viewers := []models.Viewer{
		{},
		{ViewerID: "u1"},
		{ViewerClass: "S3A"},
		{ViewerID: "u1", ViewerClass: "S3A"},
	}
	audiences := []models.EventAudience{
		models.EventAudiencePrivate,
		models.EventAudienceClassOnly,
		models.EventAudienceStudents,
		models.EventAudienceTeachers,
		models.EventAudiencePublic,
		models.EventAudience("SOMETHING_NEW"),
	}

	for _, audience := range audiences {
		for _, viewer := range viewers {
			// Must terminate and return a boolean for every combination.
			_ = CanView(models.ScheduleEvent{Audience: audience, CreatedBy: "owner"}, viewer)
		}
	}
}

func TestCanViewRoleAudiencesOpenToAll(t *testing.T) {
	for _, audience := range []models.EventAudience{models.EventAudienceStudents, models.EventAudienceTeachers, models.EventAudiencePublic} {
		event := models.ScheduleEvent{Audience: audience, CreatedBy: "owner"}
		assert.True(t, CanView(event, models.Viewer{ViewerID: "someone-else", ViewerClass: "S1B"}))
	}
}

func TestCanViewUnknownAudienceVisible(t *testing.T) {
	event := models.ScheduleEvent{Audience: models.EventAudience("LEGACY"), CreatedBy: "owner"}
	assert.True(t, CanView(event, models.Viewer{ViewerID: "u2"}))
}

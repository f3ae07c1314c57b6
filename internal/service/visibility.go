package service

import "github.com/edupanel/agenda-api/internal/models"

// CanView reports whether the viewer may see the event. Pure and total over
// all audience values; unrecognized audiences are treated as public.
// Callers that hold no viewer context must skip filtering entirely rather
// than call this with a zero viewer.
func CanView(event models.ScheduleEvent, viewer models.Viewer) bool {
	switch event.Audience {
	case models.EventAudiencePrivate:
		return event.CreatedBy == viewer.ViewerID
	case models.EventAudienceClassOnly:
		return event.TargetClass != nil && *event.TargetClass == viewer.ViewerClass
	case models.EventAudienceStudents, models.EventAudienceTeachers:
		// Role-scoped audiences are an extension point; everyone sees them for now.
		return true
	case models.EventAudiencePublic:
		return true
	default:
		return true
	}
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edupanel/agenda-api/internal/middleware"
	"github.com/edupanel/agenda-api/internal/models"
)

// viewerFromContext resolves the viewer context for the request: token
// claims when present, explicit query parameters otherwise. An empty result
// means the unscoped read path.
func viewerFromContext(c *gin.Context) models.Viewer {
	if value, exists := c.Get(middleware.ContextViewerKey); exists {
		if claims, ok := value.(*models.ViewerClaims); ok {
			return claims.Viewer()
		}
	}
	return models.Viewer{
		ViewerID:    pickQuery(c, "viewer_id", "viewerId"),
		ViewerClass: pickQuery(c, "viewer_class", "viewerClass"),
	}
}

func pickQuery(c *gin.Context, preferred string, fallback string) string {
	if value := c.Query(preferred); value != "" {
		return value
	}
	return c.Query(fallback)
}

package models

import "github.com/golang-jwt/jwt/v5"

// Viewer identifies who is requesting event data. A zero Viewer means the
// unscoped read path: no visibility filtering is applied.
type Viewer struct {
	ViewerID    string
	ViewerClass string
}

// IsZero reports whether no viewer context was supplied.
func (v Viewer) IsZero() bool {
	return v.ViewerID == "" && v.ViewerClass == ""
}

// ViewerClaims is the token payload the host system issues for viewers.
type ViewerClaims struct {
	ViewerID    string `json:"viewer_id"`
	ViewerClass string `json:"viewer_class,omitempty"`
	jwt.RegisteredClaims
}

// Viewer converts claims into the viewer context consumed by services.
func (c *ViewerClaims) Viewer() Viewer {
	if c == nil {
		return Viewer{}
	}
	return Viewer{ViewerID: c.ViewerID, ViewerClass: c.ViewerClass}
}

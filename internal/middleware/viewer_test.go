package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupanel/agenda-api/internal/models"
)

const testSecret = "test_secret"

func signViewerToken(t *testing.T, claims *models.ViewerClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runViewerMiddleware(t *testing.T, authorization string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/events", nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req
	OptionalViewer(testSecret)(c)
	return c, w
}

func TestOptionalViewerAttachesClaims(t *testing.T) {
	claims := &models.ViewerClaims{
		ViewerID:    "u1",
		ViewerClass: "S3A",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signViewerToken(t, claims, testSecret)

	c, _ := runViewerMiddleware(t, "Bearer "+token)

	value, exists := c.Get(ContextViewerKey)
	require.True(t, exists)
	parsed, ok := value.(*models.ViewerClaims)
	require.True(t, ok)
	assert.Equal(t, "u1", parsed.ViewerID)
	assert.Equal(t, "S3A", parsed.ViewerClass)
}

func TestOptionalViewerSkipsWithoutToken(t *testing.T) {
	c, w := runViewerMiddleware(t, "")

	_, exists := c.Get(ContextViewerKey)
	assert.False(t, exists)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalViewerIgnoresBadSignature(t *testing.T) {
	claims := &models.ViewerClaims{ViewerID: "u1"}
	token := signViewerToken(t, claims, "other_secret")

	c, w := runViewerMiddleware(t, "Bearer "+token)

	_, exists := c.Get(ContextViewerKey)
	assert.False(t, exists)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalViewerIgnoresMalformedHeader(t *testing.T) {
	c, _ := runViewerMiddleware(t, "Token abc")

	_, exists := c.Get(ContextViewerKey)
	assert.False(t, exists)
}

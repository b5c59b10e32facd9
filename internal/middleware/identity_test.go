package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveIdentity(t *testing.T, decorate func(*http.Request)) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var got string
	r := gin.New()
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		got = Username(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	decorate(req)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestIdentityFromBearerToken(t *testing.T) {
	token, err := GenerateToken("alice")
	require.NoError(t, err)

	got := resolveIdentity(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, "alice", got)
}

func TestIdentityTokenWinsOverHeader(t *testing.T) {
	token, err := GenerateToken("alice")
	require.NoError(t, err)

	got := resolveIdentity(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Username", "bob")
	})
	assert.Equal(t, "alice", got)
}

func TestIdentityHeaderFallbackOnBadToken(t *testing.T) {
	got := resolveIdentity(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-token")
		req.Header.Set("X-Username", "bob")
	})
	assert.Equal(t, "bob", got)
}

func TestIdentityAnonymousPassesThrough(t *testing.T) {
	got := resolveIdentity(t, func(req *http.Request) {})
	assert.Equal(t, "", got)
}

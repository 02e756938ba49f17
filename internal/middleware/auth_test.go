package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
)

type stubParser map[string]domain.Principal

func (s stubParser) ParseToken(token string) (domain.Principal, error) {
	p, ok := s[token]
	if !ok {
		return domain.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	parser := stubParser{
		"rider-token":  {UserID: "u1", Role: domain.RoleUser},
		"driver-token": {UserID: "u2", Role: domain.RoleDriver},
	}

	r := gin.New()
	whoami := func(c *gin.Context) {
		p, _ := auth.PrincipalFromContext(c.Request.Context())
		c.String(http.StatusOK, p.UserID)
	}
	r.GET("/me", Auth(parser), whoami)
	r.GET("/driver", Auth(parser), RequireRole(domain.RoleDriver), whoami)
	return r
}

func TestAuth(t *testing.T) {
	r := newAuthEngine()

	testCases := []struct {
		name   string
		path   string
		header string
		want   int
		body   string
	}{
		{"valid rider", "/me", "Bearer rider-token", http.StatusOK, "u1"},
		{"lowercase scheme", "/me", "bearer rider-token", http.StatusOK, "u1"},
		{"missing header", "/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/me", "Basic rider-token", http.StatusUnauthorized, ""},
		{"empty token", "/me", "Bearer ", http.StatusUnauthorized, ""},
		{"unknown token", "/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"driver route as driver", "/driver", "Bearer driver-token", http.StatusOK, "u2"},
		{"driver route as rider", "/driver", "Bearer rider-token", http.StatusForbidden, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.want, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestAuth_QueryTokenOnlyForWebsocket(t *testing.T) {
	r := newAuthEngine()

	req := httptest.NewRequest(http.MethodGet, "/me?access_token=rider-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me?access_token=rider-token", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}

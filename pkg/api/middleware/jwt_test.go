package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobscout/jobscout/pkg/auth"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func okHandler(c echo.Context) error {
	id, ok := IdentityFrom(c)
	if !ok {
		return c.NoContent(http.StatusTeapot)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":      id.ID,
		"email":   id.Email,
		"user_id": c.Get(UserIDKey).(string),
	})
}

func TestJWTMiddleware(t *testing.T) {
	valid, err := auth.GenerateToken("user-1", "jane@example.com", "Jane Doe", testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("user-1", "jane@example.com", "", testSecret, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/usage", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := JWTMiddleware(testSecret)(okHandler)(c)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusUnauthorized {
				var body models.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body.Error)
				assert.NotEmpty(t, body.Message)
				return
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "user-1", body["id"])
			assert.Equal(t, "user-1", body["user_id"])
			assert.Equal(t, "jane@example.com", body["email"])
		})
	}
}

func TestJWTFromQueryOrHeader(t *testing.T) {
	token, err := auth.GenerateToken("user-2", "sam@example.com", "", testSecret, time.Hour)
	require.NoError(t, err)

	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/prompts/p-1/export?token="+token, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, JWTFromQueryOrHeader(testSecret)(okHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/prompts/p-1/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	require.NoError(t, JWTFromQueryOrHeader(testSecret)(okHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/prompts/p-1/export", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, JWTFromQueryOrHeader(testSecret)(okHandler)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFrom_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := IdentityFrom(c)
	assert.False(t, ok)

	c.Set(IdentityKey, users.Identity{})
	_, ok = IdentityFrom(c)
	assert.False(t, ok)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		actor      string
		wantStatus int
		wantActor  string
	}{
		{"valid token", "s3cret", "Bearer s3cret", "", http.StatusOK, "admin"},
		{"case-insensitive scheme", "s3cret", "bearer s3cret", "", http.StatusOK, "admin"},
		{"actor header", "s3cret", "Bearer s3cret", "alice", http.StatusOK, "alice"},
		{"missing header", "s3cret", "", "", http.StatusUnauthorized, ""},
		{"wrong token", "s3cret", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "s3cret", "Basic s3cret", "", http.StatusUnauthorized, ""},
		{"extra parts", "s3cret", "Bearer s3cret extra", "", http.StatusUnauthorized, ""},
		{"disabled when no token configured", "", "", "ops", http.StatusOK, "ops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotActor string
			handler := RequireAdminToken(tt.token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotActor = Actor(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/weights", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.actor != "" {
				req.Header.Set(ActorHeader, tt.actor)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantActor, gotActor)
		})
	}
}

func TestActor_NotSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Actor(req))
}

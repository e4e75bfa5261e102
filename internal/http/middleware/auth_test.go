package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"mealplanr/internal/auth"
	"mealplanr/internal/logger"
	"mealplanr/internal/user"
)

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(ctx context.Context, token string) (*user.User, error) {
	if token == "good" {
		return &user.User{ID: "u1", Email: "cook@example.com"}, nil
	}
	return nil, auth.ErrInvalidToken
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.NewNop(), stubAuthenticator{})

	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).ID)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic good", http.StatusUnauthorized},
		{"Invalid", "Bearer bad", http.StatusUnauthorized},
		{"Valid", "bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("Expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("Expected WWW-Authenticate: Bearer")
			}
			if tt.status == http.StatusOK && rec.Body.String() != "u1" {
				t.Errorf("Expected user u1 on context, got %q", rec.Body.String())
			}
		})
	}
}

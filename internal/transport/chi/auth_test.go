package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doAuth(t *testing.T, keys []string, header string) int {
	t.Helper()
	handler := AdminAuthMiddleware(keys)(protectedHandler())

	req := httptest.NewRequest(http.MethodDelete, "/v1/tenants/guild-1/chunks?count=1", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAdminAuth(t *testing.T) {
	keys := []string{"key-1", "key-2"}

	tests := []struct {
		name   string
		keys   []string
		header string
		want   int
	}{
		{"valid key", keys, "Bearer key-1", http.StatusOK},
		{"second valid key", keys, "Bearer key-2", http.StatusOK},
		{"wrong key", keys, "Bearer nope", http.StatusUnauthorized},
		{"missing header", keys, "", http.StatusUnauthorized},
		{"wrong scheme", keys, "Basic key-1", http.StatusUnauthorized},
		{"no keys configured", nil, "Bearer key-1", http.StatusForbidden},
		{"empty key ignored", []string{""}, "Bearer ", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doAuth(t, tt.keys, tt.header); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

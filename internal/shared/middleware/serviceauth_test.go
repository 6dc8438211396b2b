package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServiceAuth(t *testing.T) {
	tests := []struct {
		name           string
		configured     string
		header         string
		expectedStatus int
	}{
		{
			name:           "Valid Token",
			configured:     "svc-token",
			header:         "Bearer svc-token",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Wrong Token",
			configured:     "svc-token",
			header:         "Bearer other",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header",
			configured:     "svc-token",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Bearer Prefix",
			configured:     "svc-token",
			header:         "svc-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Empty Configured Token Rejects All",
			configured:     "",
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			handler := ServiceAuth(tt.configured)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/jobs/budget-check", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

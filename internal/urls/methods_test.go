package urls

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethods(t *testing.T) {
	t.Parallel()

	m := Methods{
		http.MethodGet:  named("get"),
		http.MethodPost: named("post"),
	}

	tests := []struct {
		method   string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, http.StatusOK, "get"},
		{http.MethodPost, http.StatusOK, "post"},
		{http.MethodHead, http.StatusOK, "get"},
		{http.MethodOptions, http.StatusNoContent, ""},
		{http.MethodDelete, http.StatusMethodNotAllowed, ""},
	}

	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			m.ServeHTTP(rec, httptest.NewRequest(tc.method, "/", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCode == http.StatusMethodNotAllowed || tc.wantCode == http.StatusNoContent {
				assert.Equal(t, "GET, HEAD, OPTIONS, POST", rec.Header().Get("Allow"))
			}
		})
	}
}

func TestMethods_Allow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		methods Methods
		want    string
	}{
		{"get only", Methods{http.MethodGet: named("get")}, "GET, HEAD, OPTIONS"},
		{"post only", Methods{http.MethodPost: named("post")}, "OPTIONS, POST"},
		{"explicit head", Methods{http.MethodGet: named("get"), http.MethodHead: named("head")}, "GET, HEAD, OPTIONS"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tc.methods.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get("Allow"))
		})
	}
}

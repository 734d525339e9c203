package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func authHeader(id, key string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+key))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBasicAuth_AllowsValidCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/finalizations", nil)
	req.Header.Set("Authorization", authHeader("ReversalEngine", "ReversalEngineKey001"))

	rr := httptest.NewRecorder()
	BasicAuth("ReversalEngine", "ReversalEngineKey001")(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestBasicAuth_RejectsInvalidCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/finalizations", nil)
	req.Header.Set("Authorization", authHeader("ReversalEngine", "WrongKey"))

	rr := httptest.NewRecorder()
	BasicAuth("ReversalEngine", "ReversalEngineKey001")(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate challenge")
	}
}

func TestBasicAuth_MissingConfiguration(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", authHeader("ReversalEngine", "ReversalEngineKey001"))

	rr := httptest.NewRecorder()
	BasicAuth("", "")(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

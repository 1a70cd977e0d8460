package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_DisabledPassesThrough(t *testing.T) {
	auth := NewAPIKeyAuth("")
	if auth.Enabled() {
		t.Fatal("expected auth disabled with no keys")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_MissingKeyRejected(t *testing.T) {
	auth := NewAPIKeyAuth("secret-1, secret-2")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_BearerAndHeaderAccepted(t *testing.T) {
	auth := NewAPIKeyAuth("secret-1,secret-2")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	req.Header.Set("Authorization", "Bearer secret-1")
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	req.Header.Set("X-API-Key", "secret-2")
	rec = httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("header: expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_WrongKeyRejected(t *testing.T) {
	auth := NewAPIKeyAuth("secret-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuth_RemoveLastKeyDisables(t *testing.T) {
	auth := NewAPIKeyAuth("secret-1")
	auth.RemoveKey("secret-1")
	if auth.Enabled() {
		t.Fatal("expected auth disabled after removing last key")
	}
}

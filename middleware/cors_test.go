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

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://chat.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://chat.example.com" {
		t.Errorf("expected allow-origin header, got %q", got)
	}
}

func TestCORS_DisallowedOriginPreflight(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://chat.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestCORS_DisallowedOriginPassthrough(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://chat.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 passthrough, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no allow-origin header, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"*"}})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected allow-methods header on preflight")
	}
}

func TestCheckOrigin(t *testing.T) {
	check := CheckOrigin([]string{"https://chat.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/v0/ws", nil)
	if !check(req) {
		t.Error("request without Origin should pass")
	}

	req.Header.Set("Origin", "https://chat.example.com")
	if !check(req) {
		t.Error("allowed origin should pass")
	}

	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Error("disallowed origin should fail")
	}
}

func TestCheckOrigin_DefaultAllowsAll(t *testing.T) {
	check := CheckOrigin(nil)

	req := httptest.NewRequest(http.MethodGet, "/v0/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	if !check(req) {
		t.Error("empty allow list should allow any origin")
	}
}

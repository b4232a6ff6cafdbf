package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateParseRoundTrip(t *testing.T) {
	token, err := Generate("0xoperator", time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.Operator != "0xoperator" {
		t.Fatalf("operator = %q", claims.Operator)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := Generate("0xoperator", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestMiddleware(t *testing.T) {
	next := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	Middleware(next, true)(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: got %d, want 401", w.Code)
	}

	token, _ := Generate("0xoperator", time.Hour)
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	Middleware(next, true)(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("valid bearer: got %d, want 200", w.Code)
	}

	// Auth disabled passes everything through.
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	Middleware(next, false)(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("disabled auth: got %d, want 200", w.Code)
	}
}

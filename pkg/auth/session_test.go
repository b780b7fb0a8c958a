package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	store := NewSessionStore("askdb-session", "test-secret", time.Hour, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := store.Save(w, r, "abc-123"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "askdb-session" {
		t.Errorf("cookie name = %q", c.Name)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", c.MaxAge)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(c)
	if got := store.ID(next); got != "abc-123" {
		t.Errorf("ID = %q, want abc-123", got)
	}
}

func TestSessionStore_NoCookie(t *testing.T) {
	store := NewSessionStore("askdb-session", "test-secret", time.Hour, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := store.ID(r); got != "" {
		t.Errorf("ID = %q, want empty", got)
	}
}

func TestSessionStore_RejectsForeignSignature(t *testing.T) {
	issuer := NewSessionStore("askdb-session", "secret-one", time.Hour, false)
	verifier := NewSessionStore("askdb-session", "secret-two", time.Hour, false)

	w := httptest.NewRecorder()
	if err := issuer.Save(w, httptest.NewRequest(http.MethodGet, "/", nil), "abc-123"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(w.Result().Cookies()[0])
	if got := verifier.ID(r); got != "" {
		t.Errorf("ID = %q, want empty for a cookie signed with another key", got)
	}
}

func TestSessionStore_EmptySecretGeneratesKey(t *testing.T) {
	store := NewSessionStore("askdb-session", "", time.Hour, true)

	w := httptest.NewRecorder()
	if err := store.Save(w, httptest.NewRequest(http.MethodGet, "/", nil), "xyz"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	c := w.Result().Cookies()[0]
	if !c.Secure {
		t.Error("expected Secure cookie")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if got := store.ID(r); got != "xyz" {
		t.Errorf("ID = %q, want xyz", got)
	}
}

func TestSessionStore_Clear(t *testing.T) {
	store := NewSessionStore("askdb-session", "test-secret", time.Hour, false)

	w := httptest.NewRecorder()
	if err := store.Clear(w, httptest.NewRequest(http.MethodDelete, "/", nil)); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", cookies[0].MaxAge)
	}
}

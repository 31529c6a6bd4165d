package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func findDeviceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == deviceCookieName {
			return cookie
		}
	}
	return nil
}

func TestEnsureDeviceIssuesToken(t *testing.T) {
	a := newTestApp(t, time.Second)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pixel-sync", nil)

	token, err := a.ensureDevice(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if !isValidDeviceToken(token) {
		t.Fatalf("issued token %q fails shape check", token)
	}
	if len(token) < 43 {
		t.Fatalf("token %q shorter than 256 bits of entropy", token)
	}

	a.mu.Lock()
	registered := a.ledger.Recognizes(token)
	a.mu.Unlock()
	if !registered {
		t.Fatal("issued token not registered in the ledger")
	}

	cookie := findDeviceCookie(t, rec)
	if cookie == nil {
		t.Fatal("no device cookie set")
	}
	if cookie.Value != token {
		t.Fatal("cookie value does not match issued token")
	}
	if cookie.Path != "/" {
		t.Fatalf("cookie path = %q, want /", cookie.Path)
	}
	if cookie.HttpOnly {
		t.Fatal("device cookie must stay script-readable")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatal("device cookie must be SameSite=Strict")
	}
	ttl := time.Until(cookie.Expires)
	if ttl < 2*24*time.Hour || ttl > 4*24*time.Hour {
		t.Fatalf("cookie expiry %s not around 3 days out", cookie.Expires)
	}
}

func TestEnsureDeviceIsIdempotentForKnownToken(t *testing.T) {
	a := newTestApp(t, time.Second)

	first := httptest.NewRecorder()
	token, err := a.ensureDevice(first, httptest.NewRequest(http.MethodGet, "/pixel-sync", nil))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/pixel-sync", nil)
	req.AddCookie(&http.Cookie{Name: deviceCookieName, Value: token})
	rec := httptest.NewRecorder()

	again, err := a.ensureDevice(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if again != token {
		t.Fatal("recognized token was replaced")
	}
	if findDeviceCookie(t, rec) != nil {
		t.Fatal("cookie re-issued for a recognized token")
	}
}

func TestEnsureDeviceReplacesUnknownToken(t *testing.T) {
	a := newTestApp(t, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/pixel-sync", nil)
	req.AddCookie(&http.Cookie{Name: deviceCookieName, Value: "forged-or-stale-token"})
	rec := httptest.NewRecorder()

	token, err := a.ensureDevice(rec, req)
	if err != nil {
		t.Fatal(err)
	}
	if token == "forged-or-stale-token" {
		t.Fatal("unrecognized token was kept")
	}
	if findDeviceCookie(t, rec) == nil {
		t.Fatal("no fresh cookie issued for an unrecognized token")
	}
}

func TestDeviceTokenShapeCheck(t *testing.T) {
	valid := []string{"abcDEF123-_", "x"}
	for _, token := range valid {
		if !isValidDeviceToken(token) {
			t.Errorf("isValidDeviceToken(%q) = false, want true", token)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "padded==", string(make([]byte, 200))}
	for _, token := range invalid {
		if isValidDeviceToken(token) {
			t.Errorf("isValidDeviceToken(%q) = true, want false", token)
		}
	}
}

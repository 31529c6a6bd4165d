package main

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	deviceCookieName = "device-id"
	deviceTokenTTL   = 3 * 24 * time.Hour
	deviceTokenBytes = 32
)

func randomToken(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// deviceToken pulls the device credential off a request without
// touching the ledger. Empty string if absent or malformed.
func deviceToken(r *http.Request) string {
	cookie, err := r.Cookie(deviceCookieName)
	if err != nil || !isValidDeviceToken(cookie.Value) {
		return ""
	}
	return cookie.Value
}

func writeDeviceCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:  deviceCookieName,
		Value: token,
		Path:  "/",
		// Readable by scripts on purpose: non-browser clients replay
		// the value manually on mutation requests.
		HttpOnly: false,
		Expires:  time.Now().UTC().Add(deviceTokenTTL),
		SameSite: http.SameSiteStrictMode,
	})
}

// ensureDevice runs on the stream handshake, before any body bytes are
// written. A presented token the ledger still recognizes is left
// alone; anything else gets a fresh token issued and registered. One
// token per device, best effort: concurrent handshakes from the same
// client may each mint a token, which is tolerated.
func (a *app) ensureDevice(w http.ResponseWriter, r *http.Request) (string, error) {
	if token := deviceToken(r); token != "" {
		a.mu.Lock()
		known := a.ledger.Recognizes(token)
		a.mu.Unlock()
		if known {
			return token, nil
		}
	}

	token, err := randomToken(deviceTokenBytes)
	if err != nil {
		return "", err
	}
	writeDeviceCookie(w, token)

	a.mu.Lock()
	a.ledger.Register(token)
	a.mu.Unlock()
	return token, nil
}

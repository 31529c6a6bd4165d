package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// canvas-bot is an anonymous painter: it performs the pixel-sync
// handshake once to obtain a device credential, then paints random
// pixels on a cooldown-aware loop. Useful for soaking the mutation
// path and for giving an empty canvas some life.

type PixelPayload struct {
	X     int          `json:"x"`
	Y     int          `json:"y"`
	Color ColorPayload `json:"color"`
}

type ColorPayload struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("CANVAS_BASE_URL"))
	if baseURL == "" {
		logError("CANVAS_BASE_URL is required")
		os.Exit(1)
	}

	width := parseEnvInt("CANVAS_WIDTH", 16)
	height := parseEnvInt("CANVAS_HEIGHT", 16)
	cooldownMs := parseEnvInt("BOT_COOLDOWN_MS", 10000)
	jitterMs := parseEnvInt("BOT_JITTER_MS", 1500)
	maxPaints := parseEnvInt("BOT_MAX_PAINTS", 0)

	client := &http.Client{Timeout: 15 * time.Second}

	token, err := handshake(client, baseURL)
	if err != nil {
		logError(fmt.Sprintf("handshake failed: %v", err))
		os.Exit(1)
	}
	logInfo("device credential obtained")

	rand.Seed(time.Now().UnixNano())

	painted := 0
	for maxPaints <= 0 || painted < maxPaints {
		payload := PixelPayload{
			X: rand.Intn(width),
			Y: rand.Intn(height),
			Color: ColorPayload{
				R: rand.Intn(256),
				G: rand.Intn(256),
				B: rand.Intn(256),
			},
		}

		status, reason, err := paint(client, baseURL, token, payload)
		switch {
		case err != nil:
			logError(fmt.Sprintf("paint failed: %v", err))
		case status == http.StatusAccepted:
			painted++
			logInfo(fmt.Sprintf("painted (%d,%d) <- %d,%d,%d", payload.X, payload.Y, payload.Color.R, payload.Color.G, payload.Color.B))
		case strings.Contains(reason, "too soon"):
			logInfo("cooldown not elapsed yet, backing off")
		case strings.Contains(reason, "device credential"):
			logInfo("credential rejected, redoing handshake")
			if token, err = handshake(client, baseURL); err != nil {
				logError(fmt.Sprintf("handshake failed: %v", err))
				os.Exit(1)
			}
		default:
			logError(fmt.Sprintf("paint rejected: %d %s", status, reason))
		}

		sleepJitter(cooldownMs, cooldownMs+jitterMs)
	}
}

// handshake opens the event stream just long enough for the server to
// issue the device cookie, then hangs up.
func handshake(client *http.Client, baseURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/pixel-sync", nil)
	if err != nil {
		return "", err
	}
	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("handshake status %d", res.StatusCode)
	}
	for _, cookie := range res.Cookies() {
		if cookie.Name == "device-id" {
			return cookie.Value, nil
		}
	}
	return "", errors.New("no device-id cookie in handshake response")
}

func paint(client *http.Client, baseURL string, token string, payload PixelPayload) (int, string, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/pixel", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "device-id", Value: token})

	res, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer res.Body.Close()

	reason, _ := io.ReadAll(io.LimitReader(res.Body, 256))
	return res.StatusCode, strings.TrimSpace(string(reason)), nil
}

func sleepJitter(minMs int, maxMs int) {
	if minMs <= 0 {
		return
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	jitter := rand.Intn(maxMs-minMs+1) + minMs
	time.Sleep(time.Duration(jitter) * time.Millisecond)
}

func parseEnvInt(key string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

func logInfo(message string) {
	fmt.Printf("[INFO] %s %s\n", time.Now().Format(time.RFC3339), message)
}

func logError(message string) {
	fmt.Printf("[ERROR] %s %s\n", time.Now().Format(time.RFC3339), message)
}

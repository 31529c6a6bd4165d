package main

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestAdminResetGuardAuthorize(t *testing.T) {
	sum := sha256.Sum256([]byte("open sesame"))
	guard := NewAdminResetGuard(hex.EncodeToString(sum[:]))

	if !guard.Authorize("open sesame") {
		t.Fatal("correct secret rejected")
	}
	if guard.Authorize("open sesame ") {
		t.Fatal("padded secret accepted")
	}
	if guard.Authorize("") {
		t.Fatal("empty secret accepted")
	}
	if guard.Authorize(hex.EncodeToString(sum[:])) {
		t.Fatal("digest itself accepted as secret")
	}
}

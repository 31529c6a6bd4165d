package main

// isValidDeviceToken checks the shape of a presented token before any
// ledger lookup: base64url characters only, bounded length. Tokens we
// mint are 43 characters; anything wildly off is noise or forgery.
func isValidDeviceToken(token string) bool {
	if token == "" || len(token) > 128 {
		return false
	}

	for _, r := range token {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			continue
		}
		if r == '-' || r == '_' {
			continue
		}
		return false
	}

	return true
}

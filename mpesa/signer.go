package mpesa

import (
	"encoding/base64"
	"time"
)

// Password derives the credential pair the push API requires: the request
// timestamp in the gateway's YYYYMMDDHHMMSS format and the base64 of
// shortcode+passkey+timestamp. Deterministic for a given instant.
func Password(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

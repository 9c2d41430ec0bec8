package domain

import "time"

// ClaimCodeTTL is how long a pairing code stays valid after issuance.
const ClaimCodeTTL = 10 * time.Minute

// ClaimCode is a short-lived pairing code binding an unclaimed device to a
// user account. PK: device_id — writing a fresh code for a device overwrites
// any prior one, so at most one live code per device exists by key design.
// ExpiresAt doubles as the DynamoDB TTL attribute; expiry is still checked
// at verify time because TTL reaping is lazy.
type ClaimCode struct {
	DeviceID  string `json:"device_id" dynamodbav:"device_id"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // unix seconds
}

// Expired reports whether the code is past its expiry relative to now.
func (c *ClaimCode) Expired(now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}

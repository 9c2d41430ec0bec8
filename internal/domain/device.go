package domain

import "time"

// Device is a kiosk: embedded playback hardware that polls the command queue.
// The device id is hardware-assigned and sent on first registration; the
// server never generates one. UserID stays empty until the device is claimed;
// unclaimed devices carry no user_id attribute at all, keeping them out of
// the ownership index (an index key attribute must never be an empty string).
type Device struct {
	DeviceID  string    `json:"id" dynamodbav:"device_id"`
	Name      string    `json:"name,omitempty" dynamodbav:"name"`
	UserID    string    `json:"user_id,omitempty" dynamodbav:"user_id,omitempty"`
	LastSeen  int64     `json:"last_seen,omitempty" dynamodbav:"last_seen"` // unix seconds
	Seq       int64     `json:"-" dynamodbav:"seq"`                         // per-device command counter
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Claimed reports whether the device is bound to an account.
func (d *Device) Claimed() bool { return d.UserID != "" }

type RegisterDeviceRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128"`
	Name     string `json:"name" validate:"max=255"`
}

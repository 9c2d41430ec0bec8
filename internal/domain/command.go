package domain

import "time"

// Command types a kiosk understands.
const (
	CommandLoadPlaylist = "LOAD_PLAYLIST"
	CommandPlayPause    = "PLAY_PAUSE"
	CommandNext         = "NEXT"
	CommandPrev         = "PREV"
	CommandVolumeDelta  = "VOLUME_DELTA"
)

// Command statuses. Rows only ever move pending → acked; they are never
// deleted except when their device is removed, so the commands table is an
// append-only delivery log.
const (
	CommandStatusPending = "pending"
	CommandStatusAcked   = "acked"
)

// Command is one queued instruction for one device. PK: device_id,
// SK: command_id (ULID — lexicographic order is creation order, which is
// what makes FIFO polling a plain ascending Query). Seq is a per-device
// monotonic counter kiosks can dedupe against when a command is redelivered.
type Command struct {
	DeviceID  string                 `json:"device_id" dynamodbav:"device_id"`
	CommandID string                 `json:"id" dynamodbav:"command_id"`
	Type      string                 `json:"type" dynamodbav:"command_type"`
	Payload   map[string]interface{} `json:"payload,omitempty" dynamodbav:"payload,omitempty"`
	Status    string                 `json:"status" dynamodbav:"status"`
	Seq       int64                  `json:"seq" dynamodbav:"seq"`
	CreatedAt time.Time              `json:"created_at" dynamodbav:"created_at"`
}

// ValidCommandType reports whether t is one of the fixed command types.
func ValidCommandType(t string) bool {
	switch t {
	case CommandLoadPlaylist, CommandPlayPause, CommandNext, CommandPrev, CommandVolumeDelta:
		return true
	}
	return false
}

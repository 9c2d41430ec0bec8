package domain

import "time"

// NFCTag maps a physical tag UID to an owner and, optionally, a playlist.
// PK: tag_uid — the UID is globally unique across all accounts, enforced by
// a conditional put at registration.
type NFCTag struct {
	TagUID     string    `json:"tag_uid" dynamodbav:"tag_uid"`
	Name       string    `json:"name,omitempty" dynamodbav:"name"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	PlaylistID string    `json:"playlist_id,omitempty" dynamodbav:"playlist_id"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterTagRequest struct {
	TagUID string `json:"tag_uid" validate:"required,max=64"`
	Name   string `json:"name" validate:"max=255"`
}

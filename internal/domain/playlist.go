package domain

import "time"

type Playlist struct {
	PlaylistID string    `json:"id" dynamodbav:"playlist_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	SongIDs    []string  `json:"song_ids" dynamodbav:"song_ids"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type PlaylistInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

package domain

import "time"

type Song struct {
	SongID    string    `json:"id" dynamodbav:"song_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Artist    string    `json:"artist" dynamodbav:"artist"`
	Genre     string    `json:"genre" dynamodbav:"genre"`
	Price     float64   `json:"price" dynamodbav:"price"`
	ImageURL  string    `json:"image_url,omitempty" dynamodbav:"image_url"`
	Object    string    `json:"-" dynamodbav:"object"` // S3 key of the audio file
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateSongRequest struct {
	Title  string  `json:"title" validate:"required,max=255"`
	Artist string  `json:"artist" validate:"required,max=255"`
	Genre  string  `json:"genre" validate:"max=64"`
	Price  float64 `json:"price" validate:"gte=0"`
}

type UpdateSongRequest struct {
	Title    *string  `json:"title"`
	Artist   *string  `json:"artist"`
	Genre    *string  `json:"genre"`
	Price    *float64 `json:"price"`
	ImageURL *string  `json:"image_url"`
}

// Purchase records user↔song ownership. PK: user_id, SK: song_id.
type Purchase struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	SongID    string    `json:"song_id" dynamodbav:"song_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

package http

import (
	"context"
	"io"
	"time"

	"github.com/taptone-api/internal/domain"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleSub(ctx context.Context, sub string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

// SessionRepository is the minimal interface the router requires from a session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	SoftDeleteByUser(ctx context.Context, userID string) error
}

// DeviceRepository is the minimal interface the router requires from a device store.
type DeviceRepository interface {
	Create(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	Touch(ctx context.Context, deviceID string, seenAt time.Time) error
	NextSeq(ctx context.Context, deviceID string) (int64, error)
	Delete(ctx context.Context, deviceID string) error
}

// ClaimCodeRepository is the minimal interface the router requires from a claim-code store.
type ClaimCodeRepository interface {
	Put(ctx context.Context, c *domain.ClaimCode) error
	GetLiveByCode(ctx context.Context, code string, nowUnix int64) (*domain.ClaimCode, error)
	ConsumeAndClaim(ctx context.Context, deviceID, code, userID string, nowUnix int64) error
	Delete(ctx context.Context, deviceID string) error
}

// CommandRepository is the minimal interface the router requires from a command store.
type CommandRepository interface {
	Put(ctx context.Context, c *domain.Command) error
	ListPending(ctx context.Context, deviceID string) ([]domain.Command, error)
	Get(ctx context.Context, commandID string) (*domain.Command, error)
	MarkAcked(ctx context.Context, deviceID, commandID string) error
	DeleteByDevice(ctx context.Context, deviceID string) error
}

// TagRepository is the minimal interface the router requires from a tag store.
type TagRepository interface {
	Create(ctx context.Context, t *domain.NFCTag) error
	Get(ctx context.Context, tagUID string) (*domain.NFCTag, error)
	ListByUser(ctx context.Context, userID string) ([]domain.NFCTag, error)
	Update(ctx context.Context, tagUID string, updates map[string]interface{}) error
	Delete(ctx context.Context, tagUID string) error
}

// PlaylistRepository is the minimal interface the router requires from a playlist store.
type PlaylistRepository interface {
	Put(ctx context.Context, p *domain.Playlist) error
	Get(ctx context.Context, playlistID string) (*domain.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Playlist, error)
	Update(ctx context.Context, playlistID string, updates map[string]interface{}) error
	Delete(ctx context.Context, playlistID string) error
}

// SongRepository is the minimal interface the router requires from a song store.
type SongRepository interface {
	Put(ctx context.Context, s *domain.Song) error
	Get(ctx context.Context, songID string) (*domain.Song, error)
	Scan(ctx context.Context) ([]domain.Song, error)
	BatchGet(ctx context.Context, songIDs []string) ([]domain.Song, error)
	Update(ctx context.Context, songID string, updates map[string]interface{}) error
	Delete(ctx context.Context, songID string) error
}

// PurchaseRepository is the minimal interface the router requires from a purchase store.
type PurchaseRepository interface {
	Put(ctx context.Context, p *domain.Purchase) error
	Exists(ctx context.Context, userID, songID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error)
}

// VerificationRepository is the minimal interface the router requires from a verification store.
type VerificationRepository interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, userID, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, userID, verType string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

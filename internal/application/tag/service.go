package tag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taptone-api/internal/domain"
)

// SyncSong is one playable entry in a hardware sync response. The stream
// URL is presigned and short-lived; kiosks refetch the whole mapping when
// a URL goes stale.
type SyncSong struct {
	SongID string `json:"song_id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre,omitempty"`
	URL    string `json:"url"`
}

// SyncPlaylist is the resolver output for one tag. It carries no account
// data at all: the endpoint is unauthenticated and anything beyond the
// playlist itself would leak.
type SyncPlaylist struct {
	PlaylistID   string     `json:"playlist_id"`
	PlaylistName string     `json:"playlist_name"`
	Songs        []SyncSong `json:"songs"`
}

type Service interface {
	Register(ctx context.Context, userID string, req domain.RegisterTagRequest) (*domain.NFCTag, error)
	List(ctx context.Context, userID string) ([]domain.NFCTag, error)
	Rename(ctx context.Context, userID, tagUID, name string) (*domain.NFCTag, error)
	SetPlaylist(ctx context.Context, userID, tagUID, playlistID string) (*domain.NFCTag, error)
	Delete(ctx context.Context, userID, tagUID string) error
	Resolve(ctx context.Context, tagUID string) (*SyncPlaylist, error)
}

type tagStore interface {
	Create(ctx context.Context, t *domain.NFCTag) error
	Get(ctx context.Context, tagUID string) (*domain.NFCTag, error)
	ListByUser(ctx context.Context, userID string) ([]domain.NFCTag, error)
	Update(ctx context.Context, tagUID string, updates map[string]interface{}) error
	Delete(ctx context.Context, tagUID string) error
}

type playlistStore interface {
	Get(ctx context.Context, playlistID string) (*domain.Playlist, error)
}

type songStore interface {
	BatchGet(ctx context.Context, songIDs []string) ([]domain.Song, error)
}

type presigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	repo         tagStore
	playlists    playlistStore
	songs        songStore
	files        presigner
	streamURLTTL time.Duration
	logger       *slog.Logger
}

type ServiceDeps struct {
	TagRepo      tagStore
	PlaylistRepo playlistStore
	SongRepo     songStore
	FileStore    presigner
	StreamURLTTL time.Duration
	Logger       *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:         deps.TagRepo,
		playlists:    deps.PlaylistRepo,
		songs:        deps.SongRepo,
		files:        deps.FileStore,
		streamURLTTL: deps.StreamURLTTL,
		logger:       logger,
	}
}

// Register binds a physical tag UID to the caller's account. UIDs are
// globally unique: a UID already registered anywhere fails with a conflict,
// whoever owns it.
func (s *service) Register(ctx context.Context, userID string, req domain.RegisterTagRequest) (*domain.NFCTag, error) {
	now := time.Now().UTC()
	t := &domain.NFCTag{
		TagUID:    req.TagUID,
		Name:      req.Name,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("tag %q already registered: %w", req.TagUID, domain.ErrConflict)
		}
		return nil, err
	}
	return t, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.NFCTag, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Rename(ctx context.Context, userID, tagUID, name string) (*domain.NFCTag, error) {
	t, err := s.owned(ctx, userID, tagUID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tagUID, map[string]interface{}{"name": name}); err != nil {
		return nil, err
	}
	t.Name = name
	return t, nil
}

// SetPlaylist links the tag to one of the caller's playlists, or unlinks it
// when playlistID is empty. Relinking just overwrites.
func (s *service) SetPlaylist(ctx context.Context, userID, tagUID, playlistID string) (*domain.NFCTag, error) {
	t, err := s.owned(ctx, userID, tagUID)
	if err != nil {
		return nil, err
	}
	if playlistID != "" {
		p, err := s.playlists.Get(ctx, playlistID)
		if err != nil {
			return nil, err
		}
		if p.UserID != userID {
			return nil, fmt.Errorf("playlist %q: %w", playlistID, domain.ErrNotFound)
		}
	}
	if err := s.repo.Update(ctx, tagUID, map[string]interface{}{"playlist_id": playlistID}); err != nil {
		return nil, err
	}
	t.PlaylistID = playlistID
	return t, nil
}

func (s *service) Delete(ctx context.Context, userID, tagUID string) error {
	if _, err := s.owned(ctx, userID, tagUID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tagUID)
}

// Resolve maps a tag UID straight to playable content for kiosk sync. The
// lookup is global and unauthenticated (the tag UID is the capability), so
// an unlinked tag and an unknown tag are both plain not-found.
func (s *service) Resolve(ctx context.Context, tagUID string) (*SyncPlaylist, error) {
	t, err := s.repo.Get(ctx, tagUID)
	if err != nil {
		return nil, err
	}
	if t.PlaylistID == "" {
		return nil, fmt.Errorf("tag %q has no playlist: %w", tagUID, domain.ErrNotFound)
	}
	p, err := s.playlists.Get(ctx, t.PlaylistID)
	if err != nil {
		return nil, err
	}
	songs, err := s.songs.BatchGet(ctx, p.SongIDs)
	if err != nil {
		return nil, err
	}
	// BatchGet does not preserve request order; rebuild the playlist order.
	byID := make(map[string]domain.Song, len(songs))
	for _, song := range songs {
		byID[song.SongID] = song
	}
	out := &SyncPlaylist{
		PlaylistID:   p.PlaylistID,
		PlaylistName: p.Name,
		Songs:        make([]SyncSong, 0, len(p.SongIDs)),
	}
	for _, songID := range p.SongIDs {
		song, ok := byID[songID]
		if !ok {
			continue
		}
		url, err := s.files.PresignedURL(ctx, song.Object, s.streamURLTTL)
		if err != nil {
			s.logger.Warn("sync skipped song without stream url",
				"song_id", song.SongID, "error", err)
			continue
		}
		out.Songs = append(out.Songs, SyncSong{
			SongID: song.SongID,
			Title:  song.Title,
			Artist: song.Artist,
			Genre:  song.Genre,
			URL:    url,
		})
	}
	return out, nil
}

func (s *service) owned(ctx context.Context, userID, tagUID string) (*domain.NFCTag, error) {
	t, err := s.repo.Get(ctx, tagUID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("tag %q: %w", tagUID, domain.ErrNotFound)
	}
	return t, nil
}

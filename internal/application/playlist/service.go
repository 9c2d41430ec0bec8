package playlist

import (
	"context"
	"fmt"
	"time"

	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.PlaylistInput) (*domain.Playlist, error)
	List(ctx context.Context, userID string) ([]domain.Playlist, error)
	Get(ctx context.Context, userID, playlistID string) (*domain.Playlist, error)
	Rename(ctx context.Context, userID, playlistID, name string) (*domain.Playlist, error)
	SetSongs(ctx context.Context, userID, playlistID string, songIDs []string) (*domain.Playlist, error)
	Delete(ctx context.Context, userID, playlistID string) error
}

type playlistStore interface {
	Put(ctx context.Context, p *domain.Playlist) error
	Get(ctx context.Context, playlistID string) (*domain.Playlist, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Playlist, error)
	Update(ctx context.Context, playlistID string, updates map[string]interface{}) error
	Delete(ctx context.Context, playlistID string) error
}

type purchaseStore interface {
	Exists(ctx context.Context, userID, songID string) (bool, error)
}

type service struct {
	repo      playlistStore
	purchases purchaseStore
}

type ServiceDeps struct {
	PlaylistRepo playlistStore
	PurchaseRepo purchaseStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.PlaylistRepo,
		purchases: deps.PurchaseRepo,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.PlaylistInput) (*domain.Playlist, error) {
	now := time.Now().UTC()
	p := &domain.Playlist{
		PlaylistID: id.New(),
		Name:       req.Name,
		UserID:     userID,
		SongIDs:    []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Playlist, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, playlistID string) (*domain.Playlist, error) {
	return s.owned(ctx, userID, playlistID)
}

func (s *service) Rename(ctx context.Context, userID, playlistID, name string) (*domain.Playlist, error) {
	p, err := s.owned(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, playlistID, map[string]interface{}{"name": name}); err != nil {
		return nil, err
	}
	p.Name = name
	return p, nil
}

// SetSongs replaces the playlist's contents. Every song must be in the
// caller's collection; playlists only arrange what the account owns.
func (s *service) SetSongs(ctx context.Context, userID, playlistID string, songIDs []string) (*domain.Playlist, error) {
	p, err := s.owned(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}
	for _, songID := range songIDs {
		owned, err := s.purchases.Exists(ctx, userID, songID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, fmt.Errorf("song %q is not in your collection: %w", songID, domain.ErrBadRequest)
		}
	}
	if songIDs == nil {
		songIDs = []string{}
	}
	if err := s.repo.Update(ctx, playlistID, map[string]interface{}{"song_ids": songIDs}); err != nil {
		return nil, err
	}
	p.SongIDs = songIDs
	return p, nil
}

func (s *service) Delete(ctx context.Context, userID, playlistID string) error {
	if _, err := s.owned(ctx, userID, playlistID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, playlistID)
}

func (s *service) owned(ctx context.Context, userID, playlistID string) (*domain.Playlist, error) {
	p, err := s.repo.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, fmt.Errorf("playlist %q: %w", playlistID, domain.ErrNotFound)
	}
	return p, nil
}

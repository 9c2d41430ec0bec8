package song

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/id"
)

type Service interface {
	Catalog(ctx context.Context) ([]domain.Song, error)
	Get(ctx context.Context, songID string) (*domain.Song, error)
	Upload(ctx context.Context, req domain.CreateSongRequest, file io.Reader, filename, contentType string) (*domain.Song, error)
	Update(ctx context.Context, songID string, req domain.UpdateSongRequest) (*domain.Song, error)
	Delete(ctx context.Context, songID string) error
	Purchase(ctx context.Context, userID, songID string) error
	Collection(ctx context.Context, userID string) ([]domain.Song, error)
	StreamURL(ctx context.Context, songID string) (string, error)
}

type songStore interface {
	Put(ctx context.Context, s *domain.Song) error
	Get(ctx context.Context, songID string) (*domain.Song, error)
	Scan(ctx context.Context) ([]domain.Song, error)
	BatchGet(ctx context.Context, songIDs []string) ([]domain.Song, error)
	Update(ctx context.Context, songID string, updates map[string]interface{}) error
	Delete(ctx context.Context, songID string) error
}

type purchaseStore interface {
	Put(ctx context.Context, p *domain.Purchase) error
	ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error)
}

type fileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo         songStore
	purchases    purchaseStore
	files        fileStore
	streamURLTTL time.Duration
	logger       *slog.Logger
}

type ServiceDeps struct {
	SongRepo     songStore
	PurchaseRepo purchaseStore
	FileStore    fileStore
	StreamURLTTL time.Duration
	Logger       *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:         deps.SongRepo,
		purchases:    deps.PurchaseRepo,
		files:        deps.FileStore,
		streamURLTTL: deps.StreamURLTTL,
		logger:       logger,
	}
}

func (s *service) Catalog(ctx context.Context) ([]domain.Song, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, songID string) (*domain.Song, error) {
	return s.repo.Get(ctx, songID)
}

// Upload stores the audio object first and writes the catalog row after:
// an orphan object in the bucket is harmless, a row without audio is not.
func (s *service) Upload(ctx context.Context, req domain.CreateSongRequest, file io.Reader, filename, contentType string) (*domain.Song, error) {
	songID := id.New()
	key := fmt.Sprintf("songs/%s%s", songID, path.Ext(filename))
	if _, err := s.files.Upload(ctx, key, file, contentType); err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}
	now := time.Now().UTC()
	row := &domain.Song{
		SongID:    songID,
		Title:     req.Title,
		Artist:    req.Artist,
		Genre:     req.Genre,
		Price:     req.Price,
		ImageURL:  coverURL(req.Title, req.Artist),
		Object:    key,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("song uploaded", "song_id", songID, "title", req.Title)
	return row, nil
}

func (s *service) Update(ctx context.Context, songID string, req domain.UpdateSongRequest) (*domain.Song, error) {
	row, err := s.repo.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
		row.Title = *req.Title
	}
	if req.Artist != nil {
		updates["artist"] = *req.Artist
		row.Artist = *req.Artist
	}
	if req.Genre != nil {
		updates["genre"] = *req.Genre
		row.Genre = *req.Genre
	}
	if req.Price != nil {
		updates["price"] = *req.Price
		row.Price = *req.Price
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
		row.ImageURL = *req.ImageURL
	}
	if len(updates) == 0 {
		return row, nil
	}
	if err := s.repo.Update(ctx, songID, updates); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) Delete(ctx context.Context, songID string) error {
	row, err := s.repo.Get(ctx, songID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, row.Object); err != nil {
		// The row must go regardless; a stray object is cleanup, not state.
		s.logger.Warn("audio object delete failed", "song_id", songID, "error", err)
	}
	return s.repo.Delete(ctx, songID)
}

// Purchase adds the song to the caller's collection. The purchases row is
// keyed (user_id, song_id); buying the same song twice rewrites the same
// row, so the operation is idempotent by construction.
func (s *service) Purchase(ctx context.Context, userID, songID string) error {
	if _, err := s.repo.Get(ctx, songID); err != nil {
		return err
	}
	return s.purchases.Put(ctx, &domain.Purchase{
		UserID:    userID,
		SongID:    songID,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *service) Collection(ctx context.Context, userID string) ([]domain.Song, error) {
	rows, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.Song{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.SongID)
	}
	return s.repo.BatchGet(ctx, ids)
}

func (s *service) StreamURL(ctx context.Context, songID string) (string, error) {
	row, err := s.repo.Get(ctx, songID)
	if err != nil {
		return "", err
	}
	url, err := s.files.PresignedURL(ctx, row.Object, s.streamURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign stream url: %w", err)
	}
	return url, nil
}

// coverURL derives a stable placeholder artwork URL from the song identity,
// so the same song always renders the same cover.
func coverURL(title, artist string) string {
	seed := md5.Sum([]byte(title + artist))
	return fmt.Sprintf("https://picsum.photos/seed/%x/400", seed[:6])
}

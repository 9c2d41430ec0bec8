package tag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taptone-api/internal/domain"
)

// --- mocks ---

type mockTagStore struct{ mock.Mock }

func (m *mockTagStore) Create(ctx context.Context, tg *domain.NFCTag) error {
	return m.Called(ctx, tg).Error(0)
}
func (m *mockTagStore) Get(ctx context.Context, tagUID string) (*domain.NFCTag, error) {
	args := m.Called(ctx, tagUID)
	if tg, _ := args.Get(0).(*domain.NFCTag); tg != nil {
		return tg, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTagStore) ListByUser(ctx context.Context, userID string) ([]domain.NFCTag, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.NFCTag), args.Error(1)
}
func (m *mockTagStore) Update(ctx context.Context, tagUID string, updates map[string]interface{}) error {
	return m.Called(ctx, tagUID, updates).Error(0)
}
func (m *mockTagStore) Delete(ctx context.Context, tagUID string) error {
	return m.Called(ctx, tagUID).Error(0)
}

type mockPlaylistStore struct{ mock.Mock }

func (m *mockPlaylistStore) Get(ctx context.Context, playlistID string) (*domain.Playlist, error) {
	args := m.Called(ctx, playlistID)
	if p, _ := args.Get(0).(*domain.Playlist); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSongStore struct{ mock.Mock }

func (m *mockSongStore) BatchGet(ctx context.Context, songIDs []string) ([]domain.Song, error) {
	args := m.Called(ctx, songIDs)
	return args.Get(0).([]domain.Song), args.Error(1)
}

type mockPresigner struct{ mock.Mock }

func (m *mockPresigner) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func newTestService(tr *mockTagStore, pr *mockPlaylistStore, sr *mockSongStore, fs *mockPresigner) Service {
	return NewService(ServiceDeps{
		TagRepo:      tr,
		PlaylistRepo: pr,
		SongRepo:     sr,
		FileStore:    fs,
		StreamURLTTL: time.Hour,
	})
}

// --- Register ---

func TestRegister_DuplicateUIDConflicts(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	svc := newTestService(tr, nil, nil, nil)
	_, err := svc.Register(context.Background(), "user-1", domain.RegisterTagRequest{TagUID: "04:A3:22"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// --- SetPlaylist ---

func TestSetPlaylist_LinksOwnedPlaylist(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:A3:22").
		Return(&domain.NFCTag{TagUID: "04:A3:22", UserID: "user-1"}, nil)
	tr.On("Update", mock.Anything, "04:A3:22", map[string]interface{}{"playlist_id": "pl-1"}).Return(nil)
	pr := &mockPlaylistStore{}
	pr.On("Get", mock.Anything, "pl-1").Return(&domain.Playlist{PlaylistID: "pl-1", UserID: "user-1"}, nil)

	svc := newTestService(tr, pr, nil, nil)
	tg, err := svc.SetPlaylist(context.Background(), "user-1", "04:A3:22", "pl-1")

	require.NoError(t, err)
	assert.Equal(t, "pl-1", tg.PlaylistID)
}

func TestSetPlaylist_ForeignPlaylistRejected(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:A3:22").
		Return(&domain.NFCTag{TagUID: "04:A3:22", UserID: "user-1"}, nil)
	pr := &mockPlaylistStore{}
	pr.On("Get", mock.Anything, "pl-9").Return(&domain.Playlist{PlaylistID: "pl-9", UserID: "someone-else"}, nil)

	svc := newTestService(tr, pr, nil, nil)
	_, err := svc.SetPlaylist(context.Background(), "user-1", "04:A3:22", "pl-9")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	tr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetPlaylist_EmptyIDUnlinks(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:A3:22").
		Return(&domain.NFCTag{TagUID: "04:A3:22", UserID: "user-1", PlaylistID: "pl-1"}, nil)
	tr.On("Update", mock.Anything, "04:A3:22", map[string]interface{}{"playlist_id": ""}).Return(nil)

	svc := newTestService(tr, &mockPlaylistStore{}, nil, nil)
	tg, err := svc.SetPlaylist(context.Background(), "user-1", "04:A3:22", "")

	require.NoError(t, err)
	assert.Empty(t, tg.PlaylistID)
}

// --- Resolve ---

func TestResolve_ReturnsSongsInPlaylistOrder(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:A3:22").
		Return(&domain.NFCTag{TagUID: "04:A3:22", UserID: "user-1", PlaylistID: "pl-1"}, nil)
	pr := &mockPlaylistStore{}
	pr.On("Get", mock.Anything, "pl-1").Return(&domain.Playlist{
		PlaylistID: "pl-1",
		Name:       "Morning",
		UserID:     "user-1",
		SongIDs:    []string{"s2", "s1"},
	}, nil)
	sr := &mockSongStore{}
	// The store returns hits in arbitrary order.
	sr.On("BatchGet", mock.Anything, []string{"s2", "s1"}).Return([]domain.Song{
		{SongID: "s1", Title: "One", Object: "songs/s1.mp3"},
		{SongID: "s2", Title: "Two", Object: "songs/s2.mp3"},
	}, nil)
	fs := &mockPresigner{}
	fs.On("PresignedURL", mock.Anything, "songs/s1.mp3", time.Hour).Return("https://s3/s1", nil)
	fs.On("PresignedURL", mock.Anything, "songs/s2.mp3", time.Hour).Return("https://s3/s2", nil)

	svc := newTestService(tr, pr, sr, fs)
	out, err := svc.Resolve(context.Background(), "04:A3:22")

	require.NoError(t, err)
	assert.Equal(t, "Morning", out.PlaylistName)
	require.Len(t, out.Songs, 2)
	assert.Equal(t, "s2", out.Songs[0].SongID)
	assert.Equal(t, "s1", out.Songs[1].SongID)
	assert.Equal(t, "https://s3/s2", out.Songs[0].URL)
}

func TestResolve_UnlinkedTagIsNotFound(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:A3:22").
		Return(&domain.NFCTag{TagUID: "04:A3:22", UserID: "user-1"}, nil)

	svc := newTestService(tr, &mockPlaylistStore{}, &mockSongStore{}, &mockPresigner{})
	_, err := svc.Resolve(context.Background(), "04:A3:22")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolve_UnknownTagIsNotFound(t *testing.T) {
	tr := &mockTagStore{}
	tr.On("Get", mock.Anything, "04:FF:FF").Return(nil, domain.ErrNotFound)

	svc := newTestService(tr, &mockPlaylistStore{}, &mockSongStore{}, &mockPresigner{})
	_, err := svc.Resolve(context.Background(), "04:FF:FF")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

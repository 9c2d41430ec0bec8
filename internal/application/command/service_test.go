package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taptone-api/internal/domain"
)

// --- mocks ---

type mockCommandStore struct{ mock.Mock }

func (m *mockCommandStore) Put(ctx context.Context, c *domain.Command) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCommandStore) ListPending(ctx context.Context, deviceID string) ([]domain.Command, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).([]domain.Command), args.Error(1)
}
func (m *mockCommandStore) Get(ctx context.Context, commandID string) (*domain.Command, error) {
	args := m.Called(ctx, commandID)
	if c, _ := args.Get(0).(*domain.Command); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCommandStore) MarkAcked(ctx context.Context, deviceID, commandID string) error {
	return m.Called(ctx, deviceID, commandID).Error(0)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceStore) NextSeq(ctx context.Context, deviceID string) (int64, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(cs *mockCommandStore, ds *mockDeviceStore) Service {
	return NewService(ServiceDeps{CommandRepo: cs, DeviceRepo: ds})
}

// --- Enqueue ---

func TestEnqueue_AssignsSeqAndPending(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("NextSeq", mock.Anything, "kiosk-001").Return(int64(7), nil)
	cs := &mockCommandStore{}
	var stored *domain.Command
	cs.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Command)
	}).Return(nil)

	svc := newTestService(cs, ds)
	c, err := svc.Enqueue(context.Background(), "kiosk-001", domain.CommandLoadPlaylist,
		map[string]interface{}{"playlist_id": "pl-1"})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.CommandStatusPending, c.Status)
	assert.Equal(t, int64(7), c.Seq)
	assert.NotEmpty(t, c.CommandID)
	assert.Equal(t, "pl-1", c.Payload["playlist_id"])
}

func TestEnqueue_RejectsUnknownType(t *testing.T) {
	svc := newTestService(&mockCommandStore{}, &mockDeviceStore{})
	_, err := svc.Enqueue(context.Background(), "kiosk-001", "SELF_DESTRUCT", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestEnqueue_UnknownDevice(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("NextSeq", mock.Anything, "ghost").Return(int64(0), domain.ErrNotFound)

	svc := newTestService(&mockCommandStore{}, ds)
	_, err := svc.Enqueue(context.Background(), "ghost", domain.CommandNext, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Poll ---

func TestPoll_ReturnsPendingOldestFirst(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)
	pending := []domain.Command{
		{CommandID: "01A", Type: domain.CommandPlayPause, Seq: 1},
		{CommandID: "01B", Type: domain.CommandNext, Seq: 2},
	}
	cs := &mockCommandStore{}
	cs.On("ListPending", mock.Anything, "kiosk-001").Return(pending, nil)

	svc := newTestService(cs, ds)
	got, err := svc.Poll(context.Background(), "kiosk-001")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "01A", got[0].CommandID)
	assert.Equal(t, "01B", got[1].CommandID)
}

func TestPoll_IsNonDestructive(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)
	pending := []domain.Command{{CommandID: "01A", Seq: 1}}
	cs := &mockCommandStore{}
	cs.On("ListPending", mock.Anything, "kiosk-001").Return(pending, nil).Twice()

	svc := newTestService(cs, ds)
	first, err := svc.Poll(context.Background(), "kiosk-001")
	require.NoError(t, err)
	second, err := svc.Poll(context.Background(), "kiosk-001")
	require.NoError(t, err)

	// Nothing is marked or removed by reading the queue.
	assert.Equal(t, first, second)
	cs.AssertNotCalled(t, "MarkAcked", mock.Anything, mock.Anything, mock.Anything)
}

func TestPoll_UnknownDevice(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newTestService(&mockCommandStore{}, ds)
	_, err := svc.Poll(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Ack ---

func TestAck_MarksPendingCommand(t *testing.T) {
	cs := &mockCommandStore{}
	cs.On("Get", mock.Anything, "01A").
		Return(&domain.Command{DeviceID: "kiosk-001", CommandID: "01A", Status: domain.CommandStatusPending}, nil)
	cs.On("MarkAcked", mock.Anything, "kiosk-001", "01A").Return(nil)

	svc := newTestService(cs, &mockDeviceStore{})
	require.NoError(t, svc.Ack(context.Background(), "01A"))
	cs.AssertExpectations(t)
}

func TestAck_AlreadyAckedIsNoop(t *testing.T) {
	cs := &mockCommandStore{}
	cs.On("Get", mock.Anything, "01A").
		Return(&domain.Command{DeviceID: "kiosk-001", CommandID: "01A", Status: domain.CommandStatusAcked}, nil)

	svc := newTestService(cs, &mockDeviceStore{})
	require.NoError(t, svc.Ack(context.Background(), "01A"))
	cs.AssertNotCalled(t, "MarkAcked", mock.Anything, mock.Anything, mock.Anything)
}

func TestAck_MissingCommandIsNoop(t *testing.T) {
	cs := &mockCommandStore{}
	cs.On("Get", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

	svc := newTestService(cs, &mockDeviceStore{})
	require.NoError(t, svc.Ack(context.Background(), "gone"))
}

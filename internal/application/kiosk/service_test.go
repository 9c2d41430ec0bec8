package kiosk

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

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Create(ctx context.Context, d *domain.Device) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockDeviceStore) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceStore) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDeviceStore) Update(ctx context.Context, deviceID string, updates map[string]interface{}) error {
	return m.Called(ctx, deviceID, updates).Error(0)
}
func (m *mockDeviceStore) Touch(ctx context.Context, deviceID string, seenAt time.Time) error {
	return m.Called(ctx, deviceID, seenAt).Error(0)
}
func (m *mockDeviceStore) Delete(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

type mockCommandStore struct{ mock.Mock }

func (m *mockCommandStore) DeleteByDevice(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

type mockClaimCodeStore struct{ mock.Mock }

func (m *mockClaimCodeStore) Delete(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func newTestService(ds *mockDeviceStore, cs *mockCommandStore, cc *mockClaimCodeStore) Service {
	return NewService(ServiceDeps{DeviceRepo: ds, CommandRepo: cs, ClaimCodeRepo: cc})
}

// --- Register ---

func TestRegister_NewDevice(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Device) bool {
		return d.DeviceID == "kiosk-001" && d.Enable && !d.Claimed()
	})).Return(nil)

	svc := newTestService(ds, nil, nil)
	d, created, err := svc.Register(context.Background(), domain.RegisterDeviceRequest{
		DeviceID: "kiosk-001",
		Name:     "Living Room",
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "kiosk-001", d.DeviceID)
	assert.Equal(t, "Living Room", d.Name)
	ds.AssertExpectations(t)
}

func TestRegister_ExistingDeviceIsReturnedUntouched(t *testing.T) {
	existing := &domain.Device{
		DeviceID: "kiosk-001",
		Name:     "Kitchen",
		UserID:   "user-1",
		Enable:   true,
	}
	ds := &mockDeviceStore{}
	ds.On("Create", mock.Anything, mock.Anything).Return(domain.ErrConflict)
	ds.On("Get", mock.Anything, "kiosk-001").Return(existing, nil)

	svc := newTestService(ds, nil, nil)
	d, created, err := svc.Register(context.Background(), domain.RegisterDeviceRequest{
		DeviceID: "kiosk-001",
		Name:     "Renamed By Reboot",
	})

	require.NoError(t, err)
	// Re-registration must not rename the device or clear its owner.
	assert.False(t, created)
	assert.Equal(t, "Kitchen", d.Name)
	assert.Equal(t, "user-1", d.UserID)
	ds.AssertExpectations(t)
}

// --- Heartbeat ---

func TestHeartbeat_DelegatesToTouch(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Touch", mock.Anything, "kiosk-001", mock.Anything).Return(nil)

	svc := newTestService(ds, nil, nil)
	require.NoError(t, svc.Heartbeat(context.Background(), "kiosk-001"))
	ds.AssertExpectations(t)
}

// --- Remove ---

func TestRemove_CascadesCommandsAndClaimCode(t *testing.T) {
	ds := &mockDeviceStore{}
	cs := &mockCommandStore{}
	cc := &mockClaimCodeStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001", UserID: "user-1"}, nil)
	cs.On("DeleteByDevice", mock.Anything, "kiosk-001").Return(nil)
	cc.On("Delete", mock.Anything, "kiosk-001").Return(nil)
	ds.On("Delete", mock.Anything, "kiosk-001").Return(nil)

	svc := newTestService(ds, cs, cc)
	require.NoError(t, svc.Remove(context.Background(), "user-1", "kiosk-001"))
	ds.AssertExpectations(t)
	cs.AssertExpectations(t)
	cc.AssertExpectations(t)
}

func TestRemove_ForeignDeviceLooksLikeNotFound(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001", UserID: "someone-else"}, nil)

	svc := newTestService(ds, &mockCommandStore{}, &mockClaimCodeStore{})
	err := svc.Remove(context.Background(), "user-1", "kiosk-001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	ds.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRemove_UnclaimedDeviceLooksLikeNotFound(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)

	svc := newTestService(ds, &mockCommandStore{}, &mockClaimCodeStore{})
	err := svc.Remove(context.Background(), "user-1", "kiosk-001")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Rename ---

func TestRename_UpdatesOwnedDevice(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001", UserID: "user-1", Name: "Old"}, nil)
	ds.On("Update", mock.Anything, "kiosk-001", map[string]interface{}{"name": "New"}).Return(nil)

	svc := newTestService(ds, nil, nil)
	d, err := svc.Rename(context.Background(), "user-1", "kiosk-001", "New")

	require.NoError(t, err)
	assert.Equal(t, "New", d.Name)
	ds.AssertExpectations(t)
}

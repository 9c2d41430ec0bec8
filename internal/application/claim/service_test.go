package claim

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

type mockClaimCodeStore struct{ mock.Mock }

func (m *mockClaimCodeStore) Put(ctx context.Context, c *domain.ClaimCode) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockClaimCodeStore) GetLiveByCode(ctx context.Context, code string, nowUnix int64) (*domain.ClaimCode, error) {
	args := m.Called(ctx, code, nowUnix)
	if c, _ := args.Get(0).(*domain.ClaimCode); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockClaimCodeStore) ConsumeAndClaim(ctx context.Context, deviceID, code, userID string, nowUnix int64) error {
	return m.Called(ctx, deviceID, code, userID, nowUnix).Error(0)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(cc *mockClaimCodeStore, ds *mockDeviceStore) Service {
	return NewService(ServiceDeps{ClaimCodeRepo: cc, DeviceRepo: ds})
}

// --- Issue ---

func TestIssue_GeneratesSixCharCode(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)

	cc := &mockClaimCodeStore{}
	cc.On("GetLiveByCode", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	var stored *domain.ClaimCode
	cc.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.ClaimCode)
	}).Return(nil)

	svc := newTestService(cc, ds)
	before := time.Now().UTC()
	c, err := svc.Issue(context.Background(), "kiosk-001")

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "kiosk-001", c.DeviceID)
	assert.Len(t, c.Code, codeLength)
	for _, r := range c.Code {
		assert.Contains(t, codeAlphabet, string(r))
	}
	wantExpiry := before.Add(domain.ClaimCodeTTL).Unix()
	assert.InDelta(t, wantExpiry, c.ExpiresAt, 5)
}

func TestIssue_RetriesOnGlobalCollision(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)

	cc := &mockClaimCodeStore{}
	// First generated code is live on another device; second is free.
	cc.On("GetLiveByCode", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ClaimCode{DeviceID: "kiosk-999"}, nil).Once()
	cc.On("GetLiveByCode", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrNotFound).Once()
	cc.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(cc, ds)
	_, err := svc.Issue(context.Background(), "kiosk-001")

	require.NoError(t, err)
	cc.AssertNumberOfCalls(t, "GetLiveByCode", 2)
	cc.AssertNumberOfCalls(t, "Put", 1)
}

func TestIssue_UnknownDevice(t *testing.T) {
	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	svc := newTestService(&mockClaimCodeStore{}, ds)
	_, err := svc.Issue(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- Verify ---

func TestVerify_BindsDeviceToUser(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cc := &mockClaimCodeStore{}
	cc.On("GetLiveByCode", mock.Anything, "AB12CD", fixed.Unix()).
		Return(&domain.ClaimCode{DeviceID: "kiosk-001", Code: "AB12CD", ExpiresAt: fixed.Add(time.Minute).Unix()}, nil)
	cc.On("ConsumeAndClaim", mock.Anything, "kiosk-001", "AB12CD", "user-1", fixed.Unix()).Return(nil)

	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)

	svc := NewService(ServiceDeps{
		ClaimCodeRepo: cc,
		DeviceRepo:    ds,
		Now:           func() time.Time { return fixed },
	})
	d, err := svc.Verify(context.Background(), "user-1", "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, "kiosk-001", d.DeviceID)
	assert.Equal(t, "user-1", d.UserID)
	cc.AssertExpectations(t)
}

func TestVerify_UnknownCodeIsInvalidOrExpired(t *testing.T) {
	cc := &mockClaimCodeStore{}
	cc.On("GetLiveByCode", mock.Anything, "NOPE00", mock.Anything).Return(nil, domain.ErrNotFound)

	svc := newTestService(cc, &mockDeviceStore{})
	_, err := svc.Verify(context.Background(), "user-1", "NOPE00")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestVerify_LostRaceIsInvalidOrExpired(t *testing.T) {
	cc := &mockClaimCodeStore{}
	cc.On("GetLiveByCode", mock.Anything, "AB12CD", mock.Anything).
		Return(&domain.ClaimCode{DeviceID: "kiosk-001", Code: "AB12CD"}, nil)
	// A concurrent verify consumed the code between lookup and transact.
	cc.On("ConsumeAndClaim", mock.Anything, "kiosk-001", "AB12CD", "user-1", mock.Anything).
		Return(domain.ErrNotFound)

	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001"}, nil)

	svc := newTestService(cc, ds)
	_, err := svc.Verify(context.Background(), "user-1", "AB12CD")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrExpired))
}

func TestVerify_RePairTransfersOwnership(t *testing.T) {
	cc := &mockClaimCodeStore{}
	cc.On("GetLiveByCode", mock.Anything, "AB12CD", mock.Anything).
		Return(&domain.ClaimCode{DeviceID: "kiosk-001", Code: "AB12CD"}, nil)
	cc.On("ConsumeAndClaim", mock.Anything, "kiosk-001", "AB12CD", "user-2", mock.Anything).Return(nil)

	ds := &mockDeviceStore{}
	ds.On("Get", mock.Anything, "kiosk-001").Return(&domain.Device{DeviceID: "kiosk-001", UserID: "user-1"}, nil)

	svc := newTestService(cc, ds)
	d, err := svc.Verify(context.Background(), "user-2", "AB12CD")

	require.NoError(t, err)
	assert.Equal(t, "user-2", d.UserID)
}

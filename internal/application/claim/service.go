package claim

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taptone-api/internal/domain"
)

// codeAlphabet deliberately has no lowercase: codes are read off a kiosk
// screen and typed into a phone, so case must not matter.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// maxCodeAttempts bounds the regenerate-on-collision loop. With a
	// 36^6 space a single retry is already rare; five failures in a row
	// means something is broken upstream.
	maxCodeAttempts = 5
)

type Service interface {
	Issue(ctx context.Context, deviceID string) (*domain.ClaimCode, error)
	Verify(ctx context.Context, userID, code string) (*domain.Device, error)
}

type claimCodeStore interface {
	Put(ctx context.Context, c *domain.ClaimCode) error
	GetLiveByCode(ctx context.Context, code string, nowUnix int64) (*domain.ClaimCode, error)
	ConsumeAndClaim(ctx context.Context, deviceID, code, userID string, nowUnix int64) error
}

type deviceStore interface {
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
}

type service struct {
	repo    claimCodeStore
	devices deviceStore
	logger  *slog.Logger
	now     func() time.Time
}

type ServiceDeps struct {
	ClaimCodeRepo claimCodeStore
	DeviceRepo    deviceStore
	Logger        *slog.Logger
	Now           func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    deps.ClaimCodeRepo,
		devices: deps.DeviceRepo,
		logger:  logger,
		now:     now,
	}
}

// Issue mints a fresh pairing code for the device. Writing the new row
// replaces whatever code the device had before, so reissuing is also how
// a stale code gets invalidated early.
func (s *service) Issue(ctx context.Context, deviceID string) (*domain.ClaimCode, error) {
	if _, err := s.devices.Get(ctx, deviceID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, fmt.Errorf("generate claim code: %w", err)
		}
		// Codes are looked up globally at verify time, so a live code on
		// some other device must not be reused.
		_, err = s.repo.GetLiveByCode(ctx, code, now.Unix())
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		c := &domain.ClaimCode{
			DeviceID:  deviceID,
			Code:      code,
			ExpiresAt: now.Add(domain.ClaimCodeTTL).Unix(),
		}
		if err := s.repo.Put(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("claim code space exhausted after %d attempts", maxCodeAttempts)
}

// Verify consumes the code and binds its device to userID in one shot.
// Every failure mode (unknown code, expired code, lost race against a
// concurrent verify) comes back as ErrInvalidOrExpired. Collapsing them
// keeps the endpoint from leaking which codes exist.
func (s *service) Verify(ctx context.Context, userID, code string) (*domain.Device, error) {
	nowUnix := s.now().UTC().Unix()
	c, err := s.repo.GetLiveByCode(ctx, code, nowUnix)
	if err != nil {
		return nil, fmt.Errorf("claim code lookup: %w", domain.ErrInvalidOrExpired)
	}
	prev, err := s.devices.Get(ctx, c.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("claim code device: %w", domain.ErrInvalidOrExpired)
	}
	if err := s.repo.ConsumeAndClaim(ctx, c.DeviceID, code, userID, nowUnix); err != nil {
		return nil, fmt.Errorf("claim code consume: %w", domain.ErrInvalidOrExpired)
	}
	if prev.Claimed() && prev.UserID != userID {
		s.logger.Warn("device re-paired to a different account",
			"device_id", prev.DeviceID, "previous_user_id", prev.UserID, "user_id", userID)
	}
	prev.UserID = userID
	s.logger.Info("device claimed", "device_id", prev.DeviceID, "user_id", userID)
	return prev, nil
}

func newCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

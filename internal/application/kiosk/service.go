package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taptone-api/internal/domain"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterDeviceRequest) (d *domain.Device, created bool, err error)
	Heartbeat(ctx context.Context, deviceID string) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	List(ctx context.Context, userID string) ([]domain.Device, error)
	Rename(ctx context.Context, userID, deviceID, name string) (*domain.Device, error)
	Remove(ctx context.Context, userID, deviceID string) error
}

type deviceStore interface {
	Create(ctx context.Context, d *domain.Device) error
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	Touch(ctx context.Context, deviceID string, seenAt time.Time) error
	Delete(ctx context.Context, deviceID string) error
}

type commandStore interface {
	DeleteByDevice(ctx context.Context, deviceID string) error
}

type claimCodeStore interface {
	Delete(ctx context.Context, deviceID string) error
}

type service struct {
	repo     deviceStore
	commands commandStore
	claims   claimCodeStore
	logger   *slog.Logger
}

type ServiceDeps struct {
	DeviceRepo    deviceStore
	CommandRepo   commandStore
	ClaimCodeRepo claimCodeStore
	Logger        *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:     deps.DeviceRepo,
		commands: deps.CommandRepo,
		claims:   deps.ClaimCodeRepo,
		logger:   logger,
	}
}

// Register creates the device row on first contact. Kiosks call this on
// every boot, so a device id that already exists is not an error: the
// existing row is returned untouched, ownership included, with created
// false. The conditional put decides created-vs-existing, so there is no
// separate existence check to race against.
func (s *service) Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.Device, bool, error) {
	now := time.Now().UTC()
	d := &domain.Device{
		DeviceID:  req.DeviceID,
		Name:      req.Name,
		LastSeen:  now.Unix(),
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.repo.Create(ctx, d)
	if err == nil {
		s.logger.Info("device registered", "device_id", d.DeviceID)
		return d, true, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return nil, false, fmt.Errorf("register device: %w", err)
	}
	existing, err := s.repo.Get(ctx, req.DeviceID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Heartbeat bumps last_seen. Unknown device ids are swallowed by the store
// layer so a kiosk whose row was removed mid-flight gets a clean 204, not
// an error it cannot act on.
func (s *service) Heartbeat(ctx context.Context, deviceID string) error {
	return s.repo.Touch(ctx, deviceID, time.Now().UTC())
}

func (s *service) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.repo.Get(ctx, deviceID)
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Device, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Rename(ctx context.Context, userID, deviceID, name string) (*domain.Device, error) {
	d, err := s.owned(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, deviceID, map[string]interface{}{"name": name}); err != nil {
		return nil, err
	}
	d.Name = name
	return d, nil
}

// Remove unbinds a device from the account and drops everything keyed to
// it: queued commands and any live claim code. The command purge runs
// first so a poll racing the removal cannot resurrect rows.
func (s *service) Remove(ctx context.Context, userID, deviceID string) error {
	if _, err := s.owned(ctx, userID, deviceID); err != nil {
		return err
	}
	if err := s.commands.DeleteByDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("purge device commands: %w", err)
	}
	if err := s.claims.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("drop claim code: %w", err)
	}
	if err := s.repo.Delete(ctx, deviceID); err != nil {
		return err
	}
	s.logger.Info("device removed", "device_id", deviceID, "user_id", userID)
	return nil
}

// owned fetches the device and hides it behind ErrNotFound when it belongs
// to someone else, so callers cannot probe for foreign device ids.
func (s *service) owned(ctx context.Context, userID, deviceID string) (*domain.Device, error) {
	d, err := s.repo.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, fmt.Errorf("device %q: %w", deviceID, domain.ErrNotFound)
	}
	return d, nil
}

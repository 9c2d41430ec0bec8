package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taptone-api/internal/domain"
	"github.com/taptone-api/internal/pkg/id"
)

type Service interface {
	Enqueue(ctx context.Context, deviceID, cmdType string, payload map[string]interface{}) (*domain.Command, error)
	Poll(ctx context.Context, deviceID string) ([]domain.Command, error)
	Ack(ctx context.Context, commandID string) error
}

type commandStore interface {
	Put(ctx context.Context, c *domain.Command) error
	ListPending(ctx context.Context, deviceID string) ([]domain.Command, error)
	Get(ctx context.Context, commandID string) (*domain.Command, error)
	MarkAcked(ctx context.Context, deviceID, commandID string) error
}

type deviceStore interface {
	Get(ctx context.Context, deviceID string) (*domain.Device, error)
	NextSeq(ctx context.Context, deviceID string) (int64, error)
}

type service struct {
	repo    commandStore
	devices deviceStore
	logger  *slog.Logger
}

type ServiceDeps struct {
	CommandRepo commandStore
	DeviceRepo  deviceStore
	Logger      *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:    deps.CommandRepo,
		devices: deps.DeviceRepo,
		logger:  logger,
	}
}

// Enqueue appends one command to the device queue. The ULID command id is
// the sort key, so insertion order and poll order are the same thing. Seq
// comes from an atomic per-device counter; kiosks use it to drop the second
// copy of a redelivered toggle command.
func (s *service) Enqueue(ctx context.Context, deviceID, cmdType string, payload map[string]interface{}) (*domain.Command, error) {
	if !domain.ValidCommandType(cmdType) {
		return nil, fmt.Errorf("unknown command type %q: %w", cmdType, domain.ErrBadRequest)
	}
	seq, err := s.devices.NextSeq(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	c := &domain.Command{
		DeviceID:  deviceID,
		CommandID: id.New(),
		Type:      cmdType,
		Payload:   payload,
		Status:    domain.CommandStatusPending,
		Seq:       seq,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Poll returns every pending command for the device, oldest first. Rows are
// left in place: delivery only counts once the kiosk acks, so a poll that
// dies on the wire costs nothing.
func (s *service) Poll(ctx context.Context, deviceID string) ([]domain.Command, error) {
	if _, err := s.devices.Get(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx, deviceID)
}

// Ack marks a command delivered. Acking twice, or acking a command whose
// row is already gone, succeeds quietly: kiosks retry acks after network
// blips and must never get stuck on one.
func (s *service) Ack(ctx context.Context, commandID string) error {
	c, err := s.repo.Get(ctx, commandID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if c.Status == domain.CommandStatusAcked {
		return nil
	}
	return s.repo.MarkAcked(ctx, c.DeviceID, commandID)
}

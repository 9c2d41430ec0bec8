package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taptone-api/internal/domain"
)

// Result is what every event handler returns: how the event was resolved
// and how many device queues received a command.
type Result struct {
	Status         string `json:"status"` // "success" | "ignored"
	CommandsQueued int    `json:"commands_queued"`
}

const (
	StatusSuccess = "success"
	StatusIgnored = "ignored"
)

// Button controls accepted from remotes.
const (
	ControlPlayPause = "play_pause"
	ControlNext      = "next"
	ControlPrev      = "prev"
)

type Service interface {
	NFCTap(ctx context.Context, userID, tagUID string) (*Result, error)
	Button(ctx context.Context, userID, control string) (*Result, error)
	Encoder(ctx context.Context, userID string, delta int) (*Result, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, deviceID, cmdType string, payload map[string]interface{}) (*domain.Command, error)
}

type tagStore interface {
	Get(ctx context.Context, tagUID string) (*domain.NFCTag, error)
}

type deviceStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Device, error)
}

type service struct {
	commands enqueuer
	tags     tagStore
	devices  deviceStore
	logger   *slog.Logger
}

type ServiceDeps struct {
	Commands   enqueuer
	TagRepo    tagStore
	DeviceRepo deviceStore
	Logger     *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		commands: deps.Commands,
		tags:     deps.TagRepo,
		devices:  deps.DeviceRepo,
		logger:   logger,
	}
}

// NFCTap resolves the tag against the caller's account and fans a
// LOAD_PLAYLIST out to their devices. A tap on a tag that is unknown, owned
// by someone else, or not yet linked to a playlist is reported as ignored,
// never as an error: remotes scan whatever is put in front of them.
func (s *service) NFCTap(ctx context.Context, userID, tagUID string) (*Result, error) {
	t, err := s.tags.Get(ctx, tagUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("nfc tap on unknown tag", "tag_uid", tagUID, "user_id", userID)
			return &Result{Status: StatusIgnored}, nil
		}
		return nil, err
	}
	if t.UserID != userID || t.PlaylistID == "" {
		return &Result{Status: StatusIgnored}, nil
	}
	return s.fanOut(ctx, userID, domain.CommandLoadPlaylist, map[string]interface{}{
		"playlist_id": t.PlaylistID,
	})
}

// Button maps a remote control press to its playback command.
func (s *service) Button(ctx context.Context, userID, control string) (*Result, error) {
	var cmdType string
	switch control {
	case ControlPlayPause:
		cmdType = domain.CommandPlayPause
	case ControlNext:
		cmdType = domain.CommandNext
	case ControlPrev:
		cmdType = domain.CommandPrev
	default:
		return nil, fmt.Errorf("unknown control %q: %w", control, domain.ErrBadRequest)
	}
	return s.fanOut(ctx, userID, cmdType, nil)
}

// Encoder turns a rotation into a relative volume change. Delta carries
// sign and magnitude as sent by the remote; the kiosk clamps.
func (s *service) Encoder(ctx context.Context, userID string, delta int) (*Result, error) {
	return s.fanOut(ctx, userID, domain.CommandVolumeDelta, map[string]interface{}{
		"delta": delta,
	})
}

// fanOut enqueues one command per owned device. Each write is independent:
// a failure on one device is logged and skipped so the rest of the fleet
// still gets the command.
func (s *service) fanOut(ctx context.Context, userID, cmdType string, payload map[string]interface{}) (*Result, error) {
	devices, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &Result{Status: StatusSuccess}
	for _, d := range devices {
		if _, err := s.commands.Enqueue(ctx, d.DeviceID, cmdType, payload); err != nil {
			s.logger.Warn("command fan-out skipped device",
				"device_id", d.DeviceID, "command_type", cmdType, "error", err)
			continue
		}
		res.CommandsQueued++
	}
	return res, nil
}

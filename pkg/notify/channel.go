// Package notify delivers reminders to the user, either as a push
// notification or, when push is unavailable, as a blocking modal dialog.
package notify

import (
	"context"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pusher is a push-style notification backend
type Pusher interface {
	// RequestAuthorization asks for permission; safe to call repeatedly.
	RequestAuthorization(ctx context.Context) error
	// Push shows payload under the given unique identifier.
	Push(ctx context.Context, id string, payload models.Payload) error
	// PurgeDelivered removes every notification already shown.
	PurgeDelivered(ctx context.Context) error
}

// Modal shows a blocking dialog on the UI thread and returns once the user
// acknowledged it.
type Modal interface {
	Alert(ctx context.Context, title, body string) error
}

// Sounder plays the reminder sound
type Sounder interface {
	Play()
}

// Kind names the channel a reminder went out on
type Kind string

const (
	KindPush  Kind = "push"
	KindModal Kind = "modal"
)

// Receipt is the outcome of a delivery
type Receipt struct {
	ID      string // push identifier, empty for the modal
	Channel Kind
	Err     error
}

// Channel picks the push backend or the modal fallback per delivery
type Channel struct {
	pusher     Pusher
	modal      Modal
	capability Capability
	sounder    Sounder
	logger     *zap.SugaredLogger
}

// NewChannel creates a Channel. sounder may be nil.
func NewChannel(pusher Pusher, modal Modal, capability Capability, sounder Sounder, logger *zap.SugaredLogger) *Channel {
	return &Channel{
		pusher:     pusher,
		modal:      modal,
		capability: capability,
		sounder:    sounder,
		logger:     logger,
	}
}

// RequestAuthorization asks the push backend for permission, logging failures
func (c *Channel) RequestAuthorization(ctx context.Context) {
	if err := c.pusher.RequestAuthorization(ctx); err != nil {
		c.logger.Warnw("notification authorization request failed", "err", err)
	}
}

// Deliver shows payload to the user. Errors are logged and reported in the
// receipt, never returned.
func (c *Channel) Deliver(ctx context.Context, payload models.Payload) Receipt {
	c.RequestAuthorization(ctx)

	if c.capability.ChannelAvailable(ctx) {
		id := uuid.NewString()
		err := c.pusher.Push(ctx, id, payload)
		if err != nil {
			c.logger.Errorw("notification request could not be added", "id", id, "event_id", payload.EventID, "err", err)
		} else {
			c.logger.Infow("notification delivered", "id", id, "event_id", payload.EventID)
		}
		return Receipt{ID: id, Channel: KindPush, Err: err}
	}

	if payload.Sound && c.sounder != nil {
		c.sounder.Play()
	}
	err := c.modal.Alert(ctx, payload.Title, payload.Body)
	if err != nil {
		c.logger.Errorw("alert dialog failed", "event_id", payload.EventID, "err", err)
	} else {
		c.logger.Infow("alert dialog acknowledged", "event_id", payload.EventID)
	}
	return Receipt{Channel: KindModal, Err: err}
}

// PurgeDelivered clears delivered notifications, logging failures
func (c *Channel) PurgeDelivered(ctx context.Context) {
	if err := c.pusher.PurgeDelivered(ctx); err != nil {
		c.logger.Warnw("failed removing delivered notifications", "err", err)
	}
}

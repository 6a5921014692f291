package reminder

import (
	"context"
	"net/url"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoMeetingLink is returned when joining an event without a link.
var ErrNoMeetingLink = errors.New("event has no meeting link")

// EventLookup finds an event by ID, nil when unknown
type EventLookup interface {
	GetEvent(eventID string) *models.Event
}

// ConfigSource returns the current reminder preferences
type ConfigSource interface {
	Load() *models.Config
}

// Opener opens the meeting of an event
type Opener interface {
	OpenMeeting(event *models.Event) error
}

// URLOpener opens meeting links with a URL handler such as fyne.App.OpenURL
type URLOpener func(u *url.URL) error

// OpenMeeting parses the meeting link of event and hands it to o
func (o URLOpener) OpenMeeting(event *models.Event) error {
	if event.MeetingLink == "" {
		return errors.Wrapf(ErrNoMeetingLink, "event %s", event.ID)
	}
	u, err := url.Parse(event.MeetingLink)
	if err != nil {
		return errors.Wrapf(err, "invalid meeting link of event %s", event.ID)
	}
	return o(u)
}

// ActionHandler routes the buttons of delivered reminders
type ActionHandler struct {
	scheduler *Scheduler
	events    EventLookup
	config    ConfigSource
	opener    Opener
	clk       clock.Clock
	logger    *zap.SugaredLogger
}

// NewActionHandler creates an ActionHandler
func NewActionHandler(scheduler *Scheduler, events EventLookup, config ConfigSource, opener Opener, clk clock.Clock, logger *zap.SugaredLogger) *ActionHandler {
	return &ActionHandler{
		scheduler: scheduler,
		events:    events,
		config:    config,
		opener:    opener,
		clk:       clk,
		logger:    logger,
	}
}

// Handle runs the action actionID for the event eventID. Unknown events and
// actions are logged and ignored.
func (h *ActionHandler) Handle(ctx context.Context, eventID, actionID string) {
	event := h.events.GetEvent(eventID)
	if event == nil {
		h.logger.Warnw("action for unknown event", "event_id", eventID, "action", actionID)
		return
	}

	switch models.ActionID(actionID) {
	case models.ActionJoin:
		if err := h.opener.OpenMeeting(event); err != nil {
			h.logger.Errorw("failed opening meeting", "event_id", eventID, "err", err)
		}
	case models.ActionDismiss:
		h.logger.Infow("reminder dismissed", "event_id", eventID)
	default:
		snooze, err := models.ParseSnoozeAction(actionID)
		if err != nil {
			h.logger.Warnw("ignoring action", "event_id", eventID, "err", err)
			return
		}
		h.scheduler.Snooze(ctx, event, snooze, h.config.Load(), h.clk.Now())
	}
}

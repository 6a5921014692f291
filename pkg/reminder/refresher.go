package reminder

import (
	"context"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/pending"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EventStore holds the events of the latest calendar refresh
type EventStore interface {
	EventLookup
	UpdateEvents(events []models.Event, now time.Time, keepSources ...string)
	Upcoming(now time.Time) []models.Event
}

// Refresher reacts to calendar refreshes: it drops reminders of events that
// disappeared and gives every slot its next reminder. The start and end slot
// are focused independently, so the next meeting's start reminder is set up
// while the current one is still running.
type Refresher struct {
	scheduler *Scheduler
	registry  pending.Registry
	events    EventStore
	config    ConfigSource
	clk       clock.Clock
	logger    *zap.SugaredLogger
}

// NewRefresher creates a Refresher
func NewRefresher(scheduler *Scheduler, registry pending.Registry, events EventStore, config ConfigSource, clk clock.Clock, logger *zap.SugaredLogger) *Refresher {
	return &Refresher{
		scheduler: scheduler,
		registry:  registry,
		events:    events,
		config:    config,
		clk:       clk,
		logger:    logger,
	}
}

// Refresh applies a new calendar snapshot. failedSources names the sources
// that could not be read: their events from the previous snapshot are kept,
// and so are their pending reminders.
func (r *Refresher) Refresh(ctx context.Context, events []models.Event, failedSources ...string) {
	now := r.clk.Now()
	r.events.UpdateEvents(events, now, failedSources...)

	r.dropStale(ctx)

	cfg := r.config.Load()
	if !cfg.AnyEnabled() {
		return
	}

	upcoming := r.events.Upcoming(now)
	for _, slot := range models.Slots {
		if cfg.Enabled(slot) {
			r.refreshSlot(ctx, slot, upcoming, cfg, now)
		}
	}
}

func (r *Refresher) refreshSlot(ctx context.Context, slot models.Slot, upcoming []models.Event, cfg *models.Config, now time.Time) {
	lead := cfg.Lead(slot)
	event := focus(upcoming, slot, lead, now)

	current, err := r.registry.Lookup(ctx, slot)
	occupied := err == nil
	if err != nil && !errors.Is(err, pending.ErrNotFound) {
		r.logger.Warnw("failed reading pending reminder", "slot", slot, "err", err)
	}

	if event == nil {
		// Anything still due later than minInterval belongs to an event that
		// has moved, since it would be the focus otherwise.
		if occupied && current.Payload.Category != models.CategorySnooze && current.FireAt.Sub(now) >= minInterval {
			r.logger.Infow("dropping reminder of moved event", "slot", slot, "event_id", current.Payload.EventID)
			r.scheduler.CancelPending(ctx, slot)
		}
		r.logger.Debugw("no event to remind about", "slot", slot, "events", len(upcoming))
		return
	}

	if occupied && current.Payload.Category == models.CategorySnooze && current.FireAt.Before(fireTime(event, slot, lead)) {
		r.logger.Debugw("keeping snoozed reminder", "slot", slot, "event_id", current.Payload.EventID, "fire_at", current.FireAt)
		return
	}

	r.scheduler.ScheduleSlot(ctx, event, cfg, slot, now)
}

// focus picks the event whose reminder in slot comes first among those still
// at least minInterval ahead of now.
func focus(upcoming []models.Event, slot models.Slot, lead models.LeadTime, now time.Time) *models.Event {
	var best *models.Event
	var bestAt time.Time
	for i := range upcoming {
		event := &upcoming[i]
		if event.Validate() != nil {
			continue
		}
		at := fireTime(event, slot, lead)
		if at.Sub(now) < minInterval {
			continue
		}
		if best == nil || at.Before(bestAt) {
			best, bestAt = event, at
		}
	}
	return best
}

// dropStale cancels slots whose event is no longer on the calendar
func (r *Refresher) dropStale(ctx context.Context) {
	for _, slot := range models.Slots {
		rem, err := r.registry.Lookup(ctx, slot)
		if errors.Is(err, pending.ErrNotFound) {
			continue
		}
		if err != nil {
			r.logger.Warnw("failed reading pending reminder", "slot", slot, "err", err)
			continue
		}

		if r.events.GetEvent(rem.Payload.EventID) == nil {
			r.logger.Infow("dropping reminder of removed event", "slot", slot, "event_id", rem.Payload.EventID)
			r.scheduler.CancelPending(ctx, slot)
		}
	}
}

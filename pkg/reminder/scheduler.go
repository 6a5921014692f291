// Package reminder computes when meeting reminders fire and keeps the two
// reminder slots consistent across calendar refreshes and snoozes.
package reminder

import (
	"context"
	"time"

	"github.com/borgmon/meetingbell/pkg/localize"
	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/pending"
	"go.uber.org/zap"
)

// minInterval is the shortest lead a slot is still scheduled with.
const minInterval = 500 * time.Millisecond

// Channel is the part of the delivery channel the scheduler talks to
type Channel interface {
	RequestAuthorization(ctx context.Context)
	PurgeDelivered(ctx context.Context)
}

// Scheduler owns the start and end reminder slots
type Scheduler struct {
	registry  pending.Registry
	channel   Channel
	localizer localize.Localizer
	logger    *zap.SugaredLogger
}

// NewScheduler creates a Scheduler
func NewScheduler(registry pending.Registry, channel Channel, localizer localize.Localizer, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		registry:  registry,
		channel:   channel,
		localizer: localizer,
		logger:    logger,
	}
}

// ScheduleReminders computes the start and end reminders of event relative
// to now and replaces whatever occupies their slots. Calling it again with
// the same arguments leaves the same pending state.
func (s *Scheduler) ScheduleReminders(ctx context.Context, event *models.Event, cfg *models.Config, now time.Time) {
	if !cfg.AnyEnabled() {
		return
	}
	if err := event.Validate(); err != nil {
		s.logger.Warnw("not scheduling reminders", "event_id", event.ID, "err", err)
		return
	}

	s.channel.RequestAuthorization(ctx)

	for _, slot := range models.Slots {
		if !cfg.Enabled(slot) {
			continue
		}
		s.scheduleSlot(ctx, event, cfg, slot, now)
	}
}

// ScheduleSlot is ScheduleReminders restricted to a single slot. The other
// slot is left untouched.
func (s *Scheduler) ScheduleSlot(ctx context.Context, event *models.Event, cfg *models.Config, slot models.Slot, now time.Time) {
	if !cfg.Enabled(slot) {
		return
	}
	if err := event.Validate(); err != nil {
		s.logger.Warnw("not scheduling reminder", "slot", slot, "event_id", event.ID, "err", err)
		return
	}

	s.channel.RequestAuthorization(ctx)
	s.scheduleSlot(ctx, event, cfg, slot, now)
}

func (s *Scheduler) scheduleSlot(ctx context.Context, event *models.Event, cfg *models.Config, slot models.Slot, now time.Time) {
	lead := cfg.Lead(slot)
	interval := target(event, slot).Sub(now).Seconds() - lead.Seconds()
	if interval < minInterval.Seconds() {
		s.logger.Debugw("too late for reminder", "slot", slot, "event_id", event.ID, "interval_s", interval)
		return
	}

	s.CancelPending(ctx, slot)

	key := bodyKey(slot, lead)
	payload := models.Payload{
		EventID:  event.ID,
		Title:    s.title(event, cfg),
		Body:     s.localizer.Localize(key, nil),
		BodyKey:  key,
		Category: category(slot),
		Thread:   models.ThreadID,
		Sound:    cfg.Sound,
	}

	s.schedule(ctx, slot, fireTime(event, slot, lead), payload)
}

// target is the instant a slot's reminder is anchored to
func target(event *models.Event, slot models.Slot) time.Time {
	if slot == models.SlotEnd {
		return event.EndTime
	}
	return event.StartTime
}

func fireTime(event *models.Event, slot models.Slot, lead models.LeadTime) time.Time {
	return target(event, slot).Add(-time.Duration(lead) * time.Second)
}

// CancelPending removes the pending reminder of slot only
func (s *Scheduler) CancelPending(ctx context.Context, slot models.Slot) {
	if err := s.registry.Cancel(ctx, slot); err != nil {
		s.logger.Errorw("failed cancelling pending reminder", "slot", slot, "err", err)
	}
}

// PurgeDelivered removes reminders already shown to the user
func (s *Scheduler) PurgeDelivered(ctx context.Context) {
	s.channel.PurgeDelivered(ctx)
}

func (s *Scheduler) schedule(ctx context.Context, slot models.Slot, fireAt time.Time, payload models.Payload) {
	if err := s.registry.Schedule(ctx, slot, fireAt, payload); err != nil {
		s.logger.Errorw("reminder request could not be added", "slot", slot, "event_id", payload.EventID, "err", err)
		return
	}
	s.logger.Infow("reminder scheduled", "slot", slot, "event_id", payload.EventID, "fire_at", fireAt, "body_key", payload.BodyKey)
}

func (s *Scheduler) title(event *models.Event, cfg *models.Config) string {
	if cfg.HideTitle {
		return s.localizer.Localize(hiddenTitleKey, nil)
	}
	return event.Title
}

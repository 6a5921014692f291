package reminder

import (
	"context"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
)

// Snooze replaces the start reminder of event with one fired at the time the
// snooze action asks for.
func (s *Scheduler) Snooze(ctx context.Context, event *models.Event, action models.SnoozeAction, cfg *models.Config, now time.Time) {
	s.channel.RequestAuthorization(ctx)
	s.CancelPending(ctx, models.SlotStart)

	payload := models.Payload{
		EventID:  event.ID,
		Title:    s.title(event, cfg),
		Body:     s.localizer.Localize(startedBodyKey, nil),
		BodyKey:  startedBodyKey,
		Category: models.CategorySnooze,
		Thread:   models.ThreadID,
		Sound:    cfg.Sound,
	}

	s.schedule(ctx, models.SlotStart, action.FireAt(event, now), payload)
}

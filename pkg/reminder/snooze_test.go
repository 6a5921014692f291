package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnoozeUntilStartFiresAtEventStart(t *testing.T) {
	for _, startIn := range []time.Duration{90 * time.Second, 7 * time.Minute, -2 * time.Minute} {
		s, reg, _ := newTestScheduler(t)
		event := meeting(startIn, 30*time.Minute)

		s.Snooze(context.Background(), event, models.SnoozeUntilStart, &models.Config{}, now)

		rem, err := reg.Lookup(context.Background(), models.SlotStart)
		require.NoError(t, err)
		assert.True(t, rem.FireAt.Equal(event.StartTime), "start in %s fired at %s", startIn, rem.FireAt)
	}
}

func TestSnoozeFiveMinutesIgnoresEventTiming(t *testing.T) {
	for _, startIn := range []time.Duration{-10 * time.Minute, time.Minute, time.Hour} {
		s, reg, _ := newTestScheduler(t)

		s.Snooze(context.Background(), meeting(startIn, 30*time.Minute), models.SnoozeFiveMinutes, &models.Config{}, now)

		rem, err := reg.Lookup(context.Background(), models.SlotStart)
		require.NoError(t, err)
		assert.Equal(t, 300*time.Second, rem.FireAt.Sub(now))
	}
}

func TestSnoozeReplacesStartSlotOnly(t *testing.T) {
	s, reg, ch := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, EndReminder: true, HideTitle: true}
	event := meeting(10*time.Minute, 30*time.Minute)

	s.ScheduleReminders(context.Background(), event, cfg, now)
	end, err := reg.Lookup(context.Background(), models.SlotEnd)
	require.NoError(t, err)

	s.Snooze(context.Background(), event, models.SnoozeFiveMinutes, cfg, now)

	pending := reg.pending()
	require.Len(t, pending, 2)

	start, err := reg.Lookup(context.Background(), models.SlotStart)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySnooze, start.Payload.Category)
	assert.Equal(t, "notifications_event_started_body", start.Payload.BodyKey)
	assert.Equal(t, "general_meeting", start.Payload.Title)

	afterEnd, err := reg.Lookup(context.Background(), models.SlotEnd)
	require.NoError(t, err)
	assert.Equal(t, end, afterEnd)
	assert.Equal(t, 2, ch.authRequests)

	assert.Equal(t, []string{"cancel:NEXT_EVENT_STARTS", "schedule:NEXT_EVENT_STARTS"}, reg.calls[len(reg.calls)-2:])
}

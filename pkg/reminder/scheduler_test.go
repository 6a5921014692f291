package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRemindersBothDisabledTouchesNothing(t *testing.T) {
	s, reg, ch := newTestScheduler(t)
	cfg := &models.Config{StartLead: models.LeadFiveMinutes, EndLead: models.LeadOneMinute}

	s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, now)

	assert.Empty(t, reg.calls)
	assert.Equal(t, 0, ch.authRequests)
}

func TestScheduleRemindersFiveMinuteLead(t *testing.T) {
	s, reg, ch := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, StartLead: models.LeadFiveMinutes, Sound: true}

	s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, now)

	pending := reg.pending()
	require.Len(t, pending, 1)
	rem := pending[0]
	assert.Equal(t, models.SlotStart, rem.Slot)
	assert.True(t, rem.FireAt.Equal(now.Add(5*time.Minute)), "fires at %s", rem.FireAt)
	assert.Equal(t, "notifications_event_start_five_minutes_body", rem.Payload.BodyKey)
	assert.Equal(t, "Team standup", rem.Payload.Title)
	assert.Equal(t, models.CategoryEvent, rem.Payload.Category)
	assert.Equal(t, "standup", rem.Payload.EventID)
	assert.Equal(t, models.ThreadID, rem.Payload.Thread)
	assert.True(t, rem.Payload.Sound)
	assert.Equal(t, 1, ch.authRequests)
}

func TestScheduleRemindersTooLateIsSkipped(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, StartLead: models.LeadFiveMinutes}

	s.ScheduleReminders(context.Background(), meeting(30*time.Second, 30*time.Minute), cfg, now)

	assert.Empty(t, reg.pending())
	assert.NotContains(t, reg.calls, "schedule:NEXT_EVENT_STARTS")
}

func TestScheduleRemindersThreshold(t *testing.T) {
	cfg := &models.Config{StartReminder: true, StartLead: models.LeadAtEvent}

	tests := []struct {
		name    string
		startIn time.Duration
		want    bool
	}{
		{"already started", -time.Minute, false},
		{"now", 0, false},
		{"just under threshold", 499 * time.Millisecond, false},
		{"at threshold", 500 * time.Millisecond, true},
		{"well ahead", time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, reg, _ := newTestScheduler(t)
			s.ScheduleReminders(context.Background(), meeting(tt.startIn, time.Hour), cfg, now)
			_, err := reg.Lookup(context.Background(), models.SlotStart)
			assert.Equal(t, tt.want, err == nil)
		})
	}
}

func TestScheduleRemindersSlotsAreIndependent(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{
		StartReminder: true,
		StartLead:     models.LeadFiveMinutes,
		EndReminder:   true,
		EndLead:       models.LeadThreeMinutes,
	}

	// Start is too close to warn about, the end reminder still goes out.
	s.ScheduleReminders(context.Background(), meeting(time.Minute, 20*time.Minute), cfg, now)

	pending := reg.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.SlotEnd, pending[0].Slot)
	assert.True(t, pending[0].FireAt.Equal(now.Add(18*time.Minute)))
	assert.Equal(t, "notifications_event_ends_three_minutes_body", pending[0].Payload.BodyKey)
	assert.Equal(t, models.CategoryNone, pending[0].Payload.Category)
}

func TestScheduleRemindersCancelsBeforeSchedulingEachSlot(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, EndReminder: true}

	s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, now)

	assert.Equal(t, []string{
		"cancel:NEXT_EVENT_STARTS", "schedule:NEXT_EVENT_STARTS",
		"cancel:NEXT_EVENT_ENDS", "schedule:NEXT_EVENT_ENDS",
	}, reg.calls)
}

func TestScheduleRemindersIsIdempotent(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, StartLead: models.LeadOneMinute, EndReminder: true}
	event := meeting(10*time.Minute, 30*time.Minute)

	s.ScheduleReminders(context.Background(), event, cfg, now)
	once := reg.pending()

	for i := 0; i < 5; i++ {
		s.ScheduleReminders(context.Background(), event, cfg, now)
	}

	assert.Equal(t, once, reg.pending())
	assert.Len(t, reg.pending(), 2)
}

func TestScheduleRemindersRescheduledEventReplacesReminder(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true}

	s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, now)
	s.ScheduleReminders(context.Background(), meeting(40*time.Minute, 30*time.Minute), cfg, now)

	pending := reg.pending()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].FireAt.Equal(now.Add(40*time.Minute)))
}

func TestScheduleRemindersHidesTitle(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, HideTitle: true}

	s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, now)

	rem, err := reg.Lookup(context.Background(), models.SlotStart)
	require.NoError(t, err)
	assert.Equal(t, "general_meeting", rem.Payload.Title)
}

func TestScheduleRemindersInvalidEvent(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	event := meeting(10*time.Minute, 30*time.Minute)
	event.EndTime = event.StartTime.Add(-time.Minute)

	s.ScheduleReminders(context.Background(), event, &models.Config{StartReminder: true}, now)
	assert.Empty(t, reg.calls)
}

func TestScheduleRemindersRegistryFailureIsSwallowed(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	reg.err = errors.New("store unavailable")

	assert.NotPanics(t, func() {
		s.ScheduleReminders(context.Background(), meeting(10*time.Minute, 30*time.Minute), &models.Config{StartReminder: true}, now)
	})
	assert.Empty(t, reg.pending())
}

func TestCancelPendingLeavesSibling(t *testing.T) {
	s, reg, _ := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, EndReminder: true}
	event := meeting(10*time.Minute, 30*time.Minute)

	s.ScheduleReminders(context.Background(), event, cfg, now)
	s.CancelPending(context.Background(), models.SlotStart)

	pending := reg.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.SlotEnd, pending[0].Slot)

	s.ScheduleReminders(context.Background(), event, cfg, now)
	s.CancelPending(context.Background(), models.SlotEnd)

	pending = reg.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.SlotStart, pending[0].Slot)
}

func TestPurgeDeliveredGoesToChannel(t *testing.T) {
	s, reg, ch := newTestScheduler(t)
	s.PurgeDelivered(context.Background())
	assert.Equal(t, 1, ch.purges)
	assert.Empty(t, reg.calls)
}

func TestBodyKeyCoversEveryLeadTime(t *testing.T) {
	for _, lead := range models.LeadTimes {
		assert.Contains(t, startBodyKeys, lead)
		assert.Contains(t, endBodyKeys, lead)
	}
	assert.Equal(t, "notifications_event_ends_soon_body", bodyKey(models.SlotEnd, models.LeadTime(42)))
}

func TestScheduleSlotLeavesOtherSlotAlone(t *testing.T) {
	s, reg, ch := newTestScheduler(t)
	cfg := &models.Config{StartReminder: true, EndReminder: true, EndLead: models.LeadOneMinute}

	s.ScheduleSlot(context.Background(), meeting(10*time.Minute, 30*time.Minute), cfg, models.SlotEnd, now)

	assert.Equal(t, []string{"cancel:NEXT_EVENT_ENDS", "schedule:NEXT_EVENT_ENDS"}, reg.calls)
	rem, err := reg.Lookup(context.Background(), models.SlotEnd)
	require.NoError(t, err)
	assert.True(t, rem.FireAt.Equal(now.Add(39*time.Minute)))
	assert.Equal(t, models.CategoryNone, rem.Payload.Category)
	assert.Equal(t, 1, ch.authRequests)
}

func TestScheduleSlotDisabledTouchesNothing(t *testing.T) {
	s, reg, ch := newTestScheduler(t)

	s.ScheduleSlot(context.Background(), meeting(10*time.Minute, 30*time.Minute), &models.Config{StartReminder: true}, models.SlotEnd, now)

	assert.Empty(t, reg.calls)
	assert.Equal(t, 0, ch.authRequests)
}

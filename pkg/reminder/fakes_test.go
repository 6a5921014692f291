package reminder

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/pending"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// fakeRegistry is an in-memory pending.Registry recording every call
type fakeRegistry struct {
	slots map[models.Slot]models.ScheduledReminder
	calls []string
	err   error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{slots: make(map[models.Slot]models.ScheduledReminder)}
}

func (r *fakeRegistry) Schedule(_ context.Context, slot models.Slot, fireAt time.Time, payload models.Payload) error {
	r.calls = append(r.calls, "schedule:"+string(slot))
	if r.err != nil {
		return r.err
	}
	r.slots[slot] = models.ScheduledReminder{Slot: slot, FireAt: fireAt, Payload: payload}
	return nil
}

func (r *fakeRegistry) Cancel(_ context.Context, slot models.Slot) error {
	r.calls = append(r.calls, "cancel:"+string(slot))
	delete(r.slots, slot)
	return nil
}

func (r *fakeRegistry) Lookup(_ context.Context, slot models.Slot) (models.ScheduledReminder, error) {
	rem, ok := r.slots[slot]
	if !ok {
		return models.ScheduledReminder{}, pending.ErrNotFound
	}
	return rem, nil
}

func (r *fakeRegistry) pending() []models.ScheduledReminder {
	result := []models.ScheduledReminder{}
	for _, rem := range r.slots {
		result = append(result, rem)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot < result[j].Slot })
	return result
}

type fakeChannel struct {
	authRequests int
	purges       int
}

func (c *fakeChannel) RequestAuthorization(context.Context) { c.authRequests++ }
func (c *fakeChannel) PurgeDelivered(context.Context) { c.purges++ }

// keyLocalizer resolves every key to itself
type keyLocalizer struct{}

func (keyLocalizer) Localize(key string, _ map[string]any) string {
	return key
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	return zaptest.NewLogger(t).Sugar()
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeRegistry, *fakeChannel) {
	reg := newFakeRegistry()
	ch := &fakeChannel{}
	return NewScheduler(reg, ch, keyLocalizer{}, testLogger(t)), reg, ch
}

var now = time.Date(2026, 10, 14, 9, 50, 0, 0, time.UTC)

func meeting(startIn, length time.Duration) *models.Event {
	return &models.Event{
		ID:          "standup",
		Title:       "Team standup",
		StartTime:   now.Add(startIn),
		EndTime:     now.Add(startIn + length),
		MeetingLink: "https://meet.google.com/abc-defg-hij",
	}
}

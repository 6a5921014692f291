package calendar

import (
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/teambition/rrule-go"
)

// overrides holds, per UID, the original starts of the instances replaced by
// a RECURRENCE-ID component
type overrides map[string]map[int64]bool

func (o overrides) add(uid string, recurrenceID time.Time) {
	if o[uid] == nil {
		o[uid] = make(map[int64]bool)
	}
	o[uid][recurrenceID.Unix()] = true
}

func (o overrides) replaced(uid string, start time.Time) bool {
	return o[uid][start.Unix()]
}

// instanceID derives the ID of one instance of a recurring event. An override
// gets the ID of the instance it replaces.
func instanceID(uid string, originalStart time.Time) string {
	return uid + "-" + originalStart.UTC().Format(time.RFC3339)
}

// expandRecurringEvent returns the instances of set overlapping [from, until),
// leaving out those replaced by an override. Every instance keeps the
// duration of the base event and gets an ID derived from the base UID and its
// start.
func expandRecurringEvent(base models.Event, set *rrule.Set, from, until time.Time, replaced overrides) []models.Event {
	duration := base.EndTime.Sub(base.StartTime)
	events := []models.Event{}

	for _, start := range set.Between(from.Add(-duration), until, true) {
		if replaced.replaced(base.ID, start) {
			continue
		}
		instance := base
		instance.StartTime = start.In(time.Local)
		instance.EndTime = instance.StartTime.Add(duration)
		instance.ID = instanceID(base.ID, start)
		events = append(events, instance)
	}
	return events
}

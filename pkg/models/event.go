package models

import (
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidEvent is returned for events whose start is after their end.
var ErrInvalidEvent = errors.New("event starts after it ends")

// Event represents a calendar event
type Event struct {
	ID          string    // Stable identifier across refreshes (iCal UID or derived)
	Title       string    // Event title/summary
	Description string    // Event description
	StartTime   time.Time // Event start time
	EndTime     time.Time // Event end time
	MeetingLink string    // Meeting link (Zoom, Google Meet, etc.)
	Status      string    // Event status (CONFIRMED, CANCELLED, NEEDS-ACTION)
	SourceID    string    // ID of the calendar source this event came from
}

// Validate checks the start <= end invariant.
func (e *Event) Validate() error {
	if e.StartTime.After(e.EndTime) {
		return errors.Wrapf(ErrInvalidEvent, "event %s", e.ID)
	}
	return nil
}

// Started reports whether the event has begun at now.
func (e *Event) Started(now time.Time) bool {
	return !e.StartTime.After(now)
}

// Ended reports whether the event is over at now.
func (e *Event) Ended(now time.Time) bool {
	return !e.EndTime.After(now)
}

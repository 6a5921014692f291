// Package pending keeps the scheduled-but-not-yet-fired reminders, keyed by
// slot. Each slot holds at most one reminder; scheduling into an occupied
// slot supersedes the occupant.
package pending

import (
	"context"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownSlot is returned for identifiers other than the two slots.
	ErrUnknownSlot = errors.New("unknown reminder slot")
	// ErrNotFound is returned by Lookup when the slot is empty.
	ErrNotFound = errors.New("no pending reminder in slot")
)

// Registry is the pending-timer store. There is deliberately no way to
// cancel every slot at once: removing one slot must never touch its sibling.
type Registry interface {
	// Schedule registers a one-shot reminder under slot, replacing any occupant.
	Schedule(ctx context.Context, slot models.Slot, fireAt time.Time, payload models.Payload) error
	// Cancel removes the pending reminder of slot. An empty slot is not an error.
	Cancel(ctx context.Context, slot models.Slot) error
	// Lookup returns the occupant of slot or ErrNotFound.
	Lookup(ctx context.Context, slot models.Slot) (models.ScheduledReminder, error)
}

// FireFunc is invoked when a reminder expires. It runs on an arbitrary
// goroutine.
type FireFunc func(ctx context.Context, reminder models.ScheduledReminder)

func checkSlot(slot models.Slot) error {
	if !slot.Valid() {
		return errors.Wrapf(ErrUnknownSlot, "slot %q", slot)
	}
	return nil
}

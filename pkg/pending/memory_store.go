package pending

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"
)

// MemoryStore keeps pending reminders as in-process one-shot timers
type MemoryStore struct {
	mu sync.Mutex

	clk    clock.Clock
	onFire FireFunc
	logger *zap.SugaredLogger

	// Map of slot to its single pending entry
	entries map[models.Slot]*entry
}

type entry struct {
	reminder models.ScheduledReminder
	timer    *time.Timer
}

// NewMemoryStore creates a MemoryStore that calls onFire when a timer expires
func NewMemoryStore(clk clock.Clock, onFire FireFunc, logger *zap.SugaredLogger) *MemoryStore {
	return &MemoryStore{
		clk:     clk,
		onFire:  onFire,
		logger:  logger,
		entries: make(map[models.Slot]*entry),
	}
}

// Schedule registers a timer for slot. A fire time in the past fires at once.
func (s *MemoryStore) Schedule(_ context.Context, slot models.Slot, fireAt time.Time, payload models.Payload) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[slot]; ok {
		old.timer.Stop()
		delete(s.entries, slot)
		s.logger.Debugw("superseded pending reminder", "slot", slot, "event_id", old.reminder.Payload.EventID)
	}

	delay := fireAt.Sub(s.clk.Now())
	if delay < 0 {
		delay = 0
	}

	e := &entry{
		reminder: models.ScheduledReminder{Slot: slot, FireAt: fireAt, Payload: payload},
	}
	e.timer = time.AfterFunc(delay, func() { s.fire(e) })
	s.entries[slot] = e

	s.logger.Debugw("scheduled reminder", "slot", slot, "fire_at", fireAt, "event_id", payload.EventID)
	return nil
}

// fire delivers e unless it was cancelled or superseded after the timer
// had already triggered.
func (s *MemoryStore) fire(e *entry) {
	s.mu.Lock()
	slot := e.reminder.Slot
	if s.entries[slot] != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, slot)
	s.mu.Unlock()

	s.logger.Infow("reminder fired", "slot", slot, "event_id", e.reminder.Payload.EventID)
	if s.onFire != nil {
		s.onFire(context.Background(), e.reminder)
	}
}

// Cancel stops the timer of slot
func (s *MemoryStore) Cancel(_ context.Context, slot models.Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[slot]
	if !ok {
		return nil
	}
	e.timer.Stop()
	delete(s.entries, slot)
	s.logger.Debugw("cancelled pending reminder", "slot", slot, "event_id", e.reminder.Payload.EventID)
	return nil
}

// Lookup returns the pending reminder of slot
func (s *MemoryStore) Lookup(_ context.Context, slot models.Slot) (models.ScheduledReminder, error) {
	if err := checkSlot(slot); err != nil {
		return models.ScheduledReminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[slot]
	if !ok {
		return models.ScheduledReminder{}, ErrNotFound
	}
	return e.reminder, nil
}

// snapshot returns every pending reminder sorted by fire time
func (s *MemoryStore) snapshot() []models.ScheduledReminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.ScheduledReminder, 0, len(s.entries))
	for _, e := range s.entries {
		result = append(result, e.reminder)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FireAt.Before(result[j].FireAt)
	})
	return result
}

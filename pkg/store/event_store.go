package store

import (
	"sort"
	"sync"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
)

// retention is how long finished events stay queryable after they end
const retention = 12 * time.Hour

// EventStore holds the events of the latest calendar refresh
type EventStore struct {
	mu sync.RWMutex

	// Map of event ID to Event
	events map[string]*models.Event
}

// NewEventStore creates a new EventStore instance
func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[string]*models.Event),
	}
}

// UpdateEvents replaces the stored events with a new calendar snapshot.
// Events that ended more than 12 hours before now are not kept. Stored events
// of keepSources survive the replacement for as long as the snapshot lacks
// them, so a source that failed to download keeps its previous events.
func (es *EventStore) UpdateEvents(newEvents []models.Event, now time.Time, keepSources ...string) {
	es.mu.Lock()
	defer es.mu.Unlock()

	cutoff := now.Add(-retention)
	events := make(map[string]*models.Event, len(newEvents))

	if len(keepSources) > 0 {
		keep := make(map[string]bool, len(keepSources))
		for _, id := range keepSources {
			keep[id] = true
		}
		for id, event := range es.events {
			if keep[event.SourceID] && !event.EndTime.Before(cutoff) {
				events[id] = event
			}
		}
	}

	for i := range newEvents {
		event := newEvents[i]
		if event.EndTime.Before(cutoff) {
			continue
		}
		events[event.ID] = &event
	}

	es.events = events
}

// GetEvent returns an event by ID
func (es *EventStore) GetEvent(eventID string) *models.Event {
	es.mu.RLock()
	defer es.mu.RUnlock()

	event, ok := es.events[eventID]
	if !ok {
		return nil
	}
	copied := *event
	return &copied
}

// Upcoming returns the events that have not ended at now, sorted by start time
func (es *EventStore) Upcoming(now time.Time) []models.Event {
	es.mu.RLock()
	defer es.mu.RUnlock()

	result := make([]models.Event, 0, len(es.events))
	for _, event := range es.events {
		if !event.Ended(now) {
			result = append(result, *event)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

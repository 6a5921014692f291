package models

import (
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownAction is returned for action identifiers outside the fixed set.
var ErrUnknownAction = errors.New("unknown notification action")

// Slot is one of the two singleton reminder roles. The string value is the
// identifier the pending store is keyed by.
type Slot string

const (
	SlotStart Slot = "NEXT_EVENT_STARTS"
	SlotEnd   Slot = "NEXT_EVENT_ENDS"
)

// Slots lists every slot. Nothing may schedule ordinary reminders under any
// other identifier.
var Slots = []Slot{SlotStart, SlotEnd}

// Valid reports whether s is one of the two slots.
func (s Slot) Valid() bool {
	return s == SlotStart || s == SlotEnd
}

func (s Slot) String() string {
	return string(s)
}

// ThreadID groups every reminder of the app together on the platform side.
const ThreadID = "meetingbell"

// Category selects which interactive actions a delivered reminder offers
type Category string

const (
	CategoryNone   Category = ""             // end reminders, no actions
	CategoryEvent  Category = "EVENT"        // start reminders
	CategorySnooze Category = "SNOOZE_EVENT" // reminders raised by a snooze
)

// ActionID identifies an interactive action on a delivered reminder
type ActionID string

const (
	ActionJoin    ActionID = "JOIN_ACTION"
	ActionDismiss ActionID = "DISMISS_ACTION"
)

// SnoozeAction is a snooze choice. Each carries a duration, except
// SnoozeUntilStart whose offset depends on the event.
type SnoozeAction string

const (
	SnoozeUntilStart     SnoozeAction = "SNOOZE_UNTIL_START_TIME"
	SnoozeFiveMinutes    SnoozeAction = "SNOOZE_FOR_5_MIN"
	SnoozeTenMinutes     SnoozeAction = "SNOOZE_FOR_10_MIN"
	SnoozeFifteenMinutes SnoozeAction = "SNOOZE_FOR_15_MIN"
	SnoozeThirtyMinutes  SnoozeAction = "SNOOZE_FOR_30_MIN"
)

var snoozeMinutes = map[SnoozeAction]int{
	SnoozeUntilStart:     0,
	SnoozeFiveMinutes:    5,
	SnoozeTenMinutes:     10,
	SnoozeFifteenMinutes: 15,
	SnoozeThirtyMinutes:  30,
}

// ParseSnoozeAction maps an action identifier to a snooze choice.
func ParseSnoozeAction(id string) (SnoozeAction, error) {
	a := SnoozeAction(id)
	if _, ok := snoozeMinutes[a]; !ok {
		return "", errors.Wrapf(ErrUnknownAction, "snooze %q", id)
	}
	return a, nil
}

// DurationInMinutes is the fixed snooze length; zero for SnoozeUntilStart.
func (a SnoozeAction) DurationInMinutes() int {
	return snoozeMinutes[a]
}

// DurationInSeconds is the fixed snooze length in seconds.
func (a SnoozeAction) DurationInSeconds() int {
	return a.DurationInMinutes() * 60
}

// FireAt computes when a snoozed reminder should fire.
func (a SnoozeAction) FireAt(event *Event, now time.Time) time.Time {
	if a == SnoozeUntilStart {
		return now.Add(event.StartTime.Sub(now))
	}
	return now.Add(time.Duration(a.DurationInSeconds()) * time.Second)
}

// Action is an interactive button surfaced by the platform
type Action struct {
	ID        string         // ActionJoin, ActionDismiss or a SnoozeAction value
	TitleKey  string         // localization key of the button title
	TitleData map[string]any // template data for TitleKey
}

var (
	joinAction    = Action{ID: string(ActionJoin), TitleKey: "notifications_meetingbar_join_event_action"}
	dismissAction = Action{ID: string(ActionDismiss), TitleKey: "notifications_meetingbar_dismiss_event_action"}
	untilStart    = Action{ID: string(SnoozeUntilStart), TitleKey: "notifications_snooze_until_start"}
	fiveMinutes   = Action{
		ID:        string(SnoozeFiveMinutes),
		TitleKey:  "notifications_snooze_for",
		TitleData: map[string]any{"Minutes": SnoozeFiveMinutes.DurationInMinutes()},
	}
)

// Categories maps each category to the actions it offers. A snoozed
// reminder does not offer snooze-until-start a second time.
var Categories = map[Category][]Action{
	CategoryEvent:  {joinAction, dismissAction, untilStart, fiveMinutes},
	CategorySnooze: {joinAction, dismissAction, fiveMinutes},
}

// Payload is the message carried by a scheduled reminder
type Payload struct {
	EventID  string   `json:"event_id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	BodyKey  string   `json:"body_key"`
	Category Category `json:"category,omitempty"`
	Thread   string   `json:"thread"`
	Sound    bool     `json:"sound"`
}

// ScheduledReminder is a pending, not yet fired reminder
type ScheduledReminder struct {
	Slot    Slot      `json:"slot"`
	FireAt  time.Time `json:"fire_at"`
	Payload Payload   `json:"payload"`
}

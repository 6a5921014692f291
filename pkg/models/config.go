package models

// LeadTime is how long before the target instant a reminder fires.
// The value is the offset in seconds.
type LeadTime int

const (
	LeadAtEvent      LeadTime = 0
	LeadOneMinute    LeadTime = 60
	LeadThreeMinutes LeadTime = 180
	LeadFiveMinutes  LeadTime = 300
)

// LeadTimes lists the supported lead times in ascending order.
var LeadTimes = []LeadTime{LeadAtEvent, LeadOneMinute, LeadThreeMinutes, LeadFiveMinutes}

// Seconds returns the offset as float seconds, the unit interval math is done in.
func (l LeadTime) Seconds() float64 {
	return float64(l)
}

// Valid reports whether l is one of the supported lead times.
func (l LeadTime) Valid() bool {
	for _, v := range LeadTimes {
		if v == l {
			return true
		}
	}
	return false
}

// ParseLeadTime maps a stored seconds value to a LeadTime, falling back to
// LeadAtEvent for anything unsupported.
func ParseLeadTime(seconds int) LeadTime {
	l := LeadTime(seconds)
	if !l.Valid() {
		return LeadAtEvent
	}
	return l
}

// Config holds the reminder preferences read on every invocation
type Config struct {
	StartReminder bool     `json:"start_reminder_enabled"` // remind before the event starts
	StartLead     LeadTime `json:"start_reminder_lead"`    // offset before start
	EndReminder   bool     `json:"end_reminder_enabled"`   // remind before the event ends
	EndLead       LeadTime `json:"end_reminder_lead"`      // offset before end
	HideTitle     bool     `json:"hide_event_title"`       // replace the title with a generic one
	Sound         bool     `json:"reminder_sound"`         // play the default sound
}

// DefaultConfig mirrors the out-of-the-box preferences.
func DefaultConfig() *Config {
	return &Config{
		StartReminder: true,
		StartLead:     LeadAtEvent,
		EndReminder:   false,
		EndLead:       LeadAtEvent,
		HideTitle:     false,
		Sound:         true,
	}
}

// AnyEnabled returns true if at least one reminder slot is switched on
func (c *Config) AnyEnabled() bool {
	return c.StartReminder || c.EndReminder
}

// Enabled reports the toggle for a slot.
func (c *Config) Enabled(slot Slot) bool {
	switch slot {
	case SlotStart:
		return c.StartReminder
	case SlotEnd:
		return c.EndReminder
	}
	return false
}

// Lead returns the configured lead time for a slot.
func (c *Config) Lead(slot Slot) LeadTime {
	if slot == SlotEnd {
		return c.EndLead
	}
	return c.StartLead
}

package reminder

import "github.com/borgmon/meetingbell/pkg/models"

const (
	hiddenTitleKey = "general_meeting"
	startedBodyKey = "notifications_event_started_body"
)

// Body templates per lead time. Every models.LeadTimes value has an entry.
var (
	startBodyKeys = map[models.LeadTime]string{
		models.LeadAtEvent:      "notifications_event_start_soon_body",
		models.LeadOneMinute:    "notifications_event_start_one_minute_body",
		models.LeadThreeMinutes: "notifications_event_start_three_minutes_body",
		models.LeadFiveMinutes:  "notifications_event_start_five_minutes_body",
	}

	endBodyKeys = map[models.LeadTime]string{
		models.LeadAtEvent:      "notifications_event_ends_soon_body",
		models.LeadOneMinute:    "notifications_event_ends_one_minute_body",
		models.LeadThreeMinutes: "notifications_event_ends_three_minutes_body",
		models.LeadFiveMinutes:  "notifications_event_ends_five_minutes_body",
	}
)

// bodyKey selects the body template of a slot. Unsupported lead times use
// the at-event wording.
func bodyKey(slot models.Slot, lead models.LeadTime) string {
	keys := startBodyKeys
	if slot == models.SlotEnd {
		keys = endBodyKeys
	}
	if key, ok := keys[lead]; ok {
		return key
	}
	return keys[models.LeadAtEvent]
}

// category returns the interactive category of a slot. End reminders get
// no buttons.
func category(slot models.Slot) models.Category {
	if slot == models.SlotStart {
		return models.CategoryEvent
	}
	return models.CategoryNone
}

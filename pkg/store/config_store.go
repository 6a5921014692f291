package store

import (
	"encoding/json"

	"fyne.io/fyne/v2"
	"github.com/borgmon/meetingbell/pkg/models"
)

// Preference keys
const (
	keyStartReminder = "start_reminder_enabled"
	keyStartLead     = "start_reminder_lead"
	keyEndReminder   = "end_reminder_enabled"
	keyEndLead       = "end_reminder_lead"
	keyHideTitle     = "hide_event_title"
	keySound         = "reminder_sound"
	keySources       = "ical_sources"
)

// ConfigStore handles configuration persistence using Fyne preferences
type ConfigStore struct {
	app fyne.App
}

// NewConfigStore creates a new ConfigStore instance
func NewConfigStore(app fyne.App) *ConfigStore {
	return &ConfigStore{app: app}
}

// Load loads the reminder preferences
func (cs *ConfigStore) Load() *models.Config {
	prefs := cs.app.Preferences()
	defaults := models.DefaultConfig()

	return &models.Config{
		StartReminder: prefs.BoolWithFallback(keyStartReminder, defaults.StartReminder),
		StartLead:     models.ParseLeadTime(prefs.IntWithFallback(keyStartLead, int(defaults.StartLead))),
		EndReminder:   prefs.BoolWithFallback(keyEndReminder, defaults.EndReminder),
		EndLead:       models.ParseLeadTime(prefs.IntWithFallback(keyEndLead, int(defaults.EndLead))),
		HideTitle:     prefs.BoolWithFallback(keyHideTitle, defaults.HideTitle),
		Sound:         prefs.BoolWithFallback(keySound, defaults.Sound),
	}
}

// Save saves the reminder preferences
func (cs *ConfigStore) Save(config *models.Config) {
	prefs := cs.app.Preferences()

	prefs.SetBool(keyStartReminder, config.StartReminder)
	prefs.SetInt(keyStartLead, int(config.StartLead))
	prefs.SetBool(keyEndReminder, config.EndReminder)
	prefs.SetInt(keyEndLead, int(config.EndLead))
	prefs.SetBool(keyHideTitle, config.HideTitle)
	prefs.SetBool(keySound, config.Sound)
}

// Sources loads the calendar sources added at runtime
func (cs *ConfigStore) Sources() []models.CalendarSource {
	sources := []models.CalendarSource{}

	raw := cs.app.Preferences().String(keySources)
	if raw == "" {
		return sources
	}
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return []models.CalendarSource{}
	}
	return sources
}

// SaveSources stores the calendar sources as a JSON string
func (cs *ConfigStore) SaveSources(sources []models.CalendarSource) {
	if raw, err := json.Marshal(sources); err == nil {
		cs.app.Preferences().SetString(keySources, string(raw))
	}
}

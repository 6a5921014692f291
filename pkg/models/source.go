package models

// CalendarSource is an iCal feed the events are read from
type CalendarSource struct {
	ID   string `json:"id" mapstructure:"id"`     // Unique identifier
	Name string `json:"name" mapstructure:"name"` // Display name
	URL  string `json:"url" mapstructure:"url"`   // iCal URL
}

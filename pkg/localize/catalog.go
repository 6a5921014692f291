// Package localize resolves message keys to display strings with go-i18n.
package localize

import (
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Localizer maps a message key and its template data to a display string
type Localizer interface {
	Localize(key string, data map[string]any) string
}

// english holds the built-in messages
var english = []*i18n.Message{
	{ID: "general_meeting", Other: "Meeting"},
	{ID: "general_ok", Other: "OK"},

	{ID: "notifications_event_start_soon_body", Other: "The event starts soon"},
	{ID: "notifications_event_start_one_minute_body", Other: "The event starts in 1 minute"},
	{ID: "notifications_event_start_three_minutes_body", Other: "The event starts in 3 minutes"},
	{ID: "notifications_event_start_five_minutes_body", Other: "The event starts in 5 minutes"},

	{ID: "notifications_event_ends_soon_body", Other: "The event ends soon"},
	{ID: "notifications_event_ends_one_minute_body", Other: "The event ends in 1 minute"},
	{ID: "notifications_event_ends_three_minutes_body", Other: "The event ends in 3 minutes"},
	{ID: "notifications_event_ends_five_minutes_body", Other: "The event ends in 5 minutes"},

	{ID: "notifications_event_started_body", Other: "The event has already started"},

	{ID: "notifications_meetingbar_join_event_action", Other: "Join"},
	{ID: "notifications_meetingbar_dismiss_event_action", Other: "Dismiss"},
	{ID: "notifications_snooze_until_start", Other: "Snooze until start"},
	{ID: "notifications_snooze_for", Other: "Snooze for {{.Minutes}} min"},
}

// Catalog is a go-i18n backed Localizer
type Catalog struct {
	localizer *i18n.Localizer
	logger    *zap.SugaredLogger
}

// NewCatalog creates a Catalog preferring the given languages, falling back
// to the built-in English messages.
func NewCatalog(logger *zap.SugaredLogger, langs ...string) *Catalog {
	bundle := i18n.NewBundle(language.English)
	if err := bundle.AddMessages(language.English, english...); err != nil {
		logger.Errorw("failed loading built-in messages", "err", err)
	}

	return &Catalog{
		localizer: i18n.NewLocalizer(bundle, langs...),
		logger:    logger,
	}
}

// Localize resolves key. Unknown keys are returned as they are.
func (c *Catalog) Localize(key string, data map[string]any) string {
	s, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		c.logger.Warnw("missing message", "key", key, "err", err)
		return key
	}
	return s
}

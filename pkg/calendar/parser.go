package calendar

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/emersion/go-ical"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	urlRegex       = regexp.MustCompile(`https?://[^\s<>"{}|\\^[\]` + "`" + `]+`)
	nonAlnumRegex  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	meetingDomains = []string{"zoom", "meet.google", "teams.microsoft", "webex", "gotomeeting"}
)

// parser turns one iCal document into the events of the [from, until) window
type parser struct {
	from   time.Time
	until  time.Time
	logger *zap.SugaredLogger

	stats    filterStats
	seenIDs  map[string]bool
	seenKeys map[string]bool // title + start time
}

// Parse reads the events of an iCal document that overlap [from, until)
func Parse(r io.Reader, from, until time.Time, logger *zap.SugaredLogger) ([]models.Event, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read calendar")
	}
	p := &parser{from: from, until: until, logger: logger}
	return p.parse(string(body))
}

func (p *parser) parse(body string) ([]models.Event, error) {
	if err := validateICalFormat(body); err != nil {
		return nil, err
	}

	p.seenIDs = make(map[string]bool)
	p.seenKeys = make(map[string]bool)
	events := []models.Event{}

	decoder := ical.NewDecoder(strings.NewReader(body))
	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode calendar")
		}

		replaced := p.collectOverrides(cal.Children)

		for _, comp := range cal.Children {
			p.stats.totalComponents++
			if comp.Name != ical.CompEvent {
				continue
			}
			p.stats.totalEvents++

			event := parseEvent(comp)

			for _, candidate := range p.occurrences(comp, event, replaced) {
				if p.shouldIncludeEvent(candidate) && !p.isDuplicate(candidate) {
					events = append(events, candidate)
				}
			}
		}
	}

	p.stats.log(p.logger, len(events))
	return events, nil
}

// collectOverrides normalizes the timezones of every event component and
// records which recurring instances are replaced by a RECURRENCE-ID
// component of the same UID.
func (p *parser) collectOverrides(children []*ical.Component) overrides {
	replaced := overrides{}
	for _, comp := range children {
		if comp.Name != ical.CompEvent {
			continue
		}
		normalizeComponentTimezones(comp)

		recurrenceID, ok := p.recurrenceID(comp)
		if !ok {
			continue
		}
		if uid := comp.Props.Get(ical.PropUID); uid != nil {
			replaced.add(uid.Value, recurrenceID)
		}
	}
	return replaced
}

func (p *parser) recurrenceID(comp *ical.Component) (time.Time, bool) {
	prop := comp.Props.Get(ical.PropRecurrenceID)
	if prop == nil {
		return time.Time{}, false
	}
	t, err := parseDateTimeProperty(prop)
	if err != nil {
		p.logger.Warnw("invalid RECURRENCE-ID", "value", prop.Value, "err", err)
		return time.Time{}, false
	}
	return t, true
}

// occurrences expands a recurring component into its instances in the
// window. An override yields itself under the ID of the instance it replaces,
// and other non-recurring components yield the event itself.
func (p *parser) occurrences(comp *ical.Component, event models.Event, replaced overrides) []models.Event {
	if recurrenceID, ok := p.recurrenceID(comp); ok {
		event.ID = instanceID(event.ID, recurrenceID)
		return []models.Event{event}
	}

	set, err := comp.RecurrenceSet(getTimezoneFromComponent(comp))
	if err != nil {
		p.logger.Warnw("invalid recurrence, using first occurrence", "title", event.Title, "err", err)
		return []models.Event{event}
	}
	if set == nil {
		return []models.Event{event}
	}
	return expandRecurringEvent(event, set, p.from, p.until, replaced)
}

func (p *parser) isDuplicate(event models.Event) bool {
	if p.seenIDs[event.ID] && event.ID != "" {
		p.stats.filteredDuplicates++
		p.logger.Debugw("filtered duplicate", "reason", "id", "title", event.Title, "id", event.ID)
		return true
	}

	key := event.Title + "|" + event.StartTime.Format(time.RFC3339)
	if p.seenKeys[key] {
		p.stats.filteredDuplicates++
		p.logger.Debugw("filtered duplicate", "reason", "title+start", "title", event.Title, "start", event.StartTime)
		return true
	}

	p.seenIDs[event.ID] = true
	p.seenKeys[key] = true
	return false
}

func parseEvent(comp *ical.Component) models.Event {
	event := models.Event{}

	// iCal UID keeps the ID stable across refreshes
	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		event.ID = uidProp.Value
	}

	if summaryProp := comp.Props.Get(ical.PropSummary); summaryProp != nil {
		event.Title = summaryProp.Value
	}

	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil {
		event.Description = descProp.Value
		event.MeetingLink = extractMeetingLink(descProp.Value)
	}

	if startProp := comp.Props.Get(ical.PropDateTimeStart); startProp != nil {
		if t, err := parseDateTimeProperty(startProp); err == nil {
			event.StartTime = t
		}
	}

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, err := parseDateTimeProperty(endProp); err == nil {
			event.EndTime = t
		}
	}

	if statusProp := comp.Props.Get(ical.PropStatus); statusProp != nil {
		event.Status = statusProp.Value
	}

	// Some organizers only rename cancelled events
	if event.Status != statusCancelled && isCancelledTitle(event.Title) {
		event.Status = statusCancelled
	}

	if locProp := comp.Props.Get(ical.PropLocation); locProp != nil && event.MeetingLink == "" {
		event.MeetingLink = extractMeetingLink(locProp.Value)
	}

	return event
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), nil
	}

	formats := []string{
		"20060102T150405",     // YYYYMMDDTHHMMSS
		"20060102T150405Z",    // UTC
		time.RFC3339,          // RFC3339
		"2006-01-02T15:04:05", // ISO 8601 without timezone
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, prop.Value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.Errorf("unable to parse datetime value: %s", prop.Value)
}

func extractMeetingLink(text string) string {
	matches := urlRegex.FindAllString(text, -1)

	for _, match := range matches {
		lower := strings.ToLower(match)
		for _, domain := range meetingDomains {
			if strings.Contains(lower, domain) {
				return match
			}
		}
	}

	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func isCancelledTitle(title string) bool {
	clean := nonAlnumRegex.ReplaceAllString(strings.ToLower(title), "")
	return strings.HasPrefix(clean, "canceled") || strings.HasPrefix(clean, "cancelled")
}

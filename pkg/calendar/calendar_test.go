package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var windowStart = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetingbell//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
SUMMARY:Daily standup
DTSTART:20261001T100000Z
DTEND:20261001T101500Z
RRULE:FREQ=DAILY
DESCRIPTION:Agenda https://example.com/agenda then https://meet.google.com/abc-defg-hij
END:VEVENT
BEGIN:VEVENT
UID:review
DTSTAMP:20261001T000000Z
SUMMARY:Design review
DTSTART:20261014T130000Z
DTEND:20261014T140000Z
LOCATION:https://zoom.us/j/123
END:VEVENT
BEGIN:VEVENT
UID:review-copy
DTSTAMP:20261001T000000Z
SUMMARY:Design review
DTSTART:20261014T130000Z
DTEND:20261014T140000Z
END:VEVENT
BEGIN:VEVENT
UID:ongoing
DTSTAMP:20261001T000000Z
SUMMARY:Ongoing sync
DTSTART:20261014T083000Z
DTEND:20261014T093000Z
END:VEVENT
BEGIN:VEVENT
UID:cancelled
DTSTAMP:20261001T000000Z
SUMMARY:Planning
STATUS:CANCELLED
DTSTART:20261014T150000Z
DTEND:20261014T160000Z
END:VEVENT
BEGIN:VEVENT
UID:renamed
DTSTAMP:20261001T000000Z
SUMMARY:Canceled: 1:1
DTSTART:20261014T160000Z
DTEND:20261014T163000Z
END:VEVENT
BEGIN:VEVENT
UID:offsite
DTSTAMP:20261001T000000Z
SUMMARY:Offsite
DTSTART:20261014T000000Z
DTEND:20261016T000000Z
END:VEVENT
BEGIN:VEVENT
UID:next-week
DTSTAMP:20261001T000000Z
SUMMARY:Retro
DTSTART:20261021T100000Z
DTEND:20261021T110000Z
END:VEVENT
END:VCALENDAR
`

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func byID(events []models.Event) map[string]models.Event {
	m := make(map[string]models.Event, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return m
}

func TestParseFiltersAndExpands(t *testing.T) {
	events, err := Parse(strings.NewReader(crlf(feed)), windowStart, windowStart.Add(DefaultWindow), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	got := byID(events)
	assert.Len(t, events, 3)

	standup, ok := got["standup-2026-10-14T10:00:00Z"]
	require.True(t, ok, "recurring instance in window")
	assert.True(t, standup.StartTime.Equal(time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 15*time.Minute, standup.EndTime.Sub(standup.StartTime))
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", standup.MeetingLink)

	review, ok := got["review"]
	require.True(t, ok)
	assert.Equal(t, "https://zoom.us/j/123", review.MeetingLink)

	assert.Contains(t, got, "ongoing")
	assert.NotContains(t, got, "review-copy")
	assert.NotContains(t, got, "cancelled")
	assert.NotContains(t, got, "renamed")
	assert.NotContains(t, got, "offsite")
	assert.NotContains(t, got, "next-week")
}

const movedInstanceFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetingbell//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
SUMMARY:Daily standup
DTSTART:20261001T100000Z
DTEND:20261001T101500Z
RRULE:FREQ=DAILY
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20261010T000000Z
RECURRENCE-ID:20261014T100000Z
SUMMARY:Daily standup (moved)
DTSTART:20261014T113000Z
DTEND:20261014T114500Z
END:VEVENT
END:VCALENDAR
`

func TestParseAppliesRecurrenceOverrides(t *testing.T) {
	events, err := Parse(strings.NewReader(crlf(movedInstanceFeed)), windowStart, windowStart.Add(2*DefaultWindow), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	// The 10:00 instance moved to 11:30, tomorrow's keeps its slot.
	require.Len(t, events, 2)
	got := byID(events)

	moved, ok := got["standup-2026-10-14T10:00:00Z"]
	require.True(t, ok, "override keeps the ID of the instance it replaces")
	assert.Equal(t, "Daily standup (moved)", moved.Title)
	assert.True(t, moved.StartTime.Equal(time.Date(2026, 10, 14, 11, 30, 0, 0, time.UTC)))

	for _, e := range events {
		assert.False(t, e.StartTime.Equal(time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)), "replaced instance %s still listed", e.ID)
	}
	_, ok = got["standup-2026-10-15T10:00:00Z"]
	assert.True(t, ok)
	assert.NotContains(t, got, "standup")
}

func TestParseRejectsNonCalendars(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	_, err := Parse(strings.NewReader("<!DOCTYPE html><html></html>"), windowStart, windowStart.Add(time.Hour), logger)
	assert.ErrorIs(t, err, ErrHTMLResponse)

	_, err = Parse(strings.NewReader("not a calendar"), windowStart, windowStart.Add(time.Hour), logger)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestExtractMeetingLink(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"no links here", ""},
		{"docs https://example.com/doc", "https://example.com/doc"},
		{"https://example.com/doc and https://teams.microsoft.com/l/meetup", "https://teams.microsoft.com/l/meetup"},
		{"<https://zoom.us/j/42>", "https://zoom.us/j/42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractMeetingLink(tt.text), tt.text)
	}
}

func TestIsCancelledTitle(t *testing.T) {
	assert.True(t, isCancelledTitle("Cancelled - Planning"))
	assert.True(t, isCancelledTitle("[CANCELED] 1:1"))
	assert.False(t, isCancelledTitle("Planning (was cancelled)"))
}

func TestFetcherAssignsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crlf(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetingbell//test//EN
BEGIN:VEVENT
DTSTAMP:20261001T000000Z
SUMMARY:Lunch
DTSTART:20261014T120000Z
DTEND:20261014T130000Z
END:VEVENT
END:VCALENDAR
`))
	}))
	defer srv.Close()

	clk := clock.NewFake()
	clk.Set(windowStart)
	f := NewFetcher(srv.Client(), clk, zaptest.NewLogger(t).Sugar())

	events, err := f.FetchEvents(context.Background(), models.CalendarSource{ID: "work", Name: "Work", URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "work", events[0].SourceID)
	assert.Equal(t, "work-"+events[0].StartTime.Format(time.RFC3339)+"-Lunch", events[0].ID)
}

func TestFetchAllSkipsFailingSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, crlf(feed))
	}))
	defer srv.Close()

	clk := clock.NewFake()
	clk.Set(windowStart)
	f := NewFetcher(srv.Client(), clk, zaptest.NewLogger(t).Sugar())

	_, err := f.FetchEvents(context.Background(), models.CalendarSource{ID: "broken", URL: srv.URL + "/broken"})
	assert.Error(t, err)

	events, failed, err := f.FetchAll(context.Background(), []models.CalendarSource{
		{ID: "broken", Name: "Broken", URL: srv.URL + "/broken"},
		{ID: "team", Name: "Team", URL: srv.URL + "/team.ics"},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source Broken")
	assert.Equal(t, []string{"broken"}, failed)
	assert.Len(t, events, 3)
	for _, e := range events {
		assert.Equal(t, "team", e.SourceID)
	}
}

func TestFetchAllReportsNoFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, crlf(feed))
	}))
	defer srv.Close()

	clk := clock.NewFake()
	clk.Set(windowStart)
	f := NewFetcher(srv.Client(), clk, zaptest.NewLogger(t).Sugar())

	events, failed, err := f.FetchAll(context.Background(), []models.CalendarSource{{ID: "team", Name: "Team", URL: srv.URL}})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Len(t, events, 3)
}

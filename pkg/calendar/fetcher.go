// Package calendar reads events from iCal feeds.
package calendar

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultWindow is how far ahead events are read.
const DefaultWindow = 24 * time.Hour

var (
	ErrHTMLResponse  = errors.New("received HTML instead of iCalendar data, check if URL requires authentication")
	ErrInvalidFormat = errors.New("invalid iCalendar format")
)

// Fetcher downloads and parses iCal feeds
type Fetcher struct {
	client *http.Client
	clk    clock.Clock
	window time.Duration
	logger *zap.SugaredLogger
}

// NewFetcher creates a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, clk clock.Clock, logger *zap.SugaredLogger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client: client,
		clk:    clk,
		window: DefaultWindow,
		logger: logger,
	}
}

// FetchAll reads every source. A failing source is logged and skipped, and
// its ID is returned in failed so callers can tell a removed event from an
// unreadable calendar. err combines the errors of every failed source.
func (f *Fetcher) FetchAll(ctx context.Context, sources []models.CalendarSource) (events []models.Event, failed []string, err error) {
	for _, source := range sources {
		fetched, fetchErr := f.FetchEvents(ctx, source)
		if fetchErr != nil {
			f.logger.Errorw("failed fetching calendar", "source", source.Name, "err", fetchErr)
			failed = append(failed, source.ID)
			err = multierr.Append(err, fetchErr)
			continue
		}
		events = append(events, fetched...)
	}
	return events, failed, err
}

// FetchEvents fetches and parses the events of source
func (f *Fetcher) FetchEvents(ctx context.Context, source models.CalendarSource) ([]models.Event, error) {
	body, err := f.download(ctx, source.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.Name)
	}

	now := f.clk.Now()
	events, err := Parse(strings.NewReader(body), now, now.Add(f.window), f.logger)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.Name)
	}

	assignSource(events, source)
	return events, nil
}

func (f *Fetcher) download(ctx context.Context, icalURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, icalURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected HTTP status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response body")
	}
	return string(body), nil
}

// assignSource tags events with their source and derives an ID for events
// without a UID.
func assignSource(events []models.Event, source models.CalendarSource) {
	for i := range events {
		events[i].SourceID = source.ID
		if events[i].ID == "" {
			events[i].ID = source.ID + "-" + events[i].StartTime.Format(time.RFC3339) + "-" + events[i].Title
		}
	}
}

func validateICalFormat(body string) error {
	trimmed := strings.TrimSpace(body)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return ErrHTMLResponse
	}

	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return errors.Wrapf(ErrInvalidFormat, "expected BEGIN:VCALENDAR, got: %s", preview)
	}
	return nil
}

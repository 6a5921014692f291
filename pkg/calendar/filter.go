package calendar

import (
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"go.uber.org/zap"
)

const statusCancelled = "CANCELLED"

type filterStats struct {
	totalComponents       int
	totalEvents           int
	filteredMissingTime   int
	filteredCancelled     int
	filteredAllDay        int
	filteredOutsideWindow int
	filteredDuplicates    int
}

func (s *filterStats) filtered() int {
	return s.filteredMissingTime + s.filteredCancelled + s.filteredAllDay + s.filteredOutsideWindow + s.filteredDuplicates
}

func (s *filterStats) log(logger *zap.SugaredLogger, included int) {
	logger.Debugw("calendar parsed",
		"components", s.totalComponents,
		"events", s.totalEvents,
		"included", included,
		"cancelled", s.filteredCancelled,
		"all_day", s.filteredAllDay,
		"outside_window", s.filteredOutsideWindow,
		"missing_time", s.filteredMissingTime,
		"duplicates", s.filteredDuplicates,
	)
}

func (p *parser) shouldIncludeEvent(event models.Event) bool {
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		p.stats.filteredMissingTime++
		p.logger.Debugw("filtered event", "reason", "missing time", "title", event.Title)
		return false
	}

	if event.Status == statusCancelled {
		p.stats.filteredCancelled++
		p.logger.Debugw("filtered event", "reason", "cancelled", "title", event.Title, "start", event.StartTime)
		return false
	}

	if isAllDayEvent(event) {
		p.stats.filteredAllDay++
		p.logger.Debugw("filtered event", "reason", "all-day", "title", event.Title, "start", event.StartTime)
		return false
	}

	if event.StartTime.Before(p.until) && event.EndTime.After(p.from) {
		return true
	}

	p.stats.filteredOutsideWindow++
	p.logger.Debugw("filtered event", "reason", "outside window", "title", event.Title, "start", event.StartTime)
	return false
}

// isAllDayEvent reports events spanning multiple dates for at least 24 hours
func isAllDayEvent(event models.Event) bool {
	startDate := event.StartTime.Format("2006-01-02")
	endDate := event.EndTime.Format("2006-01-02")
	return startDate != endDate && event.EndTime.Sub(event.StartTime) >= 24*time.Hour
}

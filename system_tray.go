package main

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/borgmon/meetingbell/pkg/models"
)

const trayEventLimit = 5

func (mb *MeetingBell) setupSystemTray() {
	mb.updateSystemTrayMenu()
}

func (mb *MeetingBell) updateSystemTrayMenu() {
	desk, ok := mb.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{}

	upcoming := mb.upcomingToday(trayEventLimit)
	if len(upcoming) > 0 {
		headerItem := fyne.NewMenuItem("Upcoming Today:", nil)
		headerItem.Disabled = true
		menuItems = append(menuItems, headerItem)

		for _, event := range upcoming {
			item := fyne.NewMenuItem(fmt.Sprintf("  %s - %s",
				event.StartTime.Format("3:04 PM"),
				truncateString(event.Title, 35)), nil)
			item.Disabled = true
			menuItems = append(menuItems, item)
		}
		menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	}

	if reminders := mb.pendingReminders(); len(reminders) > 0 {
		for _, rem := range reminders {
			item := fyne.NewMenuItem(fmt.Sprintf("Reminder at %s - %s",
				rem.FireAt.Format("3:04 PM"),
				truncateString(rem.Payload.Title, 30)), nil)
			item.Disabled = true
			menuItems = append(menuItems, item)
		}
		menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	}

	menuItems = append(menuItems,
		fyne.NewMenuItem("Preferences", func() {
			mb.showPreferencesWindow()
		}),
		fyne.NewMenuItem("Sync Now", func() {
			go mb.syncEvents()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			mb.quit()
		}),
	)

	desk.SetSystemTrayMenu(fyne.NewMenu(appName, menuItems...))
	desk.SetSystemTrayIcon(theme.HistoryIcon())
}

// upcomingToday returns the next events that have not ended and start today
func (mb *MeetingBell) upcomingToday(limit int) []models.Event {
	now := mb.clk.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24 * time.Hour)

	result := []models.Event{}
	for _, event := range mb.events.Upcoming(now) {
		if !event.StartTime.Before(todayEnd) || len(result) >= limit {
			break
		}
		result = append(result, event)
	}
	return result
}

func (mb *MeetingBell) pendingReminders() []models.ScheduledReminder {
	if mb.registry == nil {
		return nil
	}

	reminders := []models.ScheduledReminder{}
	for _, slot := range models.Slots {
		if rem, err := mb.registry.Lookup(context.Background(), slot); err == nil {
			reminders = append(reminders, rem)
		}
	}
	return reminders
}

// truncateString truncates a string to maxLen runes, adding "..." if needed
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

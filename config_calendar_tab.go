package main

import (
	"fmt"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/google/uuid"
)

// validateSourceURL accepts absolute http(s) URLs not already in sources
func validateSourceURL(raw string, sources []models.CalendarSource) error {
	if raw == "" {
		return fmt.Errorf("URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	for _, existing := range sources {
		if existing.URL == raw {
			return fmt.Errorf("this calendar URL has already been added")
		}
	}
	return nil
}

func (pw *PreferencesWindow) buildCalendarTab() fyne.CanvasObject {
	pw.sourcesData = append([]models.CalendarSource{}, pw.savedSources...)

	// Track selected item index
	selectedIndex := -1

	pw.sourcesList = widget.NewList(
		func() int {
			return len(pw.sourcesData)
		},
		func() fyne.CanvasObject {
			nameLabel := widget.NewLabel("Name")
			nameLabel.TextStyle.Bold = true
			urlLabel := widget.NewLabel("URL")
			urlLabel.Importance = widget.MediumImportance
			return container.NewVBox(nameLabel, urlLabel)
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			vbox := o.(*fyne.Container)
			source := pw.sourcesData[i]
			vbox.Objects[0].(*widget.Label).SetText(source.Name)
			vbox.Objects[1].(*widget.Label).SetText(truncateString(source.URL, 60))
		})

	pw.sourcesList.OnSelected = func(id widget.ListItemID) {
		selectedIndex = id
	}

	plusButton := widget.NewButton("", func() {
		nameEntry := widget.NewEntry()
		nameEntry.SetPlaceHolder("e.g., Work Calendar")
		nameEntry.Validator = func(s string) error {
			if s == "" {
				return fmt.Errorf("name is required")
			}
			return nil
		}

		urlEntry := widget.NewMultiLineEntry()
		urlEntry.SetPlaceHolder("https://calendar.example.com/ical/...")
		urlEntry.Wrapping = fyne.TextWrapBreak
		urlEntry.SetMinRowsVisible(4)
		urlEntry.Validator = func(s string) error {
			return validateSourceURL(s, pw.sourcesData)
		}

		formItems := []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("URL", urlEntry),
		}

		addDialog := dialog.NewForm("Add iCal Source", "Add", "Cancel", formItems, func(confirmed bool) {
			if !confirmed {
				return
			}

			pw.sourcesData = append(pw.sourcesData, models.CalendarSource{
				ID:   uuid.New().String(),
				Name: nameEntry.Text,
				URL:  urlEntry.Text,
			})

			pw.sourcesList.Refresh()
			pw.markChanged()
		}, pw.window)

		addDialog.Resize(fyne.NewSize(560, 280))
		addDialog.Show()
	})
	plusButton.Icon = theme.ContentAddIcon()

	minusButton := widget.NewButton("", func() {
		if selectedIndex < 0 || selectedIndex >= len(pw.sourcesData) {
			return
		}
		dialog.ShowConfirm("Remove Calendar",
			fmt.Sprintf("Are you sure you want to remove '%s'?", pw.sourcesData[selectedIndex].Name),
			func(confirmed bool) {
				if confirmed {
					pw.sourcesData = append(pw.sourcesData[:selectedIndex], pw.sourcesData[selectedIndex+1:]...)
					pw.sourcesList.UnselectAll()
					selectedIndex = -1
					pw.sourcesList.Refresh()
					pw.markChanged()
				}
			}, pw.window)
	})
	minusButton.Icon = theme.ContentRemoveIcon()

	listScroll := container.NewScroll(pw.sourcesList)
	listScroll.SetMinSize(fyne.NewSize(0, 200))

	listWithBorder := container.NewBorder(
		widget.NewSeparator(), // top
		widget.NewSeparator(), // bottom
		widget.NewSeparator(), // left
		widget.NewSeparator(), // right
		listScroll,
	)

	sourcesContainer := container.NewVBox(listWithBorder, container.NewHBox(plusButton, minusButton))

	pw.syncNowButton = widget.NewButton("Sync Now", func() {
		if pw.onSave != nil {
			pw.onSave()
		}
	})
	pw.syncNowButton.Icon = theme.ViewRefreshIcon()

	sourcesLabel := widget.NewLabel("iCal Sources:")
	sourcesHelp := widget.NewLabel("Calendars from config.yaml are always synced as well.")
	sourcesHelp.Wrapping = fyne.TextWrapWord
	sourcesHelp.Importance = widget.MediumImportance

	syncHelp := widget.NewLabel("Fetch the latest events and reschedule reminders")
	syncHelp.Importance = widget.MediumImportance

	form := container.New(layout.NewFormLayout(),
		container.NewVBox(sourcesLabel, sourcesHelp),
		sourcesContainer,

		container.NewVBox(widget.NewLabel("Sync Calendars:"), syncHelp),
		container.NewVBox(pw.syncNowButton),
	)

	content := container.NewVBox(
		widget.NewLabel("Calendar Settings"),
		widget.NewSeparator(),
		form,
	)

	return container.NewPadded(container.NewVScroll(content))
}

package main

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/store"
)

const savedMessage = "Settings saved successfully"

type PreferencesWindow struct {
	window fyne.Window
	app    fyne.App
	store  *store.ConfigStore
	config *models.Config
	onSave func()

	// Reminders tab
	startCheck     *widget.Check
	startLead      *widget.Select
	endCheck       *widget.Check
	endLead        *widget.Select
	hideTitleCheck *widget.Check
	soundCheck     *widget.Check

	// Calendars tab
	sourcesList   *widget.List
	sourcesData   []models.CalendarSource
	savedSources  []models.CalendarSource
	syncNowButton *widget.Button

	// UI state
	hasUnsavedChanges bool
	saveStatusLabel   *widget.Label
	saveButton        *widget.Button
}

func NewPreferencesWindow(app fyne.App, configStore *store.ConfigStore, onSave func()) *PreferencesWindow {
	pw := &PreferencesWindow{
		app:          app,
		store:        configStore,
		config:       configStore.Load(),
		savedSources: configStore.Sources(),
		onSave:       onSave,
	}

	pw.window = app.NewWindow(appName + " - Preferences")
	pw.buildUI()

	return pw
}

func (pw *PreferencesWindow) buildUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Reminders", pw.buildRemindersTab()),
		container.NewTabItem("Calendars", pw.buildCalendarTab()),
	)

	pw.saveStatusLabel = widget.NewLabel("")
	pw.saveStatusLabel.Importance = widget.SuccessImportance

	pw.saveButton = widget.NewButton("Save", pw.save)
	pw.saveButton.Importance = widget.HighImportance
	pw.saveButton.Disable() // Initially disabled until changes are made

	closeButton := widget.NewButton("Close", func() {
		pw.handleClose()
	})

	buttonRow := container.NewBorder(
		nil,
		nil,
		container.NewHBox(pw.saveButton, pw.saveStatusLabel),
		closeButton,
		container.NewHBox(),
	)

	content := container.NewBorder(
		nil,
		container.NewPadded(buttonRow),
		nil,
		nil,
		tabs,
	)

	pw.window.SetContent(content)
	pw.window.Resize(fyne.NewSize(640, 480))
	pw.window.CenterOnScreen()

	pw.window.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape {
			pw.handleClose()
		}
	})

	pw.window.SetCloseIntercept(func() {
		pw.handleClose()
	})
}

func (pw *PreferencesWindow) save() {
	pw.saveButton.Disable()

	pw.config = pw.getConfigFromUI()
	pw.savedSources = append([]models.CalendarSource{}, pw.sourcesData...)
	pw.store.Save(pw.config)
	pw.store.SaveSources(pw.savedSources)

	if pw.onSave != nil {
		pw.onSave()
	}

	pw.hasUnsavedChanges = false
	pw.saveStatusLabel.SetText(savedMessage)
	pw.saveStatusLabel.Importance = widget.SuccessImportance
	pw.saveStatusLabel.Refresh()

	// Clear the message after 3 seconds
	go func() {
		time.Sleep(3 * time.Second)
		fyne.Do(func() {
			if pw.saveStatusLabel.Text == savedMessage {
				pw.saveStatusLabel.SetText("")
			}
		})
	}()
}

func (pw *PreferencesWindow) getConfigFromUI() *models.Config {
	return &models.Config{
		StartReminder: pw.startCheck.Checked,
		StartLead:     parseLeadLabel(pw.startLead.Selected),
		EndReminder:   pw.endCheck.Checked,
		EndLead:       parseLeadLabel(pw.endLead.Selected),
		HideTitle:     pw.hideTitleCheck.Checked,
		Sound:         pw.soundCheck.Checked,
	}
}

func (pw *PreferencesWindow) Show() {
	pw.window.Show()
}

// markChanged marks the config as having unsaved changes
func (pw *PreferencesWindow) markChanged() {
	pw.hasUnsavedChanges = true
	if pw.saveButton != nil {
		pw.saveButton.Enable()
	}
}

// handleClose asks for confirmation when there are unsaved changes
func (pw *PreferencesWindow) handleClose() {
	if !pw.hasActualChanges() {
		pw.window.Close()
		return
	}

	dialog.ShowConfirm("Unsaved Changes",
		"You have unsaved changes. Are you sure you want to close?",
		func(confirmed bool) {
			if confirmed {
				pw.window.Close()
			}
		}, pw.window)
}

// hasActualChanges checks if the current UI state differs from the saved config
func (pw *PreferencesWindow) hasActualChanges() bool {
	if *pw.getConfigFromUI() != *pw.config {
		return true
	}

	if len(pw.sourcesData) != len(pw.savedSources) {
		return true
	}
	for i := range pw.sourcesData {
		if pw.sourcesData[i] != pw.savedSources[i] {
			return true
		}
	}
	return false
}

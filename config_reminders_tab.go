package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/borgmon/meetingbell/pkg/models"
)

var leadLabels = map[models.LeadTime]string{
	models.LeadAtEvent:      "At event time",
	models.LeadOneMinute:    "1 minute before",
	models.LeadThreeMinutes: "3 minutes before",
	models.LeadFiveMinutes:  "5 minutes before",
}

func leadOptions() []string {
	options := make([]string, 0, len(models.LeadTimes))
	for _, l := range models.LeadTimes {
		options = append(options, leadLabels[l])
	}
	return options
}

// parseLeadLabel maps a select label back to its lead time
func parseLeadLabel(label string) models.LeadTime {
	for l, text := range leadLabels {
		if text == label {
			return l
		}
	}
	return models.LeadAtEvent
}

func (pw *PreferencesWindow) buildRemindersTab() fyne.CanvasObject {
	changed := func(bool) { pw.markChanged() }
	leadChanged := func(string) { pw.markChanged() }

	pw.startCheck = widget.NewCheck("Remind me when an event starts", nil)
	pw.startCheck.SetChecked(pw.config.StartReminder)
	pw.startLead = widget.NewSelect(leadOptions(), nil)
	pw.startLead.SetSelected(leadLabels[pw.config.StartLead])

	pw.endCheck = widget.NewCheck("Remind me when an event ends", nil)
	pw.endCheck.SetChecked(pw.config.EndReminder)
	pw.endLead = widget.NewSelect(leadOptions(), nil)
	pw.endLead.SetSelected(leadLabels[pw.config.EndLead])

	pw.hideTitleCheck = widget.NewCheck("Hide event titles", nil)
	pw.hideTitleCheck.SetChecked(pw.config.HideTitle)

	pw.soundCheck = widget.NewCheck("Play sound", nil)
	pw.soundCheck.SetChecked(pw.config.Sound)

	// Hooked up after the initial values so loading does not count as a change
	pw.startCheck.OnChanged = changed
	pw.endCheck.OnChanged = changed
	pw.hideTitleCheck.OnChanged = changed
	pw.soundCheck.OnChanged = changed
	pw.startLead.OnChanged = leadChanged
	pw.endLead.OnChanged = leadChanged

	hideHelp := widget.NewLabel("Reminders show \"Meeting\" instead of the event title")
	hideHelp.Wrapping = fyne.TextWrapWord
	hideHelp.Importance = widget.MediumImportance

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("Event start:"),
		container.NewVBox(pw.startCheck, pw.startLead),

		widget.NewLabel("Event end:"),
		container.NewVBox(pw.endCheck, pw.endLead),

		container.NewVBox(widget.NewLabel("Privacy:"), hideHelp),
		container.NewVBox(pw.hideTitleCheck),

		widget.NewLabel("Sound:"),
		container.NewVBox(pw.soundCheck),
	)

	content := container.NewVBox(
		widget.NewLabel("Reminder Settings"),
		widget.NewSeparator(),
		form,
	)

	return container.NewPadded(container.NewVScroll(content))
}

package notify

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/borgmon/meetingbell/pkg/models"
)

// FyneModal shows reminders as a fyne information dialog in its own window
type FyneModal struct {
	app    fyne.App
	okText string
}

// NewFyneModal creates a FyneModal whose dismiss button reads okText
func NewFyneModal(app fyne.App, okText string) *FyneModal {
	return &FyneModal{app: app, okText: okText}
}

// Alert builds the dialog on the fyne thread and blocks the caller until it
// is dismissed. It must not be called from the fyne thread itself.
func (m *FyneModal) Alert(ctx context.Context, title, body string) error {
	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	fyne.Do(func() {
		w := m.app.NewWindow(title)
		w.Resize(fyne.NewSize(420, 180))
		w.CenterOnScreen()
		w.SetOnClosed(closeDone)

		d := dialog.NewInformation(title, body, w)
		if m.okText != "" {
			d.SetDismissText(m.okText)
		}
		d.SetOnClosed(func() {
			closeDone()
			w.Close()
		})

		w.Show()
		d.Show()
		w.RequestFocus()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FynePusher sends notifications through fyne. fyne offers no actions and no
// way to withdraw a notification, so PurgeDelivered is a no-op.
type FynePusher struct {
	app fyne.App
}

// NewFynePusher creates a FynePusher
func NewFynePusher(app fyne.App) *FynePusher {
	return &FynePusher{app: app}
}

// RequestAuthorization is a no-op, fyne asks the OS on first use
func (p *FynePusher) RequestAuthorization(context.Context) error {
	return nil
}

// Push shows payload as a fyne notification
func (p *FynePusher) Push(_ context.Context, _ string, payload models.Payload) error {
	p.app.SendNotification(fyne.NewNotification(payload.Title, payload.Body))
	return nil
}

// PurgeDelivered does nothing
func (p *FynePusher) PurgeDelivered(context.Context) error {
	return nil
}

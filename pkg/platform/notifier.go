// Package platform talks to the desktop notification server over D-Bus
// (org.freedesktop.Notifications) and hosts the small OS specific hooks.
package platform

import (
	"context"
	"sync"

	"github.com/borgmon/meetingbell/pkg/localize"
	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/notify"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsIface = "org.freedesktop.Notifications"

	signalActionInvoked = notificationsIface + ".ActionInvoked"
	signalClosed        = notificationsIface + ".NotificationClosed"

	urgencyCritical = byte(2)
	defaultSound    = "message-new-instant"
)

// ActionFunc receives the event ID and action identifier of a clicked button
type ActionFunc func(eventID, actionID string)

// Notifier is a push backend and settings source backed by the session bus
type Notifier struct {
	conn      *dbus.Conn
	obj       dbus.BusObject
	appName   string
	localizer localize.Localizer
	logger    *zap.SugaredLogger

	mu sync.Mutex
	// Map of server-assigned notification ID to what was shown
	delivered map[uint32]models.Payload
}

// Connect opens a private session bus connection
func Connect(appName string, localizer localize.Localizer, logger *zap.SugaredLogger) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "failed connecting to session bus")
	}

	return &Notifier{
		conn:      conn,
		obj:       conn.Object(notificationsDest, notificationsPath),
		appName:   appName,
		localizer: localizer,
		logger:    logger,
		delivered: make(map[uint32]models.Payload),
	}, nil
}

// Close releases the bus connection
func (n *Notifier) Close() error {
	return n.conn.Close()
}

// NotificationSettings asks the server for its capabilities. A server that
// answers is treated as authorization granted.
func (n *Notifier) NotificationSettings(ctx context.Context) (notify.Settings, error) {
	var caps []string
	if err := n.obj.CallWithContext(ctx, notificationsIface+".GetCapabilities", 0).Store(&caps); err != nil {
		return notify.Settings{Authorization: notify.AuthorizationDenied}, errors.Wrap(err, "GetCapabilities failed")
	}

	return notify.Settings{
		Authorization: notify.AuthorizationAuthorized,
		Style:         styleFromCapabilities(caps),
	}, nil
}

// RequestAuthorization is a no-op, the freedesktop protocol has no permission step
func (n *Notifier) RequestAuthorization(context.Context) error {
	return nil
}

// Push shows payload with the buttons of its category
func (n *Notifier) Push(ctx context.Context, id string, payload models.Payload) error {
	call := n.obj.CallWithContext(ctx, notificationsIface+".Notify", 0,
		n.appName,
		uint32(0),
		"",
		payload.Title,
		payload.Body,
		buildActions(payload.Category, n.localizer),
		buildHints(id, payload),
		int32(-1),
	)

	var nid uint32
	if err := call.Store(&nid); err != nil {
		return errors.Wrapf(err, "Notify failed for %s", id)
	}

	n.mu.Lock()
	n.delivered[nid] = payload
	n.mu.Unlock()

	n.logger.Debugw("notification shown", "id", id, "server_id", nid, "category", payload.Category)
	return nil
}

// PurgeDelivered closes every notification this process has shown
func (n *Notifier) PurgeDelivered(ctx context.Context) error {
	n.mu.Lock()
	ids := make([]uint32, 0, len(n.delivered))
	for nid := range n.delivered {
		ids = append(ids, nid)
	}
	n.delivered = make(map[uint32]models.Payload)
	n.mu.Unlock()

	var firstErr error
	for _, nid := range ids {
		if err := n.obj.CallWithContext(ctx, notificationsIface+".CloseNotification", 0, nid).Err; err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "CloseNotification failed for %d", nid)
		}
	}
	return firstErr
}

// Listen forwards button clicks to onAction until ctx is done
func (n *Notifier) Listen(ctx context.Context, onAction ActionFunc) error {
	err := n.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notificationsPath),
		dbus.WithMatchInterface(notificationsIface),
	)
	if err != nil {
		return errors.Wrap(err, "failed subscribing to notification signals")
	}

	signals := make(chan *dbus.Signal, 16)
	n.conn.Signal(signals)

	go func() {
		defer n.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				n.handleSignal(sig, onAction)
			}
		}
	}()

	return nil
}

func (n *Notifier) handleSignal(sig *dbus.Signal, onAction ActionFunc) {
	if len(sig.Body) < 2 {
		return
	}
	nid, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}

	switch sig.Name {
	case signalActionInvoked:
		actionID, _ := sig.Body[1].(string)
		n.mu.Lock()
		payload, known := n.delivered[nid]
		n.mu.Unlock()
		if !known {
			return
		}
		n.logger.Infow("notification action", "server_id", nid, "action", actionID, "event_id", payload.EventID)
		onAction(payload.EventID, actionID)
	case signalClosed:
		n.mu.Lock()
		delete(n.delivered, nid)
		n.mu.Unlock()
	}
}

// styleFromCapabilities maps server capabilities onto a presentation style.
// Servers able to show buttons count as alert style.
func styleFromCapabilities(caps []string) notify.AlertStyle {
	style := notify.AlertStyleNone
	for _, c := range caps {
		switch c {
		case "actions":
			return notify.AlertStyleAlert
		case "body":
			style = notify.AlertStyleBanner
		}
	}
	return style
}

// buildActions flattens the buttons of a category into the key/label list
// the Notify call expects.
func buildActions(category models.Category, localizer localize.Localizer) []string {
	actions := []string{}
	for _, a := range models.Categories[category] {
		actions = append(actions, a.ID, localizer.Localize(a.TitleKey, a.TitleData))
	}
	return actions
}

func buildHints(id string, payload models.Payload) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency":             dbus.MakeVariant(urgencyCritical),
		"x-meetingbell-id":    dbus.MakeVariant(id),
		"x-meetingbell-event": dbus.MakeVariant(payload.EventID),
	}
	if payload.Thread != "" {
		hints["x-meetingbell-thread"] = dbus.MakeVariant(payload.Thread)
	}
	if payload.Sound {
		hints["sound-name"] = dbus.MakeVariant(defaultSound)
	} else {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	return hints
}

package main

import (
	"context"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/borgmon/meetingbell/pkg/audio"
	"github.com/borgmon/meetingbell/pkg/calendar"
	"github.com/borgmon/meetingbell/pkg/localize"
	"github.com/borgmon/meetingbell/pkg/logging"
	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/borgmon/meetingbell/pkg/notify"
	"github.com/borgmon/meetingbell/pkg/pending"
	"github.com/borgmon/meetingbell/pkg/platform"
	"github.com/borgmon/meetingbell/pkg/reminder"
	"github.com/borgmon/meetingbell/pkg/settings"
	"github.com/borgmon/meetingbell/pkg/store"
	"github.com/hibiken/asynq"
	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const appName = "MeetingBell"

type MeetingBell struct {
	app      fyne.App
	settings *settings.Settings
	logger   *zap.SugaredLogger
	clk      clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	catalog     *localize.Catalog
	configStore *store.ConfigStore
	events      *store.EventStore
	fetcher     *calendar.Fetcher
	notifier    *platform.Notifier
	queue       *pending.QueueStore
	registry    pending.Registry
	channel     *notify.Channel
	scheduler   *reminder.Scheduler
	actions     *reminder.ActionHandler
	refresher   *reminder.Refresher
	cron        *cron.Cron

	syncMu      sync.Mutex
	prefsWindow *PreferencesWindow
}

func main() {
	s, err := settings.Load()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	logger, err := logging.New(s.IsProduction(), s.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	mb := newMeetingBell(app.NewWithID(s.AppID), s, logger)
	if err := mb.initialize(); err != nil {
		logger.Fatalw("failed to start", "err", err)
	}

	mb.run()
}

func newMeetingBell(a fyne.App, s *settings.Settings, logger *zap.SugaredLogger) *MeetingBell {
	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.New()

	return &MeetingBell{
		app:         a,
		settings:    s,
		logger:      logger,
		clk:         clk,
		ctx:         ctx,
		cancel:      cancel,
		catalog:     localize.NewCatalog(logger, s.Locale),
		configStore: store.NewConfigStore(a),
		events:      store.NewEventStore(),
		fetcher:     calendar.NewFetcher(nil, clk, logger),
	}
}

func (mb *MeetingBell) initialize() error {
	mb.channel = notify.NewChannel(
		mb.newPusher(),
		notify.NewFyneModal(mb.app, mb.catalog.Localize("general_ok", nil)),
		notify.NewProbe(mb.settingsSource(), mb.settings.ProbeTimeout, mb.logger),
		audio.NewChime(mb.logger),
		mb.logger,
	)

	registry, err := mb.newRegistry()
	if err != nil {
		return err
	}
	mb.registry = registry

	mb.scheduler = reminder.NewScheduler(mb.registry, mb.channel, mb.catalog, mb.logger)
	mb.actions = reminder.NewActionHandler(mb.scheduler, mb.events, mb.configStore, reminder.URLOpener(mb.app.OpenURL), mb.clk, mb.logger)
	mb.refresher = reminder.NewRefresher(mb.scheduler, mb.registry, mb.events, mb.configStore, mb.clk, mb.logger)

	if mb.notifier != nil {
		if err := mb.notifier.Listen(mb.ctx, func(eventID, actionID string) {
			mb.actions.Handle(mb.ctx, eventID, actionID)
		}); err != nil {
			mb.logger.Warnw("notification actions unavailable", "err", err)
		}
	}

	if err := setupAutostart(mb.settings.AutoStart, mb.logger); err != nil {
		mb.logger.Warnw("failed to setup autostart", "err", err)
	}

	mb.setupSystemTray()
	return mb.startBackgroundSync()
}

// newPusher prefers the desktop notification server and falls back to fyne
// notifications when the session bus is unavailable.
func (mb *MeetingBell) newPusher() notify.Pusher {
	notifier, err := platform.Connect(appName, mb.catalog, mb.logger)
	if err != nil {
		mb.logger.Warnw("desktop notifications unavailable, using fyne notifications", "err", err)
		return notify.NewFynePusher(mb.app)
	}
	mb.notifier = notifier
	return notifier
}

func (mb *MeetingBell) settingsSource() notify.SettingsSource {
	if mb.notifier != nil {
		return mb.notifier
	}
	return notify.StaticSettings{Authorization: notify.AuthorizationAuthorized, Style: notify.AlertStyleBanner}
}

func (mb *MeetingBell) newRegistry() (pending.Registry, error) {
	if mb.settings.PendingBackend != settings.BackendRedis {
		return pending.NewMemoryStore(mb.clk, mb.deliver, mb.logger), nil
	}

	mb.queue = pending.NewQueueStore(asynq.RedisClientOpt{
		Addr:     mb.settings.RedisAddr,
		Password: mb.settings.RedisPassword,
		DB:       mb.settings.RedisDB,
	}, mb.settings.PendingQueue, mb.deliver, mb.logger)

	if err := mb.queue.Start(); err != nil {
		return nil, errors.Wrap(err, "pending reminder queue")
	}
	return mb.queue, nil
}

// deliver is called by the registry when a reminder is due
func (mb *MeetingBell) deliver(ctx context.Context, rem models.ScheduledReminder) {
	receipt := mb.channel.Deliver(ctx, rem.Payload)
	mb.logger.Debugw("reminder fired", "slot", rem.Slot, "event_id", rem.Payload.EventID, "channel", receipt.Channel)

	// The start slot is free again, look at what comes next
	go mb.syncEvents()
}

func (mb *MeetingBell) run() {
	mb.app.Lifecycle().SetOnStarted(func() {
		platform.HideFromDock()
	})
	mb.app.Run()
}

func (mb *MeetingBell) showPreferencesWindow() {
	if mb.prefsWindow != nil && mb.prefsWindow.window != nil {
		mb.prefsWindow.window.RequestFocus()
		mb.prefsWindow.window.Show()
		return
	}

	mb.prefsWindow = NewPreferencesWindow(mb.app, mb.configStore, func() {
		go mb.syncEvents()
	})
	mb.prefsWindow.window.SetOnClosed(func() {
		mb.prefsWindow = nil
	})
	mb.prefsWindow.Show()
}

// sources merges the calendars from the settings file with those added in
// the preferences window.
func (mb *MeetingBell) sources() []models.CalendarSource {
	sources := append([]models.CalendarSource{}, mb.settings.Calendars...)
	return append(sources, mb.configStore.Sources()...)
}

func (mb *MeetingBell) syncEvents() {
	mb.syncMu.Lock()
	defer mb.syncMu.Unlock()

	sources := mb.sources()
	if len(sources) == 0 {
		mb.logger.Infow("no calendars configured")
		return
	}

	events, failed, err := mb.fetcher.FetchAll(mb.ctx, sources)
	if err != nil {
		mb.logger.Warnw("keeping previous events of unreadable calendars", "failed", failed, "err", err)
	}
	mb.refresher.Refresh(mb.ctx, events, failed...)
	mb.logger.Infow("calendars synced", "events", len(events), "sources", len(sources), "failed", len(failed))

	fyne.Do(mb.updateSystemTrayMenu)
}

func (mb *MeetingBell) startBackgroundSync() error {
	mb.cron = cron.New()
	if _, err := mb.cron.AddFunc(mb.settings.RefreshSchedule, mb.syncEvents); err != nil {
		return errors.Wrapf(err, "invalid REFRESH_SCHEDULE %q", mb.settings.RefreshSchedule)
	}
	mb.cron.Start()

	go mb.syncEvents()
	return nil
}

func (mb *MeetingBell) quit() {
	if mb.cron != nil {
		<-mb.cron.Stop().Done()
	}
	mb.cancel()
	mb.scheduler.PurgeDelivered(context.Background())

	if mb.queue != nil {
		mb.queue.Close()
	}
	if mb.notifier != nil {
		if err := mb.notifier.Close(); err != nil {
			mb.logger.Debugw("failed closing session bus", "err", err)
		}
	}
	mb.app.Quit()
}

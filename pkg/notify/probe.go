package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuthorizationStatus is the permission state of the push channel
type AuthorizationStatus int

const (
	AuthorizationNotDetermined AuthorizationStatus = iota
	AuthorizationDenied
	AuthorizationAuthorized
)

// AlertStyle is how the platform presents a push notification
type AlertStyle int

const (
	AlertStyleNone AlertStyle = iota
	AlertStyleBanner
	AlertStyleAlert
)

// Settings are the platform notification settings
type Settings struct {
	Authorization AuthorizationStatus
	Style         AlertStyle
}

// Usable returns true when authorization is not denied and the style shows
// the notification to the user.
func (s Settings) Usable() bool {
	if s.Authorization == AuthorizationDenied {
		return false
	}
	return s.Style == AlertStyleAlert || s.Style == AlertStyleBanner
}

// SettingsSource queries the platform notification settings
type SettingsSource interface {
	NotificationSettings(ctx context.Context) (Settings, error)
}

// StaticSettings is a SettingsSource for platforms that cannot be queried
type StaticSettings Settings

// NotificationSettings returns s
func (s StaticSettings) NotificationSettings(context.Context) (Settings, error) {
	return Settings(s), nil
}

// Capability reports whether push notifications can currently be shown
type Capability interface {
	ChannelAvailable(ctx context.Context) bool
}

// Probe turns the asynchronous settings query into a synchronous answer.
type Probe struct {
	source  SettingsSource
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewProbe creates a Probe. A zero timeout waits as long as ctx allows.
func NewProbe(source SettingsSource, timeout time.Duration, logger *zap.SugaredLogger) *Probe {
	return &Probe{
		source:  source,
		timeout: timeout,
		logger:  logger,
	}
}

type probeResult struct {
	settings Settings
	err      error
}

// ChannelAvailable blocks until the settings arrive, the timeout elapses or
// ctx is done. Failures and timeouts count as unavailable.
func (p *Probe) ChannelAvailable(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ch := make(chan probeResult, 1)
	go func() {
		s, err := p.source.NotificationSettings(ctx)
		ch <- probeResult{settings: s, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			p.logger.Warnw("notification settings query failed", "err", r.err)
			return false
		}
		p.logger.Debugw("notification settings", "authorization", r.settings.Authorization, "style", r.settings.Style)
		return r.settings.Usable()
	case <-ctx.Done():
		p.logger.Warnw("notification settings query timed out", "err", ctx.Err())
		return false
	}
}

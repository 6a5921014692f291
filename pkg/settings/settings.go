// Package settings loads the bootstrap settings of the app from an optional
// config.yaml and the environment.
package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/borgmon/meetingbell/pkg/models"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Pending store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Settings holds all bootstrap configuration values.
type Settings struct {
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	AppID           string        `mapstructure:"APP_ID"`
	RefreshSchedule string        `mapstructure:"REFRESH_SCHEDULE"`
	ProbeTimeout    time.Duration `mapstructure:"PROBE_TIMEOUT"`
	AutoStart       bool          `mapstructure:"AUTO_START"`
	Locale          string        `mapstructure:"LOCALE"`

	// Pending reminder store.
	PendingBackend string `mapstructure:"PENDING_BACKEND"`
	PendingQueue   string `mapstructure:"PENDING_QUEUE"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`

	// Calendars read on every refresh, on top of those added at runtime.
	Calendars []models.CalendarSource `mapstructure:"CALENDARS"`
}

// IsProduction reports whether ENV is production
func (s *Settings) IsProduction() bool {
	return s.Env == "production"
}

// Load reads config.yaml from ".", "./config" and "$HOME/.meetingbell", or
// from the extra paths when given, and applies environment overrides.
// A missing config file is not an error.
func Load(paths ...string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = defaultPaths()
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ID", "com.borgmon.meetingbell")
	v.SetDefault("REFRESH_SCHEDULE", "@every 5m")
	v.SetDefault("PROBE_TIMEOUT", 2*time.Second)
	v.SetDefault("AUTO_START", false)
	v.SetDefault("LOCALE", "en")
	v.SetDefault("PENDING_BACKEND", BackendMemory)
	v.SetDefault("PENDING_QUEUE", "reminders")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CALENDARS", []models.CalendarSource{})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "decode settings")
	}

	if s.PendingBackend != BackendMemory && s.PendingBackend != BackendRedis {
		return nil, errors.Errorf("unknown PENDING_BACKEND %q", s.PendingBackend)
	}
	return s, nil
}

func defaultPaths() []string {
	paths := []string{".", "./config"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".meetingbell"))
	}
	return paths
}

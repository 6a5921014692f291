package main

import (
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func setupAutostart(enable bool, logger *zap.SugaredLogger) error {
	execPath, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "locate executable")
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return errors.Wrap(err, "resolve executable")
	}

	app := &autostart.App{
		Name:        "meetingbell",
		DisplayName: appName,
		Exec:        []string{execPath},
	}

	switch {
	case enable && !app.IsEnabled():
		if err := app.Enable(); err != nil {
			return errors.Wrap(err, "failed to enable autostart")
		}
		logger.Infow("autostart enabled", "exec", execPath)
	case !enable && app.IsEnabled():
		if err := app.Disable(); err != nil {
			return errors.Wrap(err, "failed to disable autostart")
		}
		logger.Infow("autostart disabled")
	}

	return nil
}

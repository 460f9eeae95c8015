package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg"
	"github.com/srlehn/kioskimg/config"
	"github.com/srlehn/kioskimg/display"
	"github.com/srlehn/kioskimg/internal/consts"
)

func defaultConfigFile() string { return consts.DefaultConfigFile }

// loadConfig reads the configuration file and applies the flags set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFlag, envFileFlags...)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed(`loglevel`) {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Changed(`log-file`) {
		cfg.LogFile = logFileFlag
		if logFileFlag == `-` {
			cfg.LogFile = ``
		}
	}
	if flags.Changed(`draw-mode`) {
		mode, err := display.ParseDrawMode(drawModeFlag)
		if err != nil {
			return nil, err
		}
		cfg.DrawMode = int(mode)
	}
	if flags.Changed(`drivers`) {
		cfg.VideoDrivers = driversFlag
	}
	if flags.Changed(`fb-device`) {
		cfg.FramebufferDevice = fbDeviceFlag
	}
	if f := flags.Lookup(`auto-init`); f != nil && f.Changed {
		cfg.AutoInit = 0
		if autoInitFlag {
			cfg.AutoInit = 1
		}
	}
	if f := flags.Lookup(`recovery-attempts`); f != nil && f.Changed {
		cfg.RecoveryAttempts = recoveryAttemptsFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, io.Closer) {
	return kioskimg.NewLogger(cfg, os.Stdout)
}

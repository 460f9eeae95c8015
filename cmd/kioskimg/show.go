package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg"
	"github.com/srlehn/kioskimg/internal/errors"
)

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().DurationVar(&durationFlag, `duration`, 5*time.Second, `how long to show the image, 0 waits for Escape or an interrupt`)
}

var durationFlag time.Duration

var showCmd = &cobra.Command{
	Use:   `show /path/to/image.png`,
	Short: `show a single image`,
	Long:  `initialise the display, show one image file and shut down again`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error { return show(cmd, args[0]) })
	},
}

func show(cmd *cobra.Command, path string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, logCloser := newLogger(cfg)
	defer logCloser.Close()

	disp, err := kioskimg.NewDisplay(cfg, logger)
	if err != nil {
		return err
	}
	defer disp.Shutdown()
	if !disp.Initialise() {
		return errors.Join(errors.New(`display initialization failed`), disp.LastError())
	}
	if !disp.DisplayImage(path) {
		return errors.Join(errors.New(`could not display `+path), disp.LastError())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if durationFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, durationFlag)
		defer cancel()
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if disp.PollEvents() {
				return nil
			}
		}
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg"
	"github.com/srlehn/kioskimg/agent"
	"github.com/srlehn/kioskimg/config"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/store"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&autoInitFlag, `auto-init`, false, `keep retrying the display initialization in the background`)
	runCmd.Flags().IntVar(&recoveryAttemptsFlag, `recovery-attempts`, 0, `number of background initialization attempts`)
}

var (
	autoInitFlag         bool
	recoveryAttemptsFlag int
)

var runCmd = &cobra.Command{
	Use:   `run`,
	Short: `run the display agent`,
	Long:  `connect to Redis and show the image selected by the configured key until interrupted`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAgent(ctx, cfg)
		})
	},
}

// runAgent brings up the display and the store and polls until ctx is done.
func runAgent(ctx context.Context, cfg *config.Config) error {
	logger, logCloser := newLogger(cfg)
	defer logCloser.Close()
	prov := logx.Prov(logger)
	if len(cfg.Source) == 0 {
		logx.Warn(`configuration file not found, using defaults`, prov)
	}
	logx.Info(`starting`, prov, `config`, cfg.Source, `store`, cfg.RedisAddr(), `key`, cfg.Key)

	disp, err := kioskimg.NewDisplay(cfg, logger)
	if err != nil {
		logx.IsErr(err, prov, slog.LevelError)
		return err
	}
	defer disp.Shutdown()
	if !disp.Initialise() {
		// with auto init enabled the backend keeps retrying in the background
		logx.Warn(`display initialization failed`, prov, `auto-init`, cfg.AutoInit == 1)
	}

	st := store.NewRedis(store.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	})
	defer st.Close()

	a, err := agent.New(cfg, st, disp, agent.SetLogger(logger))
	if err != nil {
		return err
	}
	if err := a.Run(ctx); err != nil {
		logx.IsErr(err, prov, slog.LevelError)
		return err
	}
	logx.Info(`shutting down`, prov)
	return nil
}

package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg/console"
	"github.com/srlehn/kioskimg/store"
)

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringVar(&hostFlag, `host`, ``, `Redis server host (default from the configuration)`)
	consoleCmd.Flags().IntVar(&portFlag, `port`, 0, `Redis server port (default from the configuration)`)
}

var (
	hostFlag string
	portFlag int
)

var consoleCmd = &cobra.Command{
	Use:   `console`,
	Short: `interactive remote console`,
	Long:  `control a running agent through the Redis server`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(hostFlag) > 0 {
				cfg.RedisHost = hostFlag
			}
			if portFlag > 0 {
				cfg.RedisPort = portFlag
			}
			st := store.NewRedis(store.Options{
				Addr:        cfg.RedisAddr(),
				Password:    cfg.RedisPassword,
				DB:          cfg.RedisDB,
				DialTimeout: 5 * time.Second,
			})
			defer st.Close()

			c := console.New(st, os.Stdin, os.Stdout)
			c.Addr = cfg.RedisHost + `:` + strconv.Itoa(cfg.RedisPort)
			c.ImageKey = cfg.Key
			c.CommandKey = cfg.CommandKey
			c.HeartbeatKey = cfg.HeartbeatKey
			c.ImagePrefix = cfg.ImagePrefix
			c.ImageExt = cfg.ImageExtension
			return c.Run(context.Background())
		})
	},
}

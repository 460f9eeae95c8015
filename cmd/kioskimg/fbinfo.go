package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg/framebuffer"
)

func init() {
	rootCmd.AddCommand(fbinfoCmd)
}

var fbinfoCmd = &cobra.Command{
	Use:   `fbinfo [device]`,
	Short: `print framebuffer geometry`,
	Long:  `print the geometry of the framebuffer device, the configured one by default`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dev := cfg.FramebufferDevice
			if len(args) == 1 {
				dev = args[0]
			}
			geom, err := framebuffer.Info(dev)
			if err != nil {
				return err
			}
			fmt.Println(dev + `: ` + geom.String())
			fmt.Printf("  visible %dx%d, virtual %dx%d\n", geom.Xres, geom.Yres, geom.XresVirtual, geom.YresVirtual)
			fmt.Printf("  %d bpp, line length %d, memory %d bytes\n", geom.BitsPerPixel, geom.LineLength, geom.SmemLen)
			return nil
		})
	},
}

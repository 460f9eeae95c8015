package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg/display"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/video"
)

func init() {
	rootCmd.AddCommand(driversCmd)
	driversCmd.Flags().BoolVarP(&probeFlag, `probe`, `p`, false, `try to initialize each candidate driver`)
}

var probeFlag bool

var driversCmd = &cobra.Command{
	Use:   `drivers`,
	Short: `list video platforms and driver candidates`,
	Long:  `list the compiled in video platforms and the video driver candidates in fallback order`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(func() error { return listDrivers(cmd) })
	},
}

func listDrivers(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	platforms := video.Available()
	fmt.Println(`platforms:`, strings.Join(platforms, `, `))
	candidates := cfg.VideoDrivers
	if len(candidates) == 0 {
		candidates = display.Drivers()
	}
	if !probeFlag {
		fmt.Println(`candidates:`, strings.Join(candidates, `, `))
		return nil
	}
	v := video.Default()
	if v == nil {
		return errors.New(`no video platform registered`)
	}
	fmt.Printf("probing with %s\n", v.Name())
	probeDriver(os.Stdout, v, `auto-detect`, ``)
	for _, driver := range candidates {
		probeDriver(os.Stdout, v, driver, driver)
	}
	return nil
}

// probeDriver initializes v with driver, reports the result and quits v again.
func probeDriver(w io.Writer, v video.Video, name, driver string) bool {
	defer v.Quit()
	if err := v.Init(driver); err != nil {
		fmt.Fprintf(w, "  %-14s failed: %v\n", name, err)
		return false
	}
	fmt.Fprintf(w, "  %-14s ok (%s)\n", name, v.CurrentDriver())
	return true
}

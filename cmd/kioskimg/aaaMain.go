package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/srlehn/kioskimg/internal/errors"

	_ "github.com/srlehn/kioskimg/resize/rdefault"
	_ "github.com/srlehn/kioskimg/video/dummyvideo"
	_ "github.com/srlehn/kioskimg/video/sdlvideo"
)

var rootCmd = &cobra.Command{
	Use:              filepath.Base(os.Args[0]),
	Short:            "kioskimg shows store selected images on a kiosk display",
	Long:             "kioskimg polls a Redis key and shows the image it names on the attached display",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	// drawing and event polling stay on the main OS thread
	runtime.LockOSThread()

	cobra.EnablePrefixMatching = true
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&debugFlag, `debug`, `d`, false, `print error stack traces`)
	pf.BoolVarP(&silentFlag, `silent`, `s`, false, `silence errors`)
	pf.StringVarP(&configFlag, `config`, `c`, ``, `configuration file (default `+defaultConfigFile()+`)`)
	pf.StringSliceVar(&envFileFlags, `env-file`, nil, `dotenv files with KIOSKIMG_ overrides`)
	pf.IntVarP(&logLevelFlag, `loglevel`, `l`, 0, `log level: 0 info, 1 warn, 2 debug`)
	pf.StringVar(&logFileFlag, `log-file`, ``, `log file, "-" logs to stdout`)
	pf.StringVar(&drawModeFlag, `draw-mode`, ``, `draw mode: texture, blit or framebuffer`)
	pf.StringSliceVar(&driversFlag, `drivers`, nil, `video driver candidates tried after auto-detection`)
	pf.StringVar(&fbDeviceFlag, `fb-device`, ``, `framebuffer device for the framebuffer draw mode`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !silentFlag {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}

var (
	debugFlag    bool
	silentFlag   bool
	configFlag   string
	envFileFlags []string
	logLevelFlag int
	logFileFlag  string
	drawModeFlag string
	driversFlag  []string
	fbDeviceFlag string
)

func run(fn func() error) {
	var err error
	if fn == nil {
		err = errors.NilParam()
	} else {
		err = fn()
	}
	if err == nil {
		return
	}
	if !silentFlag {
		if stackFramer, ok := err.(interface{ ErrorStack() string }); debugFlag && ok {
			fmt.Fprintln(os.Stderr, "\n"+stackFramer.ErrorStack())
		} else {
			fmt.Fprintln(os.Stderr, "\n"+err.Error())
		}
	}
	os.Exit(1)
}

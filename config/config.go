// Package config loads the agent configuration file.
//
// The file is JSON using the key names of the Redis image viewer configuration.
// YAML is accepted as well. Environment variables prefixed with KIOSKIMG_
// override values from the file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/srlehn/kioskimg/display"
	"github.com/srlehn/kioskimg/internal/consts"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/resize"
	"github.com/srlehn/kioskimg/surface"
)

type Config struct {
	RedisHost     string `yaml:"RedisHostIP"`
	RedisPort     int    `yaml:"RedisPort"`
	RedisPassword string `yaml:"RedisPassword"`
	RedisDB       int    `yaml:"RedisDB"`
	// Key is the store key holding the id of the image to show.
	Key        string `yaml:"KEY"`
	RefreshSec int    `yaml:"RefreshTimeGET_sec"`

	ImageFolder    string `yaml:"ImageFolder"`
	ImageExtension string `yaml:"ImageExtension"`
	ImagePrefix    string `yaml:"ImagePrefix"`

	ScreenWidth  int    `yaml:"screen_width"`
	ScreenHeight int    `yaml:"screen_height"`
	WindowTitle  string `yaml:"WindowTitle"`

	LogFile  string `yaml:"LogFile"`
	LogLevel int    `yaml:"LogLevel"`

	DrawMode          int      `yaml:"DrawMode"`
	RGBOrder          int      `yaml:"RGBOrder"`
	AutoInit          int      `yaml:"AutoInit"`
	RecoveryAttempts  int      `yaml:"RecoveryAttempts"`
	Fit               string   `yaml:"Fit"`
	Resizer           string   `yaml:"Resizer"`
	FramebufferDevice string   `yaml:"FramebufferDevice"`
	VideoDrivers      []string `yaml:"VideoDrivers"`
	HideConsole       bool     `yaml:"HideConsole"`

	HeartbeatKey     string `yaml:"HeartbeatKey"`
	CommandKey       string `yaml:"CommandKey"`
	HeartbeatSec     int    `yaml:"HeartbeatSec"`
	MaxStoreFailures int    `yaml:"MaxStoreFailures"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RedisHost:         `127.0.0.1`,
		RedisPort:         6379,
		Key:               `ImageId`,
		RefreshSec:        2,
		ImageFolder:       filepath.Join(consts.DefaultDataDir, `images`) + string(filepath.Separator),
		ImageExtension:    `.png`,
		ImagePrefix:       `img`,
		ScreenWidth:       800,
		ScreenHeight:      600,
		WindowTitle:       `Redis Image Viewer`,
		LogFile:           filepath.Join(consts.DefaultDataDir, `log.txt`),
		Fit:               resize.FitNone.String(),
		Resizer:           `default`,
		FramebufferDevice: consts.DefaultFramebufferDevice,
		RecoveryAttempts:  display.DefaultRecoveryAttempts,
		HeartbeatKey:      `App:Heartbeat`,
		CommandKey:        `App:Command`,
		HeartbeatSec:      5,
	}
}

// Load reads the configuration file at path on top of the defaults.
// A missing file keeps the defaults. Variables from the dotenv files are
// used for overrides unless already set in the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if len(path) == 0 {
		path = consts.DefaultConfigFile
	}
	if err := cfg.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	lookup := os.LookupEnv
	if len(envFiles) > 0 {
		env, err := godotenv.Read(envFiles...)
		if err != nil {
			return nil, errors.New(err)
		}
		lookup = func(key string) (string, bool) {
			if val, ok := os.LookupEnv(key); ok {
				return val, true
			}
			val, ok := env[key]
			return val, ok
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the file at path into c. Keys absent from the file keep their value.
func (c *Config) LoadFile(path string) error {
	if c == nil {
		return errors.NilReceiver()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.New(err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.New(`parse ` + path + `: ` + err.Error())
	}
	c.Source = path
	return nil
}

// environment variables overriding file values
const (
	EnvRedisHost   = `KIOSKIMG_REDIS_HOST`
	EnvRedisPort   = `KIOSKIMG_REDIS_PORT`
	EnvKey         = `KIOSKIMG_KEY`
	EnvImageFolder = `KIOSKIMG_IMAGE_FOLDER`
	EnvDrawMode    = `KIOSKIMG_DRAW_MODE`
	EnvLogFile     = `KIOSKIMG_LOG_FILE`
	EnvLogLevel    = `KIOSKIMG_LOG_LEVEL`
)

func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if c == nil {
		return errors.NilReceiver()
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if val, ok := lookup(key); ok && len(val) > 0 {
			*dst = val
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		val, ok := lookup(key)
		if !ok || len(val) == 0 {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			errs = append(errs, errors.New(key+`: `+err.Error()))
			return
		}
		*dst = n
	}
	str(EnvRedisHost, &c.RedisHost)
	num(EnvRedisPort, &c.RedisPort)
	str(EnvKey, &c.Key)
	str(EnvImageFolder, &c.ImageFolder)
	if val, ok := lookup(EnvDrawMode); ok && len(val) > 0 {
		mode, err := display.ParseDrawMode(val)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.DrawMode = int(mode)
		}
	}
	str(EnvLogFile, &c.LogFile)
	num(EnvLogLevel, &c.LogLevel)
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.NilReceiver()
	}
	var errs []error
	if len(c.RedisHost) == 0 {
		errs = append(errs, errors.New(`RedisHostIP must not be empty`))
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		errs = append(errs, errors.New(`RedisPort out of range: `+strconv.Itoa(c.RedisPort)))
	}
	if len(c.Key) == 0 {
		errs = append(errs, errors.New(`KEY must not be empty`))
	}
	if c.RefreshSec <= 0 {
		errs = append(errs, errors.New(`RefreshTimeGET_sec must be positive`))
	}
	if c.HeartbeatSec < 0 {
		errs = append(errs, errors.New(`HeartbeatSec must not be negative`))
	}
	if c.LogLevel < 0 || c.LogLevel > 2 {
		errs = append(errs, errors.New(`LogLevel must be 0 (info), 1 (warn) or 2 (debug)`))
	}
	if c.AutoInit != 0 && c.AutoInit != 1 {
		errs = append(errs, errors.New(`AutoInit must be 0 or 1`))
	}
	if _, err := resize.ParseFit(c.Fit); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Display(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Display returns the record consumed by the display backend.
func (c *Config) Display() (display.Config, error) {
	fit, err := resize.ParseFit(c.Fit)
	if err != nil {
		return display.Config{}, err
	}
	dc := display.DefaultConfig()
	dc.Title = c.WindowTitle
	dc.Width = c.ScreenWidth
	dc.Height = c.ScreenHeight
	dc.DrawMode = display.DrawMode(c.DrawMode)
	dc.RGBOrder = surface.Order(c.RGBOrder)
	dc.AutoRecovery = c.AutoInit == 1
	dc.Recovery.MaxAttempts = c.RecoveryAttempts
	dc.Fit = fit
	dc.Resizer = c.Resizer
	dc.FramebufferDevice = c.FramebufferDevice
	dc.HideConsole = c.HideConsole
	if err := dc.Validate(); err != nil {
		return display.Config{}, err
	}
	return dc, nil
}

// ImagePath forms the file path of the image with the given id.
// The parts are concatenated as is, so ImageFolder needs a trailing separator.
func (c *Config) ImagePath(id string) string {
	return c.ImageFolder + c.ImagePrefix + id + c.ImageExtension
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + `:` + strconv.Itoa(c.RedisPort)
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSec) * time.Second
}

// HeartbeatInterval is zero if heartbeats are disabled.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSec) * time.Second
}

// Package agent runs the polling loop that keeps the display in sync with the store.
package agent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/srlehn/kioskimg/config"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/store"
)

// Display is the part of the display backend driven by the agent.
type Display interface {
	Initialise() bool
	DisplayImage(path string) bool
	Shutdown()
	IsInitialized() bool
	PollEvents() (quit bool)
}

// remote commands read from the command key
const (
	CommandRefresh  = `refresh`
	CommandReinit   = `reinit`
	CommandQuit     = `quit`
	CommandShutdown = `shutdown`
)

// keys the configuration is published under
const (
	KeyConfigRedisHost       = `Config:RedisHost`
	KeyConfigRedisPort       = `Config:RedisPort`
	KeyConfigImageFolder     = `Config:ImageFolder`
	KeyConfigRefreshInterval = `Config:RefreshInterval`
	KeyConfigScreenWidth     = `Config:ScreenWidth`
	KeyConfigScreenHeight    = `Config:ScreenHeight`
)

// ConfigKeys lists the published configuration keys in publishing order.
var ConfigKeys = []string{
	KeyConfigRedisHost,
	KeyConfigRedisPort,
	KeyConfigImageFolder,
	KeyConfigRefreshInterval,
	KeyConfigScreenWidth,
	KeyConfigScreenHeight,
}

// DefaultPollInterval paces event polling.
const DefaultPollInterval = 100 * time.Millisecond

// ErrStoreUnavailable is returned by Run when the store failure budget is used up.
var ErrStoreUnavailable = errors.New(`store unavailable`)

var errStop = errors.New(`stop requested`)

type Agent struct {
	cfg     *config.Config
	store   store.Store
	display Display
	logger  *slog.Logger

	pollInterval      time.Duration
	refreshInterval   time.Duration
	heartbeatInterval time.Duration
	now               func() time.Time

	lastID   string
	failures int
}

var _ logx.LoggerProvider = (*Agent)(nil)

func New(cfg *config.Config, st store.Store, disp Display, opts ...Option) (*Agent, error) {
	if cfg == nil || st == nil || disp == nil {
		return nil, errors.NilParam()
	}
	a := &Agent{
		cfg:               cfg,
		store:             st,
		display:           disp,
		pollInterval:      DefaultPollInterval,
		refreshInterval:   cfg.RefreshInterval(),
		heartbeatInterval: cfg.HeartbeatInterval(),
		now:               time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(a); err != nil {
			return nil, errors.New(err)
		}
	}
	if a.pollInterval <= 0 || a.refreshInterval <= 0 {
		return nil, errors.New(`poll and refresh intervals must be positive`)
	}
	return a, nil
}

type Option func(*Agent) error

func SetLogger(logger *slog.Logger) Option {
	return func(a *Agent) error { a.logger = logger; return nil }
}

func SetPollInterval(d time.Duration) Option {
	return func(a *Agent) error { a.pollInterval = d; return nil }
}

func SetRefreshInterval(d time.Duration) Option {
	return func(a *Agent) error { a.refreshInterval = d; return nil }
}

// SetHeartbeatInterval sets the heartbeat pace, zero disables heartbeats.
func SetHeartbeatInterval(d time.Duration) Option {
	return func(a *Agent) error { a.heartbeatInterval = d; return nil }
}

func SetClock(now func() time.Time) Option {
	return func(a *Agent) error {
		if now == nil {
			return errors.NilParam()
		}
		a.now = now
		return nil
	}
}

func (a *Agent) Logger() *slog.Logger {
	if a == nil || a.logger == nil {
		return logx.Nop()
	}
	return a.logger
}

// LastID is the id of the image currently shown.
func (a *Agent) LastID() string { return a.lastID }

// Run connects to the store and polls it until ctx is done, a quit is
// requested by the window or the store, or the store failure budget is used up.
// The caller shuts the display down afterwards.
func (a *Agent) Run(ctx context.Context) error {
	if a == nil {
		return errors.NilReceiver()
	}
	if err := a.connect(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	a.publishConfig(ctx)

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	var lastRefresh, lastHeartbeat time.Time
	for {
		if a.display.PollEvents() {
			logx.Info(`quit requested by window`, a)
			return nil
		}
		now := a.now()
		if lastRefresh.IsZero() || now.Sub(lastRefresh) >= a.refreshInterval {
			lastRefresh = now
			if err := a.refresh(ctx); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}
		if a.heartbeatInterval > 0 && (lastHeartbeat.IsZero() || now.Sub(lastHeartbeat) >= a.heartbeatInterval) {
			lastHeartbeat = now
			if err := a.storeResult(a.heartbeat(ctx)); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			logx.Info(`agent stopped`, a)
			return nil
		case <-ticker.C:
		}
	}
}

// connect pings the store until it answers, waiting the refresh interval between tries.
func (a *Agent) connect(ctx context.Context) error {
	for {
		err := a.store.Ping(ctx)
		if err == nil {
			logx.Info(`connected to store`, a, `addr`, a.cfg.RedisAddr())
			a.failures = 0
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := a.storeResult(err); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.refreshInterval):
		}
	}
}

// refresh processes remote commands and shows the image named by the key if it changed.
func (a *Agent) refresh(ctx context.Context) error {
	if err := a.handleCommand(ctx); err != nil {
		if errors.Is(err, errStop) {
			return err
		}
		return a.storeResult(err)
	}
	return a.storeResult(a.update(ctx))
}

func (a *Agent) update(ctx context.Context) error {
	id, found, err := a.store.Get(ctx, a.cfg.Key)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if !found || len(id) == 0 || id == a.lastID {
		return nil
	}
	path := a.cfg.ImagePath(id)
	if !a.display.DisplayImage(path) {
		logx.Warn(`could not display image`, a, `id`, id, `path`, path)
		return nil
	}
	logx.Info(`image changed`, a, `id`, id, `previous`, a.lastID)
	a.lastID = id
	return nil
}

func (a *Agent) handleCommand(ctx context.Context) error {
	if len(a.cfg.CommandKey) == 0 {
		return nil
	}
	cmd, found, err := a.store.Get(ctx, a.cfg.CommandKey)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if _, err := a.store.Del(ctx, a.cfg.CommandKey); err != nil {
		return err
	}
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	logx.Info(`received remote command`, a, `command`, cmd)
	switch cmd {
	case ``:
	case CommandRefresh:
		a.lastID = ``
	case CommandReinit:
		a.display.Shutdown()
		if !a.display.Initialise() {
			logx.Warn(`display reinitialization failed`, a)
		}
		a.lastID = ``
	case CommandQuit, CommandShutdown:
		return errStop
	default:
		logx.Warn(`unknown remote command`, a, `command`, cmd)
	}
	return nil
}

func (a *Agent) heartbeat(ctx context.Context) error {
	return a.store.Set(ctx, a.cfg.HeartbeatKey, a.now().Format(time.RFC3339))
}

func (a *Agent) publishConfig(ctx context.Context) {
	values := [][2]string{
		{KeyConfigRedisHost, a.cfg.RedisHost},
		{KeyConfigRedisPort, strconv.Itoa(a.cfg.RedisPort)},
		{KeyConfigImageFolder, a.cfg.ImageFolder},
		{KeyConfigRefreshInterval, strconv.Itoa(a.cfg.RefreshSec)},
		{KeyConfigScreenWidth, strconv.Itoa(a.cfg.ScreenWidth)},
		{KeyConfigScreenHeight, strconv.Itoa(a.cfg.ScreenHeight)},
	}
	for _, kv := range values {
		if err := a.store.Set(ctx, kv[0], kv[1]); err != nil {
			logx.IsErr(err, a, slog.LevelWarn)
			return
		}
	}
}

// storeResult counts consecutive store failures. It returns an error once
// MaxStoreFailures failures happened in a row, if that limit is set.
func (a *Agent) storeResult(err error) error {
	if err == nil {
		if a.failures > 0 {
			logx.Info(`store connection restored`, a, `failures`, a.failures)
		}
		a.failures = 0
		return nil
	}
	a.failures++
	logx.IsErr(err, a, slog.LevelWarn, `consecutive-failures`, a.failures)
	if limit := a.cfg.MaxStoreFailures; limit > 0 && a.failures >= limit {
		return errors.Join(ErrStoreUnavailable, errors.New(strconv.Itoa(a.failures)+` consecutive failures, last: `+err.Error()))
	}
	return nil
}

// Package console is the interactive remote control for a running agent.
// It talks to the agent only through the store.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/srlehn/kioskimg/agent"
	"github.com/srlehn/kioskimg/internal/errors"
	"github.com/srlehn/kioskimg/internal/logx"
	"github.com/srlehn/kioskimg/store"
)

// Store is the store access needed by the console.
type Store interface {
	store.Store
	Info(ctx context.Context, sections ...string) (map[string]string, error)
	DBSize(ctx context.Context) (int64, error)
}

var _ Store = (*store.Redis)(nil)

const prompt = `redis-console> `

type Console struct {
	Store Store
	In    io.Reader
	Out   io.Writer
	// Addr is shown in the banner.
	Addr string

	ImageKey     string
	CommandKey   string
	HeartbeatKey string
	ImagePrefix  string
	ImageExt     string
	// MaxID is the highest image id accepted by set_image.
	MaxID int

	Log *slog.Logger

	running  bool
	commands map[string]func(ctx context.Context, args []string)
}

// New returns a console with the key names the agent uses by default.
func New(st Store, in io.Reader, out io.Writer) *Console {
	return &Console{
		Store:        st,
		In:           in,
		Out:          out,
		ImageKey:     `Image:Id`,
		CommandKey:   `App:Command`,
		HeartbeatKey: `App:Heartbeat`,
		ImagePrefix:  `img`,
		ImageExt:     `.png`,
		MaxID:        5,
	}
}

func (c *Console) Logger() *slog.Logger {
	if c == nil || c.Log == nil {
		return logx.Nop()
	}
	return c.Log
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	header    = color.New(color.FgCyan, color.Bold)
	dim       = color.New(color.FgHiBlack)
)

func (c *Console) okf(format string, a ...any) { okColor.Fprintf(c.Out, `✓ `+format+"\n", a...) }
func (c *Console) failf(format string, a ...any) { failColor.Fprintf(c.Out, `✗ `+format+"\n", a...) }
func (c *Console) warnf(format string, a ...any) { warnColor.Fprintf(c.Out, `⚠ `+format+"\n", a...) }
func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.Out, format+"\n", a...)
}

func (c *Console) setup() {
	if c.commands != nil {
		return
	}
	c.commands = map[string]func(context.Context, []string){
		`help`:        c.help,
		`status`:      c.status,
		`set_image`:   c.setImage,
		`get_image`:   c.getImage,
		`list_images`: c.listImages,
		`config`:      c.config,
		`ping`:        c.ping,
		`stats`:       c.stats,
		`clear`:       c.clear,
		`exit`:        c.exit,
		`quit`:        c.exit,
	}
}

// Run checks the connection and then reads commands until exit, quit or end of input.
func (c *Console) Run(ctx context.Context) error {
	if c == nil || c.Store == nil || c.In == nil || c.Out == nil {
		return errors.NilReceiver()
	}
	c.setup()
	if err := c.Store.Ping(ctx); err != nil {
		c.failf(`Failed to connect to Redis: %v`, err)
		return errors.New(err)
	}
	c.okf(`Connected to Redis server at %s`, c.Addr)
	header.Fprintf(c.Out, "\nRedis Image Viewer Console - Connected to %s\n", c.Addr)
	c.printf(`Type 'help' for available commands`)

	c.running = true
	scanner := bufio.NewScanner(c.In)
	for c.running {
		fmt.Fprint(c.Out, "\n"+prompt)
		if !scanner.Scan() {
			c.printf("\n\nExiting...")
			break
		}
		if ctx.Err() != nil {
			break
		}
		c.Exec(ctx, scanner.Text())
	}
	return scanner.Err()
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string) {
	c.setup()
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	fn, found := c.commands[cmd]
	if !found {
		c.printf(`Unknown command: %s`, cmd)
		c.printf(`Type 'help' for available commands`)
		return
	}
	logx.Debug(`console command`, c, `command`, cmd)
	fn(ctx, fields[1:])
}

// Running reports whether the read loop continues.
func (c *Console) Running() bool { return c.running }

func (c *Console) help(context.Context, []string) {
	header.Fprintln(c.Out, `Redis Image Viewer Console`)
	lines := [][2]string{
		{`help`, `Show this help message`},
		{`status`, `Get application status`},
		{`set_image <id>`, `Set current image by ID (0-` + strconv.Itoa(c.MaxID) + `)`},
		{`get_image`, `Get current image ID`},
		{`list_images`, `List available images`},
		{`config`, `Show application configuration`},
		{`ping`, `Ping Redis server`},
		{`stats`, `Show Redis server statistics`},
		{`clear`, `Clear console screen`},
		{`exit/quit`, `Exit console`},
	}
	for _, l := range lines {
		c.printf(`  %-20s - %s`, l[0], l[1])
	}
}

func (c *Console) status(ctx context.Context, _ []string) {
	hb, found, err := c.Store.Get(ctx, c.HeartbeatKey)
	if err != nil {
		c.failf(`Error getting status: %v`, err)
		return
	}
	if found && len(hb) > 0 {
		c.okf(`Application Status: RUNNING (Last heartbeat: %s)`, hb)
	} else {
		c.warnf(`Application Status: UNKNOWN (No heartbeat found)`)
	}
	id, found, err := c.Store.Get(ctx, c.ImageKey)
	if err != nil {
		c.failf(`Error getting status: %v`, err)
		return
	}
	if found && len(id) > 0 {
		c.printf(`Current Image ID: %s`, id)
	} else {
		c.printf(`Current Image ID: Not set`)
	}
}

func (c *Console) setImage(ctx context.Context, args []string) {
	if len(args) == 0 {
		c.printf(`Usage: set_image <id>`)
		c.printf(`Available IDs: %s`, strings.Join(c.ids(), `, `))
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		c.failf(`Invalid image ID. Please enter a number 0-%d`, c.MaxID)
		return
	}
	if id < 0 || id > c.MaxID {
		c.failf(`Invalid image ID. Use 0-%d`, c.MaxID)
		return
	}
	if err := c.Store.Set(ctx, c.ImageKey, strconv.Itoa(id)); err != nil {
		c.failf(`Error setting image: %v`, err)
		return
	}
	c.okf(`Set current image to: %s`, c.imageName(strconv.Itoa(id)))
	if err := c.Store.Set(ctx, c.CommandKey, `refresh`); err != nil {
		c.failf(`Error setting image: %v`, err)
		return
	}
	c.okf(`Sent refresh command to application`)
}

func (c *Console) getImage(ctx context.Context, _ []string) {
	id, found, err := c.Store.Get(ctx, c.ImageKey)
	if err != nil {
		c.failf(`Error getting current image: %v`, err)
		return
	}
	if !found || len(id) == 0 {
		c.printf(`No image currently set`)
		return
	}
	c.printf(`Current Image: %s (ID: %s)`, c.imageName(id), id)
}

func (c *Console) listImages(ctx context.Context, _ []string) {
	current, _, err := c.Store.Get(ctx, c.ImageKey)
	if err != nil {
		c.failf(`Error getting current image: %v`, err)
		return
	}
	header.Fprintln(c.Out, "\nAvailable Images:")
	for _, id := range c.ids() {
		marker := ``
		if id == current {
			marker = ` <- CURRENT`
		}
		c.printf(`  %s: %s - Sample Image %s%s`, id, c.imageName(id), id, marker)
	}
}

func (c *Console) config(ctx context.Context, _ []string) {
	header.Fprintln(c.Out, "\nApplication Configuration:")
	for _, key := range agent.ConfigKeys {
		val, found, err := c.Store.Get(ctx, key)
		if err != nil {
			c.failf(`Error getting configuration: %v`, err)
			return
		}
		if found && len(val) > 0 {
			c.printf(`  %s: %s`, strings.TrimPrefix(key, `Config:`), val)
		}
	}
}

func (c *Console) ping(ctx context.Context, _ []string) {
	start := time.Now()
	if err := c.Store.Ping(ctx); err != nil {
		c.failf(`Redis ping failed: %v`, err)
		return
	}
	latency := time.Since(start)
	c.okf(`PONG - Redis server is responding (latency: %.2fms)`, float64(latency.Microseconds())/1000)
}

func (c *Console) stats(ctx context.Context, _ []string) {
	info, err := c.Store.Info(ctx)
	if err != nil {
		c.failf(`Error getting Redis stats: %v`, err)
		return
	}
	keys, err := c.Store.DBSize(ctx)
	if err != nil {
		c.failf(`Error getting Redis stats: %v`, err)
		return
	}
	get := func(k, def string) string {
		if v, found := info[k]; found {
			return v
		}
		return def
	}
	header.Fprintln(c.Out, "\nRedis Server Statistics:")
	c.printf(`  Version: %s`, get(`redis_version`, `Unknown`))
	c.printf(`  Uptime: %s seconds`, get(`uptime_in_seconds`, `0`))
	c.printf(`  Connected clients: %s`, get(`connected_clients`, `0`))
	c.printf(`  Used memory: %s`, get(`used_memory_human`, `Unknown`))
	c.printf(`  Total keys: %d`, keys)
	if len(info) > 0 {
		logx.Debug(`server info`, c, `fields`, sortedKeys(info))
	}
}

func (c *Console) clear(context.Context, []string) {
	fmt.Fprint(c.Out, "\033[H\033[2J")
}

func (c *Console) exit(context.Context, []string) {
	c.running = false
	dim.Fprintln(c.Out, `Goodbye!`)
}

func (c *Console) ids() []string {
	ids := make([]string, 0, c.MaxID+1)
	for i := 0; i <= c.MaxID; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

func (c *Console) imageName(id string) string { return c.ImagePrefix + id + c.ImageExt }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

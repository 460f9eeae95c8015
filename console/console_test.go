package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/agent"
	"github.com/srlehn/kioskimg/console"
	"github.com/srlehn/kioskimg/store"
)

func newConsole(t *testing.T, input string) (*console.Console, *miniredis.Miniredis, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	mr := miniredis.RunT(t)
	st := store.NewRedis(store.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = st.Close() })
	out := &bytes.Buffer{}
	c := console.New(st, strings.NewReader(input), out)
	c.Addr = mr.Addr()
	return c, mr, out
}

func TestSetImage(t *testing.T) {
	c, mr, out := newConsole(t, ``)
	c.Exec(context.Background(), `set_image 3`)
	mr.CheckGet(t, `Image:Id`, `3`)
	mr.CheckGet(t, `App:Command`, `refresh`)
	assert.Contains(t, out.String(), `Set current image to: img3.png`)
}

func TestSetImageInvalid(t *testing.T) {
	c, mr, out := newConsole(t, ``)
	ctx := context.Background()
	for _, line := range []string{`set_image 6`, `set_image -1`, `set_image x`, `set_image`} {
		c.Exec(ctx, line)
	}
	assert.False(t, mr.Exists(`Image:Id`))
	assert.False(t, mr.Exists(`App:Command`))
	s := out.String()
	assert.Contains(t, s, `Invalid image ID. Use 0-5`)
	assert.Contains(t, s, `Please enter a number 0-5`)
	assert.Contains(t, s, `Available IDs: 0, 1, 2, 3, 4, 5`)
}

func TestStatusAndGetImage(t *testing.T) {
	c, mr, out := newConsole(t, ``)
	ctx := context.Background()
	c.Exec(ctx, `status`)
	c.Exec(ctx, `get_image`)
	assert.Contains(t, out.String(), `UNKNOWN (No heartbeat found)`)
	assert.Contains(t, out.String(), `Current Image ID: Not set`)
	assert.Contains(t, out.String(), `No image currently set`)

	out.Reset()
	require.NoError(t, mr.Set(`App:Heartbeat`, `2026-10-19T12:00:00Z`))
	require.NoError(t, mr.Set(`Image:Id`, `2`))
	c.Exec(ctx, `STATUS`)
	c.Exec(ctx, `get_image`)
	c.Exec(ctx, `list_images`)
	s := out.String()
	assert.Contains(t, s, `RUNNING (Last heartbeat: 2026-10-19T12:00:00Z)`)
	assert.Contains(t, s, `Current Image: img2.png (ID: 2)`)
	assert.Contains(t, s, `2: img2.png - Sample Image 2 <- CURRENT`)
	assert.NotContains(t, s, `1: img1.png - Sample Image 1 <- CURRENT`)
}

func TestConfig(t *testing.T) {
	c, mr, out := newConsole(t, ``)
	require.NoError(t, mr.Set(`Config:RedisPort`, `6379`))
	require.NoError(t, mr.Set(`Config:ScreenWidth`, `800`))
	c.Exec(context.Background(), `config`)
	assert.Contains(t, out.String(), `RedisPort: 6379`)
	assert.Contains(t, out.String(), `ScreenWidth: 800`)
	assert.NotContains(t, out.String(), `ImageFolder`)
}

func TestRun(t *testing.T) {
	c, mr, out := newConsole(t, "help\n\nping\nbogus\nset_image 1\nquit\nset_image 4\n")
	require.NoError(t, c.Run(context.Background()))
	s := out.String()
	assert.Contains(t, s, `Connected to Redis server at `+mr.Addr())
	assert.Contains(t, s, `set_image <id>`)
	assert.Contains(t, s, `PONG`)
	assert.Contains(t, s, `Unknown command: bogus`)
	assert.Contains(t, s, `Goodbye!`)
	assert.False(t, c.Running())
	mr.CheckGet(t, `Image:Id`, `1`)
}

func TestRunEndOfInput(t *testing.T) {
	c, _, out := newConsole(t, "get_image")
	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), `No image currently set`)
	assert.Contains(t, out.String(), `Exiting...`)
}

func TestRunUnreachable(t *testing.T) {
	c, mr, out := newConsole(t, "help\n")
	mr.Close()
	assert.Error(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), `Failed to connect to Redis`)
}

func TestConfigShowsPublishedKeys(t *testing.T) {
	c, mr, out := newConsole(t, ``)
	for _, key := range agent.ConfigKeys {
		require.NoError(t, mr.Set(key, `v-`+key))
	}
	c.Exec(context.Background(), `config`)
	for _, key := range agent.ConfigKeys {
		assert.Contains(t, out.String(), strings.TrimPrefix(key, `Config:`)+`: v-`+key)
	}
}

package display

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srlehn/kioskimg/surface"
)

func TestParseDrawMode(t *testing.T) {
	for in, want := range map[string]DrawMode{
		`0`: AcceleratedTexture, `texture`: AcceleratedTexture,
		`1`: SurfaceBlit, `Blit`: SurfaceBlit,
		`2`: RawFramebuffer, `fb`: RawFramebuffer, ` framebuffer `: RawFramebuffer,
	} {
		got, err := ParseDrawMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDrawMode(`3`)
	assert.Error(t, err)
	assert.Equal(t, `drawmode(3)`, DrawMode(3).String())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Width = 0
	cfg.DrawMode = DrawMode(-1)
	cfg.RGBOrder = surface.Order(2)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `window dimensions`)
	assert.Contains(t, err.Error(), `draw mode`)
	assert.Contains(t, err.Error(), `rgb order`)

	_, err = New(cfg, newRecordingVideo())
	assert.Error(t, err)
}

func TestRecoveryConfigDefaults(t *testing.T) {
	c := RecoveryConfig{}.withDefaults()
	assert.Equal(t, RecoveryConfig{MaxAttempts: 10, Interval: 5 * time.Second, Tick: 100 * time.Millisecond}, c)

	c = RecoveryConfig{Interval: 10 * time.Millisecond}.withDefaults()
	assert.Equal(t, 10*time.Millisecond, c.Tick)
}

func TestTickSchedulerWait(t *testing.T) {
	s := TickScheduler{Tick: 5 * time.Millisecond}
	start := time.Now()
	require.NoError(t, s.Wait(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start = time.Now()
	err := TickScheduler{Tick: 10 * time.Millisecond}.Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRecoveryTaskStates(t *testing.T) {
	var task recoveryTask
	state, outcome := task.State()
	assert.Equal(t, RecoveryIdle, state)
	assert.Equal(t, OutcomeNone, outcome)
	assert.NotPanics(t, task.RequestCancel)
	task.Join()

	calls := 0
	task.Start(RecoveryConfig{MaxAttempts: 5}, instantScheduler{}, nil, func(context.Context) error {
		calls++
		if calls < 4 {
			return context.DeadlineExceeded
		}
		return nil
	})
	task.Join()
	state, outcome = task.State()
	assert.Equal(t, RecoveryStopped, state)
	assert.Equal(t, OutcomeSucceeded, outcome)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, task.Attempts())
	assert.Equal(t, `succeeded`, outcome.String())
	assert.Equal(t, `stopped`, state.String())
}

func TestDriverList(t *testing.T) {
	t.Cleanup(ResetDriverList)
	assert.Equal(t, []string{`fbcon`, `kmsdrm`, `fbdev`, `directfb`, `x11`, `wayland`, `dummy`}, Drivers())

	DisableDriver(` directfb `)
	DisableDriver(`unknown`)
	assert.Equal(t, []string{`fbcon`, `kmsdrm`, `fbdev`, `x11`, `wayland`, `dummy`}, Drivers())

	ResetDriverList()
	assert.Len(t, Drivers(), 7)
}

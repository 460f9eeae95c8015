package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/srlehn/kioskimg/internal/logx"
)

type RecoveryState int

const (
	RecoveryIdle RecoveryState = iota
	RecoveryRetrying
	RecoveryStopped
)

func (s RecoveryState) String() string {
	switch s {
	case RecoveryRetrying:
		return `retrying`
	case RecoveryStopped:
		return `stopped`
	default:
		return `idle`
	}
}

// RecoveryOutcome is the reason a recovery run stopped.
type RecoveryOutcome int

const (
	OutcomeNone RecoveryOutcome = iota
	OutcomeSucceeded
	OutcomeExhausted
	OutcomeCancelled
)

func (o RecoveryOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return `succeeded`
	case OutcomeExhausted:
		return `exhausted`
	case OutcomeCancelled:
		return `cancelled`
	default:
		return `none`
	}
}

// Scheduler waits between two recovery attempts.
type Scheduler interface {
	// Wait pauses for d and returns ctx.Err() if ctx is done before.
	Wait(ctx context.Context, d time.Duration) error
}

// TickScheduler waits in ticks so a cancellation is noticed within one tick.
type TickScheduler struct {
	Tick time.Duration
}

var _ Scheduler = TickScheduler{}

func (s TickScheduler) Wait(ctx context.Context, d time.Duration) error {
	tick := s.Tick
	if tick <= 0 {
		tick = DefaultRecoveryTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for waited := time.Duration(0); waited < d; waited += tick {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return ctx.Err()
}

// recoveryTask retries the driver selection in the background.
// At most one run is alive at a time.
type recoveryTask struct {
	mu      sync.Mutex
	state   RecoveryState
	outcome RecoveryOutcome
	tries   int
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Start begins a new run, cancelling and joining a previous one first.
// attempt is called up to cfg.MaxAttempts times, paced by sched, until it succeeds.
func (t *recoveryTask) Start(cfg RecoveryConfig, sched Scheduler, logProv logx.LoggerProvider, attempt func(ctx context.Context) error) {
	t.RequestCancel()
	t.Join()

	cfg = cfg.withDefaults()
	if sched == nil {
		sched = TickScheduler{Tick: cfg.Tick}
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.state = RecoveryRetrying
	t.outcome = OutcomeNone
	t.tries = 0
	t.cancel = cancel
	t.mu.Unlock()

	logx.Info(`auto recovery started`, logProv, `max-attempts`, cfg.MaxAttempts, `interval`, cfg.Interval)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.stop(t.run(ctx, cfg, sched, logProv, attempt))
	}()
}

func (t *recoveryTask) run(ctx context.Context, cfg RecoveryConfig, sched Scheduler, logProv logx.LoggerProvider, attempt func(ctx context.Context) error) RecoveryOutcome {
	for i := 1; i <= cfg.MaxAttempts; i++ {
		if ctx.Err() != nil {
			logx.Info(`auto recovery cancelled`, logProv, `attempts`, i-1)
			return OutcomeCancelled
		}
		logx.Info(`auto recovery attempt`, logProv, `attempt`, i, `max-attempts`, cfg.MaxAttempts)
		t.mu.Lock()
		t.tries = i
		t.mu.Unlock()
		err := attempt(ctx)
		if err == nil {
			logx.Info(`auto recovery succeeded`, logProv, `attempt`, i)
			return OutcomeSucceeded
		}
		logx.IsErr(err, logProv, slog.LevelWarn, `attempt`, i)
		if i == cfg.MaxAttempts {
			break
		}
		if err := sched.Wait(ctx, cfg.Interval); err != nil {
			logx.Info(`auto recovery cancelled`, logProv, `attempts`, i)
			return OutcomeCancelled
		}
	}
	logx.Error(`auto recovery gave up`, logProv, `attempts`, cfg.MaxAttempts)
	return OutcomeExhausted
}

func (t *recoveryTask) stop(outcome RecoveryOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = RecoveryStopped
	t.outcome = outcome
}

// RequestCancel asks a running run to stop. It does not wait.
func (t *recoveryTask) RequestCancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// Join waits for the current run to end.
func (t *recoveryTask) Join() { t.wg.Wait() }

func (t *recoveryTask) State() (RecoveryState, RecoveryOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.outcome
}

// Attempts is the number of attempts of the current or last run.
func (t *recoveryTask) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tries
}

package display

import (
	"log/slog"
	"os"

	"github.com/srlehn/kioskimg/framebuffer"
	"github.com/srlehn/kioskimg/internal/errors"
)

type Option interface {
	ApplyOption(b *Backend) error
}

var _ Option = (OptFunc)(nil)

type OptFunc func(*Backend) error

func (o OptFunc) ApplyOption(b *Backend) error { return o(b) }

var _ Option = (Options)(nil)

type Options []Option

func (o Options) ApplyOption(b *Backend) error { return b.SetOptions([]Option(o)...) }

func (b *Backend) SetOptions(opts ...Option) error {
	if b == nil {
		return errors.NilReceiver()
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(b); err != nil {
			return errors.New(err)
		}
	}
	return nil
}

// SetLogger sets the log sink. nil discards log records.
func SetLogger(logger *slog.Logger) Option {
	return OptFunc(func(b *Backend) error { b.logger = logger; return nil })
}

func SetSLogger(h slog.Handler, enable bool) Option {
	return OptFunc(func(b *Backend) error {
		if enable {
			if h == nil {
				b.logger = slog.Default()
			} else {
				b.logger = slog.New(h)
			}
		} else {
			b.logger = nil
		}
		return nil
	})
}

// SetCandidates replaces the drivers tried after auto-detection failed.
func SetCandidates(drivers ...string) Option {
	return OptFunc(func(b *Backend) error { b.candidates = append([]string{}, drivers...); return nil })
}

// SetScheduler replaces the pause between recovery attempts.
func SetScheduler(s Scheduler) Option {
	return OptFunc(func(b *Backend) error {
		if s == nil {
			return errors.NilParam()
		}
		b.scheduler = s
		return nil
	})
}

// SetFramebufferWriter replaces the writer of the raw framebuffer strategy.
func SetFramebufferWriter(w *framebuffer.Writer) Option {
	return OptFunc(func(b *Backend) error {
		if w == nil {
			return errors.NilParam()
		}
		b.fbWriter = w
		return nil
	})
}

// SetLookupEnv replaces os.LookupEnv for the display session detection.
func SetLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return OptFunc(func(b *Backend) error {
		if lookupEnv == nil {
			lookupEnv = os.LookupEnv
		}
		b.lookupEnv = lookupEnv
		return nil
	})
}

// SetConsoleSwitcher replaces the virtual console mode switch used with HideConsole.
func SetConsoleSwitcher(fn func() (interface{ Close() error }, error)) Option {
	return OptFunc(func(b *Backend) error { b.hideConsole = fn; return nil })
}

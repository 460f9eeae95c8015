package internal

import (
	"reflect"
	"sync"

	"github.com/srlehn/kioskimg/internal/errors"
)

// Closer releases registered resources in reverse order of registration.
type Closer interface {
	Close() error
	OnClose(onClose func() error)
	AddClosers(closers ...interface{ Close() error })
}

var _ Closer = (*lifoCloser)(nil)

type lifoCloser struct {
	mu           sync.Mutex
	onCloseFuncs []func() error
	added        map[any]struct{}
}

func NewCloser() Closer { return &lifoCloser{} }

// Close runs the registered functions last in, first out.
// Every function runs even if earlier ones fail. Calling Close again is a no-op.
func (c *lifoCloser) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	funcs := c.onCloseFuncs
	c.onCloseFuncs = nil
	c.added = nil
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i > -1; i-- {
		if funcs[i] == nil {
			continue
		}
		if err := funcs[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *lifoCloser) OnClose(onClose func() error) {
	if c == nil || onClose == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCloseFuncs = append(c.onCloseFuncs, onClose)
}

func (c *lifoCloser) AddClosers(closers ...interface{ Close() error }) {
	if c == nil || len(closers) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.added == nil {
		c.added = make(map[any]struct{})
	}
	for _, cl := range closers {
		cl := cl // per-iteration copy for the closure below (go.mod targets go1.21)
		if cl == nil {
			continue
		}
		if v := reflect.ValueOf(cl); v.Kind() == reflect.Pointer && v.IsNil() {
			continue
		}
		if reflect.TypeOf(cl).Comparable() {
			if _, alreadyAdded := c.added[cl]; alreadyAdded {
				continue
			}
			c.added[cl] = struct{}{}
		}
		c.onCloseFuncs = append(c.onCloseFuncs, func() error {
			if err := cl.Close(); err != nil {
				return errors.New(err)
			}
			return nil
		})
	}
}

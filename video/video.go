// Package video abstracts the native graphics platform the display backend draws with.
//
// Platforms register a factory under their name, usually from an init function
// of the implementing package (video/sdlvideo, video/dummyvideo).
package video

import (
	"image"
	"slices"
	"sync"

	"github.com/srlehn/kioskimg/surface"
)

// Video is a graphics platform.
// Its methods are called from the display backend and are not safe for concurrent use.
// Init, InitImage and CreateWindow may run on the background recovery goroutine,
// which is not bound to the main OS thread. The backend never overlaps those calls
// with calls from the main goroutine.
type Video interface {
	Name() string
	// Init brings up the video subsystem. An empty driver lets the platform auto-detect,
	// otherwise the named low level driver is requested.
	Init(driver string) error
	Quit()
	// CurrentDriver names the driver in use after a successful Init.
	CurrentDriver() string
	// InitImage prepares image decoding support (PNG and JPEG).
	InitImage() error
	QuitImage()
	CreateWindow(title string, width, height int, fullscreen bool) (Window, error)
	// PollQuit drains pending events and reports whether closing was requested.
	PollQuit() bool
}

type Window interface {
	// CreateRenderer creates a hardware accelerated renderer or, if accelerated is false, a software one.
	CreateRenderer(accelerated bool) (Renderer, error)
	// BlitSurface copies s unscaled to the origin of the window surface.
	BlitSurface(s *surface.Surface) error
	// UpdateSurface presents the window surface.
	UpdateSurface() error
	Size() image.Point
	Destroy() error
}

type Renderer interface {
	CreateTexture(s *surface.Surface) (Texture, error)
	Clear() error
	// Copy stretches t over the whole render target.
	Copy(t Texture) error
	Present()
	Destroy() error
}

type Texture interface {
	Destroy() error
}

// Factory creates a platform instance.
type Factory func() Video

var (
	registryMu sync.RWMutex
	platforms  = make(map[string]Factory)
	// first registered platform of this list wins
	platformPriority = []string{`sdl`, `dummy`}
)

// Register registers a platform factory under name, replacing an earlier one.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	platforms[name] = factory
}

// Unregister removes a platform. It is meant for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(platforms, name)
}

// Available returns the registered platform names in priority order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var names []string
	for _, name := range platformPriority {
		if _, ok := platforms[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range platforms {
		if !slices.Contains(platformPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// Get returns a new instance of the named platform or nil.
func Get(name string) Video {
	registryMu.RLock()
	factory, ok := platforms[name]
	registryMu.RUnlock()
	if !ok || factory == nil {
		return nil
	}
	return factory()
}

// Default returns the registered platform with the highest priority or nil.
func Default() Video {
	for _, name := range Available() {
		if v := Get(name); v != nil {
			return v
		}
	}
	return nil
}

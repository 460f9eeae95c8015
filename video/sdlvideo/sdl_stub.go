//go:build !sdl

// Package sdlvideo is the SDL2 video platform.
// It requires cgo and is built with the "sdl" build tag.
package sdlvideo

// Available reports whether the platform was compiled in.
// Rebuild with -tags sdl to enable SDL2.
func Available() bool { return false }

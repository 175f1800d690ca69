// Package device declares the playback-device boundary. The delivery
// pipeline only hands a device URLs it can fetch; discovery and the control
// protocol are implemented elsewhere.
package device

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Finder when no device matches.
var ErrNotFound = errors.New("playback device not found")

// Media is what a device needs to start fetching from the delivery server.
type Media struct {
	URL         string
	ContentType string
	SubtitleURL string // empty when no subtitle track is offered
	Unseekable  bool   // forward-only source: seeking restarts the stream
}

// PlayerState is the device-reported playback state.
type PlayerState string

const (
	StateIdle      PlayerState = "IDLE"
	StateBuffering PlayerState = "BUFFERING"
	StatePlaying   PlayerState = "PLAYING"
	StatePaused    PlayerState = "PAUSED"
)

// Status is a polled snapshot of device playback.
type Status struct {
	State       PlayerState
	CurrentTime time.Duration
}

// Finder locates a playback device on the local network.
type Finder interface {
	// Find returns the device whose friendly name matches name, or the
	// first device discovered when name is empty.
	Find(ctx context.Context, name string) (Controller, error)
}

// Controller drives playback on one device.
type Controller interface {
	// PlayMedia starts playback of m and returns once the device reports
	// the session active.
	PlayMedia(ctx context.Context, m Media) error

	// Status reports the current playback snapshot.
	Status(ctx context.Context) (Status, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, to time.Duration) error
	SetVolume(ctx context.Context, level float64) error

	// Name returns the device's friendly name.
	Name() string
}

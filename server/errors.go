package server

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the server is already
	// started.
	ErrAlreadyRunning = errors.New("server: already running")

	// ErrNetwork is returned by Start when the listening socket cannot
	// be created or bound.
	ErrNetwork = errors.New("server: network error")

	// ErrEventLoop is returned by Start when the event goroutine fails
	// to initialize.
	ErrEventLoop = errors.New("server: event loop failed to start")
)

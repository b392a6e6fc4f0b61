package server

import (
	"time"

	"go.uber.org/zap"
)

const (
	// maxReadDatagram is the largest UDP datagram the event loop will
	// read, matching the Ethernet MTU and deliberately larger than the
	// 1280-byte encode ceiling the codec enforces on outbound messages.
	maxReadDatagram = 1500

	defaultWorkerCount = 4

	// defaultTransmitQueueSize bounds the transmit channel. A literal
	// unbounded queue isn't practical as a Go channel, so this is sized
	// generously for any reasonable handler rate. A pathological
	// handler that never stops producing responses will block any
	// worker trying to queue a response once this many are already
	// queued, rather than growing memory without limit.
	defaultTransmitQueueSize = 4096
)

// Config configures a Server. ListenAddr and WorkerCount are the core
// configuration surface; Logger and TransmitQueueSize are
// implementation knobs.
type Config struct {
	// ListenAddr is any resolvable "host:port" UDP address.
	ListenAddr string

	// WorkerCount bounds how many datagrams are decoded and handled
	// concurrently. Zero means defaultWorkerCount.
	WorkerCount int

	// TransmitQueueSize bounds the transmit channel. Zero means
	// defaultTransmitQueueSize.
	TransmitQueueSize int

	// ReadTimeout bounds how long a single ReadFromUDP call may block.
	// Zero disables the deadline, so a read blocks until a datagram
	// arrives or the socket is closed by Stop.
	ReadTimeout time.Duration

	// Logger receives structured diagnostics for codec failures, send
	// failures, and handler panics. Nil means zap.NewNop().
	Logger *zap.Logger
}

func (c Config) workerCount() int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	return defaultWorkerCount
}

func (c Config) transmitQueueSize() int {
	if c.TransmitQueueSize > 0 {
		return c.TransmitQueueSize
	}
	return defaultTransmitQueueSize
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}

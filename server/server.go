// Package server implements the UDP dispatch runtime: an event
// goroutine driving socket readiness, a bounded worker pool decoding
// and handling datagrams concurrently, and a single transmit goroutine
// serializing all outbound writes.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goapd/goapd/coap"
	"github.com/goapd/goapd/router"
)

// transmitItem is one pending outbound write: a response addressed to
// the peer that sent the request producing it.
type transmitItem struct {
	peer net.Addr
	resp coap.Message
}

// Server owns one UDP listening socket, a bounded worker pool, and the
// single goroutine that writes to that socket. The zero value is not
// ready to use; construct with New.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
	conn    *net.UDPConn

	control    chan struct{}
	sem        chan struct{}
	transmitCh chan transmitItem
	workerWG   sync.WaitGroup
	eventDone  chan struct{}
	xmitDone   chan struct{}
}

// New constructs a Server that will dispatch decoded requests to d
// once started.
func New(cfg Config, d Dispatcher) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: d,
		logger:     cfg.logger(),
	}
}

// Start binds the listening socket and launches the event, worker, and
// transmit goroutines. It fails with ErrAlreadyRunning if the server
// is already started, ErrNetwork if the socket cannot be bound, and
// ErrEventLoop if the event goroutine fails to initialize. Start does
// not return until the event loop has acknowledged readiness over a
// one-shot channel, so a successful return means the server is
// already accepting datagrams.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	uaddr, err := net.ResolveUDPAddr("udp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", ErrNetwork, s.cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", uaddr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %v", ErrNetwork, s.cfg.ListenAddr, err)
	}

	s.conn = conn
	s.control = make(chan struct{})
	s.sem = make(chan struct{}, s.cfg.workerCount())
	s.transmitCh = make(chan transmitItem, s.cfg.transmitQueueSize())
	s.eventDone = make(chan struct{})
	s.xmitDone = make(chan struct{})

	ready := make(chan error, 1)
	go s.eventLoop(ready)
	if err := <-ready; err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrEventLoop, err)
	}

	go s.transmitLoop()

	s.running = true
	s.logger.Info("server started", zap.String("addr", conn.LocalAddr().String()),
		zap.Int("workers", s.cfg.workerCount()))
	return nil
}

// LocalAddr returns the address the listening socket is bound to. It
// is only valid after a successful Start.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.LocalAddr()
}

// Stop signals the event goroutine to stop accepting reads, waits for
// it and every in-flight worker to finish, drops the transmit sender,
// and waits for the transmit goroutine to drain and exit. Stop is
// idempotent: calling it when the server is not running is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	conn := s.conn
	s.mu.Unlock()

	close(s.control)
	conn.Close() // unblocks the event goroutine's pending ReadFromUDP
	<-s.eventDone

	s.workerWG.Wait() // let in-flight handlers finish and stop sending

	close(s.transmitCh)
	<-s.xmitDone

	s.logger.Info("server stopped")
}

// eventLoop owns the read path: it acknowledges startup over ready,
// then loops reading datagrams and submitting them to the worker pool
// until Stop closes s.control and the listening socket.
func (s *Server) eventLoop(ready chan<- error) {
	defer close(s.eventDone)
	ready <- nil

	buf := make([]byte, maxReadDatagram)
	for {
		if s.cfg.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}

		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if s.shuttingDown() {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Warn("read error", zap.Error(err))
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		select {
		case s.sem <- struct{}{}:
		case <-s.control:
			return
		}

		s.workerWG.Add(1)
		go s.handleDatagram(datagram, addr)
	}
}

func (s *Server) shuttingDown() bool {
	select {
	case <-s.control:
		return true
	default:
		return false
	}
}

// handleDatagram decodes one datagram, dispatches it, and forwards any
// response to the transmitter. It never lets a panic escape: a
// handler panic is recovered and logged, since no single bad datagram
// or handler should be able to terminate the server.
func (s *Server) handleDatagram(data []byte, peer net.Addr) {
	defer s.workerWG.Done()
	defer func() { <-s.sem }()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", zap.Any("panic", r), zap.String("peer", peer.String()))
		}
	}()

	msg, err := coap.Decode(data)
	if err != nil {
		s.logger.Warn("dropping undecodable datagram", zap.Error(err), zap.String("peer", peer.String()))
		return
	}

	req := router.NewRequest(msg, peer)
	resp := s.dispatcher.Dispatch(req)
	if resp == nil {
		return
	}

	select {
	case s.transmitCh <- transmitItem{peer: peer, resp: *resp}:
	case <-s.control:
		// Shutting down and the queue isn't being drained fast enough;
		// drop rather than block a worker Stop is waiting on.
		s.logger.Warn("dropping response during shutdown", zap.String("peer", peer.String()))
	}
}

// transmitLoop is the single writer of the listening socket: it drains
// the transmit queue in the order items entered it and performs one
// write per item. Encode and send failures are logged and skipped;
// neither retries nor terminates the server.
func (s *Server) transmitLoop() {
	defer close(s.xmitDone)

	for item := range s.transmitCh {
		data, err := item.resp.MarshalBinary()
		if err != nil {
			s.logger.Warn("encode failed, dropping response", zap.Error(err), zap.String("peer", item.peer.String()))
			continue
		}
		if _, err := s.conn.WriteTo(data, item.peer); err != nil {
			s.logger.Warn("send failed", zap.Error(err), zap.String("peer", item.peer.String()))
			continue
		}
	}
}

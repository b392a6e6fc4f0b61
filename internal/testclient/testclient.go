// Package testclient is a minimal UDP client used only to exercise a
// running server in tests: it dials a CoAP endpoint, sends one
// encoded message, and decodes the reply.
package testclient

import (
	"net"
	"time"

	"github.com/goapd/goapd/coap"
)

// Client is a thin wrapper over a connected UDP socket that speaks the
// coap wire format. It is not safe for concurrent use.
type Client struct {
	conn    *net.UDPConn
	timeout time.Duration
}

// Dial connects to addr over UDP. timeout bounds every subsequent
// Exchange call; zero disables the deadline.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, timeout: timeout}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exchange encodes req, sends it, and blocks for one reply datagram,
// decoding it back into a Message. It does not retry: a dropped
// request or reply surfaces as a read timeout/error to the caller.
func (c *Client) Exchange(req coap.Message) (coap.Message, error) {
	data, err := req.MarshalBinary()
	if err != nil {
		return coap.Message{}, err
	}
	if _, err := c.conn.Write(data); err != nil {
		return coap.Message{}, err
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return coap.Message{}, err
		}
	}

	buf := make([]byte, 1500)
	n, err := c.conn.Read(buf)
	if err != nil {
		return coap.Message{}, err
	}
	return coap.Decode(buf[:n])
}

// Send encodes req and sends it without waiting for a reply, for
// exercising non-responding paths (e.g. Acknowledgement/Reset input,
// or a request with no matching route).
func (c *Client) Send(req coap.Message) error {
	data, err := req.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

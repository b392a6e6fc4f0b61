package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goapd/goapd/coap"
	"github.com/goapd/goapd/internal/testclient"
	"github.com/goapd/goapd/router"
)

func newTestServer(t *testing.T, d Dispatcher) (*Server, *testclient.Client) {
	t.Helper()

	srv := New(Config{ListenAddr: "127.0.0.1:0", WorkerCount: 2}, d)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	cl, err := testclient.Dial(srv.LocalAddr().String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })

	return srv, cl
}

func getRequest(path string, id uint16) coap.Message {
	m := coap.NewMessage()
	m.Type = coap.Confirmable
	m.Code = coap.Get
	m.MessageID = id
	m.SetPathString(path)
	return m
}

// An end-to-end router dispatch over a real UDP socket.
func TestServer_RouterDispatch(t *testing.T) {
	r := router.New()
	r.Register(coap.Get, "foo", func(req *router.Request) *coap.Message {
		resp := *req.ResponseTemplate
		resp.Payload = []byte("bar")
		return &resp
	})

	_, cl := newTestServer(t, RouterDispatcher(r))

	resp, err := cl.Exchange(getRequest("foo", 42))
	require.NoError(t, err)
	require.Equal(t, coap.Acknowledgement, resp.Type)
	require.Equal(t, uint16(42), resp.MessageID)
	require.Equal(t, "bar", string(resp.Payload))
}

func TestServer_NoRouteProducesNoReply(t *testing.T) {
	r := router.New()
	_, cl := newTestServer(t, RouterDispatcher(r))

	require.NoError(t, cl.Send(getRequest("missing", 1)))

	_, err := cl.Exchange(getRequest("also-missing", 2))
	require.Error(t, err)
}

func TestServer_FuncDispatcher(t *testing.T) {
	called := make(chan *router.Request, 1)
	d := FuncDispatcher(func(req *router.Request) *coap.Message {
		called <- req
		resp := *req.ResponseTemplate
		return &resp
	})

	_, cl := newTestServer(t, d)
	resp, err := cl.Exchange(getRequest("anything", 7))
	require.NoError(t, err)
	require.Equal(t, uint16(7), resp.MessageID)

	select {
	case req := <-called:
		require.Equal(t, "anything", req.Message.Path()[0])
	default:
		t.Fatal("dispatcher was not invoked")
	}
}

func TestServer_UndecodableDatagramIsDropped(t *testing.T) {
	r := router.New()
	r.Register(coap.Get, "ok", func(req *router.Request) *coap.Message {
		resp := *req.ResponseTemplate
		return &resp
	})
	srv, cl := newTestServer(t, RouterDispatcher(r))

	rawConn, err := net.DialUDP("udp", nil, srv.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer rawConn.Close()
	_, err = rawConn.Write([]byte{0xFF}) // shorter than the fixed header
	require.NoError(t, err)

	// the server must have dropped it silently and still serve a
	// well-formed request afterward.
	resp, err := cl.Exchange(getRequest("ok", 9))
	require.NoError(t, err)
	require.Equal(t, uint16(9), resp.MessageID)
}

func TestServer_StartTwiceFails(t *testing.T) {
	srv := New(Config{ListenAddr: "127.0.0.1:0"}, RouterDispatcher(router.New()))
	require.NoError(t, srv.Start())
	defer srv.Stop()

	require.ErrorIs(t, srv.Start(), ErrAlreadyRunning)
}

func TestServer_StopIsIdempotent(t *testing.T) {
	srv := New(Config{ListenAddr: "127.0.0.1:0"}, RouterDispatcher(router.New()))
	require.NoError(t, srv.Start())

	srv.Stop()
	require.NotPanics(t, srv.Stop)
}

func TestServer_BadNetworkAddrFails(t *testing.T) {
	srv := New(Config{ListenAddr: "not-an-address"}, RouterDispatcher(router.New()))
	require.ErrorIs(t, srv.Start(), ErrNetwork)
}

func TestServer_HandlerPanicDoesNotCrashServer(t *testing.T) {
	d := FuncDispatcher(func(req *router.Request) *coap.Message {
		if req.Message.PathString() == "boom" {
			panic("boom")
		}
		resp := *req.ResponseTemplate
		return &resp
	})
	_, cl := newTestServer(t, d)

	_, err := cl.Exchange(getRequest("boom", 1))
	require.Error(t, err) // panicking handler never replies

	// the same server must still be alive for a second, well-behaved request
	resp, err := cl.Exchange(getRequest("ok", 2))
	require.NoError(t, err)
	require.Equal(t, uint16(2), resp.MessageID)
}

// Package router implements a method+URI-path request router: a
// two-level mapping from (method, single URI-Path segment) to a
// handler function, used as one of the two handler shapes the server
// package's dispatcher accepts.
package router

import (
	"net"

	"github.com/goapd/goapd/coap"
)

// Request is what a handler sees: the decoded message, the address it
// arrived from, and a pre-built response template the handler may
// take and mutate instead of building a response from scratch.
// ResponseTemplate is nil when the request's message type has no
// well-defined auto-response (Acknowledgement or Reset inputs, see
// coap.Message.Response).
type Request struct {
	Message          coap.Message
	Peer             net.Addr
	ResponseTemplate *coap.Message
}

// NewRequest builds a Request from a decoded message and its source
// address, attaching a response template when one can be derived.
func NewRequest(msg coap.Message, peer net.Addr) *Request {
	req := &Request{Message: msg, Peer: peer}
	if tmpl, err := msg.Response(); err == nil {
		req.ResponseTemplate = &tmpl
	}
	return req
}

// HandlerFunc handles one request and optionally returns a response.
// Handlers must be pure with respect to the dispatcher: they must not
// block on I/O owned by it.
type HandlerFunc func(req *Request) *coap.Message

// RouteInfo describes one registered route, for diagnostics.
type RouteInfo struct {
	Method coap.CCode
	Path   string
}

// Router maps (method, single URI-Path segment) to a handler. Only the
// first URI-Path option value is consulted on dispatch: callers
// needing multi-segment matching must route on a concatenated path
// externally.
type Router struct {
	routes map[coap.CCode]map[string]HandlerFunc
}

// New returns an empty Router.
func New() *Router {
	return &Router{routes: make(map[coap.CCode]map[string]HandlerFunc)}
}

// Register installs fn for (method, path), replacing any handler
// already registered for that pair.
func (r *Router) Register(method coap.CCode, path string, fn HandlerFunc) {
	byPath, ok := r.routes[method]
	if !ok {
		byPath = make(map[string]HandlerFunc)
		r.routes[method] = byPath
	}
	byPath[path] = fn
}

// Routes returns every registered (method, path) pair, for logging or
// introspection. Order is unspecified.
func (r *Router) Routes() []RouteInfo {
	var rv []RouteInfo
	for method, byPath := range r.routes {
		for path := range byPath {
			rv = append(rv, RouteInfo{Method: method, Path: path})
		}
	}
	return rv
}

// Dispatch looks up a handler for req and invokes it. It returns nil
// without invoking anything if req's message does not classify as a
// request, if no UriPath option is present, or if no handler is
// registered for the (method, path) pair. The handler's own return
// value, including nil, is returned verbatim otherwise.
func (r *Router) Dispatch(req *Request) *coap.Message {
	class, ok := coap.ClassOf(req.Message.Code).(coap.RequestClass)
	if !ok {
		return nil
	}

	segments := req.Message.Path()
	if len(segments) == 0 {
		return nil
	}
	path := segments[0]

	byPath, ok := r.routes[class.Method]
	if !ok {
		return nil
	}
	fn, ok := byPath[path]
	if !ok {
		return nil
	}
	return fn(req)
}

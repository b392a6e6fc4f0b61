package server

import (
	"github.com/goapd/goapd/coap"
	"github.com/goapd/goapd/router"
)

// Dispatcher is the unified handler variant a Server is configured
// with: either a free function or a router.Router.
type Dispatcher interface {
	Dispatch(req *router.Request) *coap.Message
}

type funcDispatcher func(*router.Request) *coap.Message

func (f funcDispatcher) Dispatch(req *router.Request) *coap.Message { return f(req) }

// FuncDispatcher adapts a plain function into a Dispatcher.
func FuncDispatcher(f func(req *router.Request) *coap.Message) Dispatcher {
	return funcDispatcher(f)
}

type routerDispatcher struct{ r *router.Router }

func (d routerDispatcher) Dispatch(req *router.Request) *coap.Message {
	return d.r.Dispatch(req)
}

// RouterDispatcher adapts a router.Router into a Dispatcher.
func RouterDispatcher(r *router.Router) Dispatcher {
	return routerDispatcher{r: r}
}

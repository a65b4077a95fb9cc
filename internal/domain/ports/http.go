package ports

import "net/http"

// ReloadMessage is the text frame body sent to websocket clients on change
const ReloadMessage = "reload"

// ReloadSource hands out subscriptions to reload signals
type ReloadSource interface {
	// Subscribe returns a channel receiving signals published after the call
	// and a cancel func. The channel is closed on cancel or when the source
	// shuts down.
	Subscribe() (<-chan struct{}, func())
}

// ReloadHandler is the HTTP surface of one session
type ReloadHandler interface {
	http.Handler
	// ClientCount returns the number of open websocket connections
	ClientCount() int
	// Close force-closes every websocket connection and waits for their
	// goroutines to exit
	Close()
}

// HandlerFactory builds the route table for a session rooted at root
type HandlerFactory interface {
	NewHandler(root string, source ReloadSource) ReloadHandler
}

// PortAllocator finds a bindable TCP port on loopback
type PortAllocator interface {
	// FindAvailable probes preferred, preferred+1, ... for at most maxTries ports
	FindAvailable(preferred, maxTries int) (int, error)
}

package netport

import (
	"fmt"
	"net"
	"strconv"

	"github.com/servelite/servelite/internal/domain/entities"
	"github.com/servelite/servelite/internal/domain/ports"
)

const (
	// DefaultPort is the first port probed when none is configured
	DefaultPort = 8000
	// DefaultMaxTries is how many consecutive ports are probed by default
	DefaultMaxTries = 100
)

// Allocator implements the PortAllocator interface by bind-probing loopback
type Allocator struct {
	host string
}

// NewAllocator creates an allocator probing host, "127.0.0.1" when empty
func NewAllocator(host string) *Allocator {
	if host == "" {
		host = "127.0.0.1"
	}
	return &Allocator{host: host}
}

// FindAvailable returns the first port in [preferred, preferred+maxTries)
// that can be bound. The probe listener is closed immediately, so the port
// may be taken again before the caller binds it.
func (a *Allocator) FindAvailable(preferred, maxTries int) (int, error) {
	if preferred <= 0 {
		preferred = DefaultPort
	}
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}

	for port := preferred; port < preferred+maxTries && port <= 65535; port++ {
		if a.probe(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("%w: tried %d ports starting at %d", entities.ErrNoPortAvailable, maxTries, preferred)
}

// probe reports whether port can be bound right now
func (a *Allocator) probe(port int) bool {
	listener, err := net.Listen("tcp", net.JoinHostPort(a.host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// Ensure Allocator implements ports.PortAllocator
var _ ports.PortAllocator = (*Allocator)(nil)

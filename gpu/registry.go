package gpu

import (
	"fmt"
	"sort"
	"sync"
)

// Options configures a device at open time. Backends ignore fields that do
// not apply to them.
type Options struct {
	// Workers bounds CPU parallelism for software rendering (0 = NumCPU).
	Workers int
	// Visible shows the window that hosts the GL context.
	Visible bool
}

// OpenFunc constructs a device for a registered backend.
type OpenFunc func(opts Options) (Device, error)

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]OpenFunc)
)

// Register makes a backend available by name. It panics on duplicates.
func Register(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	if open == nil {
		panic("gpu: Register open func is nil")
	}
	if _, dup := backends[name]; dup {
		panic("gpu: Register called twice for backend " + name)
	}
	backends[name] = open
}

// Open creates a device from a registered backend.
func Open(name string, opts Options) (Device, error) {
	backendsMu.RLock()
	open, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, Backends())
	}
	return open(opts)
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

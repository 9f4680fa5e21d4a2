// shared/cftools/registry.go
package cftools

import (
	"errors"
	"fmt"
)

// ErrUnknownServer is returned by Registry.Get for a name that was not configured.
var ErrUnknownServer = errors.New("unknown server")

// Registry maps configured server names to their clients. It is built once
// at startup and read-only afterwards.
type Registry struct {
	names   []string
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Add registers a client under name. Names must be unique.
func (r *Registry) Add(name string, client *Client) error {
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("server %q registered twice", name)
	}
	r.names = append(r.names, name)
	r.clients[name] = client
	return nil
}

// Get returns the named client. An empty name selects the default server.
func (r *Registry) Get(name string) (*Client, error) {
	if name == "" {
		return r.Default()
	}
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	return client, nil
}

// Default returns the first configured server.
func (r *Registry) Default() (*Client, error) {
	if len(r.names) == 0 {
		return nil, fmt.Errorf("%w: no servers configured", ErrUnknownServer)
	}
	return r.clients[r.names[0]], nil
}

// Names lists server names in configuration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

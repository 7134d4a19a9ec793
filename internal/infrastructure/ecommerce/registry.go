package ecommerce

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marketplace/backend/internal/domain/integration"
)

// PlatformRegistry selects a platform client by its platform tag
type PlatformRegistry struct {
	mu      sync.RWMutex
	clients map[integration.PlatformType]integration.PlatformClient
}

var _ integration.PlatformClientResolver = (*PlatformRegistry)(nil)

// NewPlatformRegistry creates a registry holding the given clients
func NewPlatformRegistry(clients ...integration.PlatformClient) *PlatformRegistry {
	r := &PlatformRegistry{clients: make(map[integration.PlatformType]integration.PlatformClient)}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the client for its platform
func (r *PlatformRegistry) Register(client integration.PlatformClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Platform()] = client
}

// Client returns the client for the platform
func (r *PlatformRegistry) Client(platform integration.PlatformType) (integration.PlatformClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedPlatform, platform)
	}
	return c, nil
}

// Platforms lists the registered platforms in a stable order
func (r *PlatformRegistry) Platforms() []integration.PlatformType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]integration.PlatformType, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

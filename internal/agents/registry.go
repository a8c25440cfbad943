package agents

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agentllm/agentllm-core/internal/core/domain"
	"github.com/agentllm/agentllm-core/internal/core/ports/driving"
)

// Registry maps agent names to their configurators. Registration happens
// explicitly at startup from a static list; there is no runtime discovery.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]driving.ConfiguratorService
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]driving.ConfiguratorService)}
}

// Register adds an agent. Registering the same name twice fails with
// ErrConfiguration; startup should treat that as fatal.
func (r *Registry) Register(name string, configurator driving.ConfiguratorService) error {
	if name == "" || configurator == nil {
		return fmt.Errorf("%w: agent registration needs a name and a configurator", domain.ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("%w: agent %q already registered", domain.ErrConfiguration, name)
	}
	r.agents[name] = configurator
	return nil
}

// Configurator looks up an agent by name.
func (r *Registry) Configurator(name string) (driving.ConfiguratorService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configurator, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgent, name)
	}
	return configurator, nil
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

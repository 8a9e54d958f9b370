// Package di provides a minimal typed dependency-injection container.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers services and factories in addition to resolving them.
type Container interface {
	ServiceRegistry
	Register(name string, value any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

// container is the default Container implementation. Factories are resolved
// lazily and memoized, so every token behaves as a singleton.
type container struct {
	mu        sync.RWMutex
	instances map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		instances: make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

// Register stores an already-constructed service under name.
func (c *container) Register(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = value
}

// RegisterFactory stores a lazy constructor under name. The factory runs at
// most once, on first Get.
func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

// Get resolves a service by name. Panics when the name is unknown: a missing
// registration is a wiring bug, not a runtime condition.
func (c *container) Get(name string) any {
	c.mu.RLock()
	if v, ok := c.instances[name]; ok {
		c.mu.RUnlock()
		return v
	}
	factory, ok := c.factories[name]
	c.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q is not registered", name))
	}

	v := factory(c)

	c.mu.Lock()
	// Another goroutine may have resolved the same factory concurrently;
	// keep the first stored instance so the singleton guarantee holds.
	if existing, ok := c.instances[name]; ok {
		c.mu.Unlock()
		return existing
	}
	c.instances[name] = v
	c.mu.Unlock()
	return v
}

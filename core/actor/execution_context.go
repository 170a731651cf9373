package actor

import (
	"sync"

	"github.com/codewandler/stage-go/core/ds"
)

// ExecutionContext is an ordered key/value map attached to invocations so
// that supervisors can read request-scoped data at failure time. A context
// also carries a list of declared collaborator proxies: Propagate pushes the
// current entries onto each collaborator's own context.
type ExecutionContext interface {
	// Get returns the value for key.
	Get(key string) (any, bool)
	// Set stores value under key. The empty context silently drops this.
	Set(key string, value any)
	// Reset removes all entries.
	Reset()
	// HasContext reports whether any entries are present.
	HasContext() bool
	// Count returns the number of entries.
	Count() int
	// Keys returns the keys in insertion order.
	Keys() []string
	// Copy returns a structurally independent clone, entries and
	// collaborator list both.
	Copy() ExecutionContext
	// Collaborators declares proxies that inherit this context on
	// Propagate.
	Collaborators(proxies ...*Proxy)
	// Propagate replaces each declared collaborator's current entries with
	// a shallow copy of this context's entries.
	Propagate()

	// replaceEntries installs a shallow copy of the given entries,
	// dropping whatever was there. The empty context ignores it.
	replaceEntries(keys []string, values map[string]any)
}

type executionContext struct {
	mu            sync.Mutex
	keys          *ds.StringSet
	values        map[string]any
	collaborators []*Proxy
}

// NewExecutionContext creates an empty, mutable execution context.
func NewExecutionContext() ExecutionContext {
	return &executionContext{
		keys:   ds.NewSet[string](),
		values: make(map[string]any),
	}
}

func (c *executionContext) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *executionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys.Add(key)
	c.values[key] = value
}

func (c *executionContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys.Clear()
	c.values = make(map[string]any)
}

func (c *executionContext) HasContext() bool { return c.Count() > 0 }

func (c *executionContext) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.Len()
}

func (c *executionContext) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys.Values()
}

func (c *executionContext) Copy() ExecutionContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := &executionContext{
		keys:          c.keys.Copy(),
		values:        make(map[string]any, len(c.values)),
		collaborators: make([]*Proxy, len(c.collaborators)),
	}
	for k, v := range c.values {
		clone.values[k] = v
	}
	copy(clone.collaborators, c.collaborators)
	return clone
}

func (c *executionContext) Collaborators(proxies ...*Proxy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collaborators = append(c.collaborators, proxies...)
}

func (c *executionContext) Propagate() {
	c.mu.Lock()
	keys := c.keys.Values()
	values := make(map[string]any, len(c.values))
	for k, v := range c.values {
		values[k] = v
	}
	collaborators := make([]*Proxy, len(c.collaborators))
	copy(collaborators, c.collaborators)
	c.mu.Unlock()

	for _, p := range collaborators {
		p.ExecutionContext().replaceEntries(keys, values)
	}
}

func (c *executionContext) replaceEntries(keys []string, values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = ds.NewSet(keys...)
	c.values = make(map[string]any, len(values))
	for k, v := range values {
		c.values[k] = v
	}
}

// emptyExecutionContext never owns keys and silently drops mutations. It is
// the context of invocations made outside any request scope.
type emptyExecutionContext struct{}

var emptyCtx = emptyExecutionContext{}

// EmptyExecutionContext returns the distinguished empty context.
func EmptyExecutionContext() ExecutionContext { return emptyCtx }

func (emptyExecutionContext) Get(string) (any, bool)               { return nil, false }
func (emptyExecutionContext) Set(string, any)                      {}
func (emptyExecutionContext) Reset()                               {}
func (emptyExecutionContext) HasContext() bool                     { return false }
func (emptyExecutionContext) Count() int                           { return 0 }
func (emptyExecutionContext) Keys() []string                       { return nil }
func (emptyExecutionContext) Copy() ExecutionContext               { return emptyCtx }
func (emptyExecutionContext) Collaborators(...*Proxy)              {}
func (emptyExecutionContext) Propagate()                           {}
func (emptyExecutionContext) replaceEntries([]string, map[string]any) {}

var (
	_ ExecutionContext = (*executionContext)(nil)
	_ ExecutionContext = emptyExecutionContext{}
)

package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/kitchenmesh/logging"
)

// Catalog merges tools from multiple providers into a single lookup table
// agents resolve their declared tool names against.
//
// Registration is first-wins: when two providers contribute a tool with the
// same name the earlier registration is kept and the duplicate is logged and
// dropped. The catalog is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

// CatalogOptions configures optional Catalog behavior.
type CatalogOptions struct {
	Logger logging.Logger
}

// NewCatalog creates an empty Catalog.
func NewCatalog(optFns ...func(o *CatalogOptions)) *Catalog {
	opts := CatalogOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Catalog{tools: make(map[string]Tool), logger: opts.Logger}
}

// Register adds a single tool. Duplicate names keep the existing entry.
func (c *Catalog) Register(t Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tools[t.Name()]; exists {
		c.logger.Warn("tool.catalog.duplicate", "tool", t.Name())
		return
	}
	c.tools[t.Name()] = t
}

// AddProvider registers every tool a provider contributes.
func (c *Catalog) AddProvider(p Provider) {
	for _, t := range p.Tools() {
		c.Register(t)
	}
}

// Get returns the tool registered under name.
func (c *Catalog) Get(name string) (Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q not found in catalog", name)
	}
	return t, nil
}

// Has reports whether a tool is registered under name.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.tools[name]
	return ok
}

// Names returns the sorted names of all registered tools.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps declared tool names to registered tools. Unknown names are
// skipped and reported in the second return value so callers can warn without
// failing the whole agent.
func (c *Catalog) Resolve(names []string) ([]Tool, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	var missing []string
	for _, name := range names {
		t, ok := c.tools[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		tools = append(tools, t)
	}
	return tools, missing
}

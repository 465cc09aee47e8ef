package registry

import (
	"errors"
	"sync"

	"github.com/soochol/droidflow/internal/droidflow"
)

// BuiltinRoot is the search root for implementations compiled into the binary.
const BuiltinRoot = "builtin"

// ErrRootNotFound is returned by a Source that does not serve a root.
var ErrRootNotFound = errors.New("search root not found")

// Source yields the plugins reachable from a search root.
type Source interface {
	Plugins(root string) ([]droidflow.Plugin, error)
}

// Catalog is a static, in-process Source populated from init() functions.
type Catalog struct {
	mu    sync.RWMutex
	roots map[string][]droidflow.Plugin
}

func NewCatalog() *Catalog {
	return &Catalog{roots: make(map[string][]droidflow.Plugin)}
}

// Register adds p under root.
func (c *Catalog) Register(root string, p droidflow.Plugin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots[root] = append(c.roots[root], p)
}

// Plugins returns a copy of the plugins registered under root.
func (c *Catalog) Plugins(root string) ([]droidflow.Plugin, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ps, ok := c.roots[root]
	if !ok {
		return nil, ErrRootNotFound
	}
	out := make([]droidflow.Plugin, len(ps))
	copy(out, ps)
	return out, nil
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog.
func DefaultCatalog() *Catalog { return defaultCatalog }

// Register adds p to the builtin root of the default catalog.
// Called from init() in each workflow implementation package.
func Register(p droidflow.Plugin) {
	defaultCatalog.Register(BuiltinRoot, p)
}

// RegisterRoot adds p to a named root of the default catalog.
func RegisterRoot(root string, p droidflow.Plugin) {
	defaultCatalog.Register(root, p)
}

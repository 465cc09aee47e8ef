package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/soochol/droidflow/internal/droidflow"
)

// Entry is one discovered implementation.
type Entry struct {
	Name   droidflow.WorkflowName
	Type   string
	Root   string
	Plugin droidflow.Plugin
}

// Info describes an entry for usage output.
type Info struct {
	Name    droidflow.WorkflowName
	Type    string
	Root    string
	Actions []droidflow.ActionName
}

// Registry discovers workflow implementations across search roots and
// resolves a name to a constructed workflow. Discovery is recomputed on
// every call.
type Registry struct {
	sources []Source
	roots   []string
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSources replaces the default catalog with the given sources.
func WithSources(sources ...Source) Option {
	return func(r *Registry) { r.sources = sources }
}

// WithExtraRoots appends search roots after the builtin root.
func WithExtraRoots(roots ...string) Option {
	return func(r *Registry) { r.roots = append(r.roots, roots...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates a Registry searching BuiltinRoot in the default catalog.
func New(opts ...Option) *Registry {
	r := &Registry{
		sources: []Source{DefaultCatalog()},
		roots:   []string{BuiltinRoot},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Roots returns the de-duplicated search roots in search order.
func (r *Registry) Roots() []string {
	seen := make(map[string]bool, len(r.roots))
	out := make([]string, 0, len(r.roots))
	for _, root := range r.roots {
		if root == "" || seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out
}

// Discover walks every search root and returns the reachable
// implementations sorted by type name, then workflow name.
func (r *Registry) Discover() ([]Entry, error) {
	var entries []Entry
	byName := make(map[droidflow.WorkflowName]int)

	for _, root := range r.Roots() {
		plugins, err := r.collect(root)
		if err != nil {
			return nil, err
		}
		for _, p := range plugins {
			name, err := identify(p)
			if err != nil {
				return nil, err
			}
			e := Entry{Name: name, Type: typeName(p), Root: root, Plugin: p}
			if i, ok := byName[name]; ok {
				prev := entries[i]
				if samePlugin(prev.Plugin, p) {
					continue
				}
				return nil, fmt.Errorf("%w %q: %s (root %q) and %s (root %q)",
					droidflow.ErrDuplicateWorkflow, name, prev.Type, prev.Root, e.Type, e.Root)
			}
			byName[name] = len(entries)
			entries = append(entries, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type < entries[j].Type
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (r *Registry) collect(root string) ([]droidflow.Plugin, error) {
	var out []droidflow.Plugin
	served := false
	for _, src := range r.sources {
		ps, err := src.Plugins(root)
		if errors.Is(err, ErrRootNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: search root %q: %w", droidflow.ErrConfiguration, root, err)
		}
		served = true
		out = append(out, ps...)
	}
	if !served {
		r.logger.Debug("skipping unknown workflow root", "root", root)
	}
	return out, nil
}

// Lookup returns the entry whose name equals name exactly.
func (r *Registry) Lookup(name droidflow.WorkflowName) (Entry, error) {
	entries, err := r.Discover()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, droidflow.NewErrWorkflowNotFound(name)
}

// Resolve constructs the workflow named by cfg.Workflow.
func (r *Registry) Resolve(cfg *droidflow.RunConfig) (droidflow.Workflow, error) {
	e, err := r.Lookup(cfg.Workflow)
	if err != nil {
		return nil, err
	}
	wf, err := e.Plugin.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing workflow %q: %w", e.Name, err)
	}
	r.logger.Debug("workflow resolved", "workflow", e.Name, "type", e.Type, "root", e.Root)
	return wf, nil
}

// List describes every discovered implementation, including its actions.
// Actions are read from a probe instance built without a device.
func (r *Registry) List() ([]Info, error) {
	entries, err := r.Discover()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		info := Info{Name: e.Name, Type: e.Type, Root: e.Root}
		if wf, err := e.Plugin.New(&droidflow.RunConfig{Workflow: e.Name}); err == nil {
			info.Actions = wf.Actions()
		} else {
			r.logger.Debug("probe construction failed", "workflow", e.Name, "err", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ParseRoots splits a comma-separated root list, dropping blanks.
func ParseRoots(csv string) []string {
	var roots []string
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

// identify reads a plugin's name, converting a panic or an empty name into a
// configuration error that names the offending type.
func identify(p droidflow.Plugin) (name droidflow.WorkflowName, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: identifying %s: %v", droidflow.ErrConfiguration, typeName(p), rec)
		}
	}()
	name = p.WorkflowName()
	if name == "" {
		return "", fmt.Errorf("%w: %s reports an empty workflow name", droidflow.ErrConfiguration, typeName(p))
	}
	return name, nil
}

func typeName(p droidflow.Plugin) string {
	return fmt.Sprintf("%T", p)
}

// samePlugin reports whether a and b are the same plugin value. Values of
// non-comparable types are never considered the same.
func samePlugin(a, b droidflow.Plugin) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

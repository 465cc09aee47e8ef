package script

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soochol/droidflow/internal/droidflow"
	"github.com/soochol/droidflow/internal/registry"
	"github.com/soochol/droidflow/internal/services"
)

// Loader is a registry.Source that reads *.yaml and *.yml files directly
// inside a directory root. Sub-directories are not descended into.
type Loader struct {
	clock  services.Clock
	logger *slog.Logger
}

type LoaderOption func(*Loader)

// WithClock sets the clock used by `wait` steps.
func WithClock(c services.Clock) LoaderOption {
	return func(l *Loader) { l.clock = c }
}

func WithLogger(lg *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = lg }
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{clock: services.RealClock{}, logger: slog.Default()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Plugins returns one plugin per definition file in root, in file name
// order. A root that is not an existing directory is not served.
func (l *Loader) Plugins(root string) ([]droidflow.Plugin, error) {
	if root == registry.BuiltinRoot {
		return nil, registry.ErrRootNotFound
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, registry.ErrRootNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, registry.ErrRootNotFound
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var plugins []droidflow.Plugin
	for _, e := range entries {
		if e.IsDir() {
			l.logger.Debug("skipping workflow sub-directory", "root", root, "dir", e.Name())
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := LoadDefinition(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, &Plugin{Def: def, Clock: l.clock})
	}
	return plugins, nil
}

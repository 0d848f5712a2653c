package plugin

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Registration priorities. When two registrations share a name the higher
// priority is kept; on a tie the later one replaces the earlier.
const (
	PriorityDefault  = 0
	PriorityOverride = 100
)

// ErrInvalidRegistration is returned by Register for an unusable Info
var ErrInvalidRegistration = errors.New("invalid plugin registration")

// Info describes a named plugin factory.
type Info struct {
	Name        string
	Description string
	Priority    int
	Factory     Factory
}

// Registry resolves plugin names to factories, so that options files and
// other configuration can refer to plugins by name.
type Registry struct {
	logger *zap.Logger
	byName map[string]Info
	names  []string
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		byName: make(map[string]Info),
	}
}

// Register adds info under its name, subject to priority when the name is
// already taken. A lower-priority registration is ignored without error.
func (r *Registry) Register(info Info) error {
	switch {
	case info.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidRegistration)
	case info.Factory == nil:
		return fmt.Errorf("%w: %s has no factory", ErrInvalidRegistration, info.Name)
	}

	current, taken := r.byName[info.Name]
	if taken && info.Priority < current.Priority {
		r.logger.Info("Plugin registration ignored",
			zap.String("plugin", info.Name),
			zap.Int("priority", info.Priority),
			zap.Int("kept_priority", current.Priority))
		return nil
	}
	if taken {
		r.logger.Info("Plugin replaced",
			zap.String("plugin", info.Name),
			zap.Int("from", current.Priority),
			zap.Int("to", info.Priority))
	} else {
		r.names = append(r.names, info.Name)
	}

	r.byName[info.Name] = info
	r.logger.Debug("Plugin registered",
		zap.String("plugin", info.Name),
		zap.Int("priority", info.Priority))
	return nil
}

// Lookup returns the registration for name
func (r *Registry) Lookup(name string) (Info, bool) {
	info, ok := r.byName[name]
	return info, ok
}

// Create runs the factory registered under name. The result is an Entry
// whose ID is the name, ready to pass to Manager.Plug.
func (r *Registry) Create(name string) (Entry, error) {
	info, ok := r.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q is not registered", ErrPluginNotFound, name)
	}
	value := info.Factory()
	if value == nil {
		return Entry{}, fmt.Errorf("plugin %s: factory returned nil", name)
	}
	return Entry{Plugin: value, ID: name}, nil
}

// CreateAll creates one plugin per name, in order. If any name fails, no
// entries are returned and the error lists every failure.
func (r *Registry) CreateAll(names ...string) ([]Entry, error) {
	entries := make([]Entry, 0, len(names))
	var errs error
	for _, name := range names {
		entry, err := r.Create(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		entries = append(entries, entry)
	}
	if errs != nil {
		return nil, errs
	}
	return entries, nil
}

// List returns every registration sorted by name
func (r *Registry) List() []Info {
	result := make([]Info, 0, len(r.byName))
	for _, info := range r.byName {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns registered names in first-registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

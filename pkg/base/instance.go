package base

import (
	"fmt"

	"basekit/pkg/attr"
	"basekit/pkg/lifecycle"
	"basekit/pkg/plugin"

	"go.uber.org/zap"
)

// Options are construction options: initial attribute values keyed by
// attribute, plus the reserved PluginsKey holding the initial plugins.
type Options map[string]any

// Option configures an instance before construction starts.
type Option func(*Instance)

// WithLogger sets the instance logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithObserver registers an observer for the instance's lifecycle events.
func WithObserver(observer lifecycle.Observer) Option {
	return func(i *Instance) {
		if observer != nil {
			i.observers = append(i.observers, observer)
		}
	}
}

// Attachment is a plugin attached to an instance.
type Attachment = plugin.Attachment[*Instance]

// Instance is a constructed object of some Class.
type Instance struct {
	id        uint64
	class     *Class
	machine   lifecycle.Machine
	attrs     *attr.Store
	plugins   *plugin.Manager[*Instance]
	logger    *zap.Logger
	observers []lifecycle.Observer
}

// New constructs an instance of class with the given options.
//
// If construction fails part-way, New returns the partially initialized
// instance along with the error; it is left in the Initializing state and
// may be torn down with Destroy. Malformed options are rejected before any
// step runs: the instance stays Created and Destroy simply discards it.
func New(class *Class, options Options, opts ...Option) (*Instance, error) {
	if class == nil {
		return nil, fmt.Errorf("class cannot be nil")
	}

	class.spawned++
	i := &Instance{
		id:     class.spawned,
		class:  class,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With(
		zap.String("class", class.name),
		zap.Uint64("instance", i.id))

	i.attrs = attr.NewStore(class.attrs, i.dispatchHook, i.logger)
	i.plugins = plugin.NewManager[*Instance](i, i.logger, pluginEvents{i})

	if err := i.construct(options); err != nil {
		i.logger.Debug("Construction failed",
			zap.Stringer("state", i.machine.State()),
			zap.Error(err))
		return i, err
	}
	return i, nil
}

// Class returns the class of the instance.
func (i *Instance) Class() *Class {
	return i.class
}

// ID returns the instance number, unique per class.
func (i *Instance) ID() uint64 {
	return i.id
}

// State returns the lifecycle state.
func (i *Instance) State() lifecycle.State {
	return i.machine.State()
}

// String returns a label identifying the instance.
func (i *Instance) String() string {
	return fmt.Sprintf("%s#%d", i.class, i.id)
}

// Get returns the value of an attribute. PluginsKey returns the active
// plugins as []*Attachment.
func (i *Instance) Get(key string) (any, error) {
	if key == PluginsKey {
		return i.Plugins(), nil
	}
	return i.attrs.Get(key)
}

// Set stores an attribute value and runs its change hook.
func (i *Instance) Set(key string, value any) error {
	if key == PluginsKey {
		return fmt.Errorf("%w: %q is read-only, use Plug and Unplug", ErrReservedAttribute, key)
	}
	if i.machine.State() == lifecycle.Destroyed {
		return fmt.Errorf("%w: cannot set %q on %s", ErrDestroyed, key, i)
	}
	return i.attrs.Set(key, value)
}

// Subscribe registers handler for changes to key, called after the hook.
func (i *Instance) Subscribe(key string, handler attr.ChangeHandler) (attr.Subscription, error) {
	return i.attrs.Subscribe(key, handler)
}

// Values returns a snapshot of all attribute values.
func (i *Instance) Values() map[string]any {
	return i.attrs.Values()
}

// Member returns the class member registered under name.
func (i *Instance) Member(name string) (any, bool) {
	return i.class.Member(name)
}

// Plugins returns the active plugins in attach order.
func (i *Instance) Plugins() []*Attachment {
	return i.plugins.Query()
}

// Plug attaches a plugin and runs its initializer immediately. p may be a
// plugin.Factory (or func() any), a plugin.Entry, or a plugin value.
func (i *Instance) Plug(p any, id ...string) (*Attachment, error) {
	if !i.machine.Alive() {
		return nil, fmt.Errorf("%w: cannot plug into %s", ErrDestroyed, i)
	}
	return i.plugins.Plug(p, id...)
}

// Unplug detaches the plugin matching target (the plugin value, its
// attachment, or its id) and runs its destructor. A nil target detaches
// every plugin.
func (i *Instance) Unplug(target any) error {
	if target == nil {
		return i.UnplugAll()
	}
	return i.plugins.Unplug(target)
}

// UnplugAll detaches every plugin in attach order.
func (i *Instance) UnplugAll() error {
	return i.plugins.UnplugAll()
}

func (i *Instance) emit(step lifecycle.Step, unit string) {
	if len(i.observers) == 0 {
		return
	}
	event := lifecycle.Event{
		Class:      i.class.String(),
		InstanceID: i.id,
		Step:       step,
		Unit:       unit,
	}
	for _, o := range i.observers {
		o.Observe(event)
	}
}

// pluginEvents forwards plugin manager notifications to observers.
type pluginEvents struct {
	i *Instance
}

func (p pluginEvents) PluginAttached(a *Attachment) {
	p.i.emit(lifecycle.StepPluginInit, pluginLabel(a))
}

func (p pluginEvents) PluginDetached(a *Attachment) {
	p.i.emit(lifecycle.StepPluginDestroy, pluginLabel(a))
}

func pluginLabel(a *Attachment) string {
	if a.ID != "" {
		return a.ID
	}
	return plugin.Describe(a.Plugin)
}

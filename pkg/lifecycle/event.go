package lifecycle

// Step identifies what happened in a lifecycle event.
type Step string

const (
	StepTransition       Step = "transition"
	StepExtensionInit    Step = "extension_init"
	StepAttributeHook    Step = "attribute_hook"
	StepInitializer      Step = "initializer"
	StepPluginInit       Step = "plugin_init"
	StepPluginDestroy    Step = "plugin_destroy"
	StepDestructor       Step = "destructor"
	StepExtensionDestroy Step = "extension_destroy"
)

// Event describes a completed lifecycle step of one instance.
type Event struct {
	// Class is the display label of the instance's class.
	Class string

	// InstanceID distinguishes instances of the same class.
	InstanceID uint64

	Step Step

	// Unit names the extension, plugin, attribute key or member involved.
	Unit string

	// From and To are set for StepTransition events.
	From State
	To   State
}

// Observer receives lifecycle events as they happen.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

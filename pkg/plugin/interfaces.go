// Package plugin provides runtime-attachable composition units. A Manager
// keeps the ordered list of plugins attached to one owner and fires their
// initializer and destructor hooks immediately on attach and detach. A
// Registry maps plugin names to factories so plugins can be selected by name
// from configuration.
package plugin

// Initializer is an optional interface for plugins that need to run when
// they are attached to an owner.
type Initializer[O any] interface {
	// PluginInitializer is called right after the plugin is appended to the
	// owner's active list.
	PluginInitializer(owner O) error
}

// Destructor is an optional interface for plugins that need to release
// resources when they are detached from an owner.
type Destructor[O any] interface {
	// PluginDestructor is called before the plugin is removed from the
	// owner's active list.
	PluginDestructor(owner O) error
}

// Identifier is an optional interface for plugins that carry their own
// identifying key, used by Unplug when no explicit id was given on Plug.
type Identifier interface {
	PluginID() string
}

// Factory builds a new plugin value. Factories passed to Plug are invoked
// with no arguments.
type Factory func() any

// Entry pairs a plugin (or factory) with an explicit identifying key.
// It is accepted anywhere a plugin is.
type Entry struct {
	Plugin any
	ID     string
}

// Attachment is a plugin attached to an owner.
type Attachment[O any] struct {
	// Plugin is the underlying plugin value.
	Plugin any

	// ID is the identifying key, empty when the plugin has none.
	ID string

	// Owner is the instance the plugin is attached to.
	Owner O

	// announced is set once listeners have been told about the attachment
	announced bool
}

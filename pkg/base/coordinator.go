package base

import (
	"fmt"

	"basekit/pkg/attr"
	"basekit/pkg/lifecycle"
	"basekit/pkg/plugin"

	"go.uber.org/zap"
)

// construct runs the construction sequence:
// extensions (forward), attribute hooks, initializer, initial plugins.
func (i *Instance) construct(options Options) error {
	initial, supplied, err := splitOptions(options)
	if err != nil {
		return err
	}

	if err := i.transition(lifecycle.Initializing); err != nil {
		return err
	}
	i.logger.Debug("Constructing instance",
		zap.Int("extensions", len(i.class.extensions)),
		zap.Int("plugins", len(initial)))

	for _, ext := range i.class.extensions {
		initializer, ok := ext.(ExtensionInitializer)
		if !ok {
			continue
		}
		if err := initializer.InitializeExtension(i); err != nil {
			return fmt.Errorf("extension %s initializer failed: %w", ext.ExtensionName(), err)
		}
		i.emit(lifecycle.StepExtensionInit, ext.ExtensionName())
	}

	if err := i.attrs.Initialize(supplied); err != nil {
		return err
	}

	if err := i.callMember(MemberInitializer, lifecycle.StepInitializer); err != nil {
		return err
	}

	for _, p := range initial {
		if _, err := i.plugins.Plug(p); err != nil {
			return err
		}
	}

	if err := i.transition(lifecycle.Active); err != nil {
		return err
	}
	i.logger.Debug("Instance active", zap.Int("plugins", i.plugins.Len()))
	return nil
}

// Destroy tears the instance down: plugins (attach order), destructor,
// extensions (reverse order). It fails with ErrDoubleDestroy if destruction
// has already started.
//
// A failing step aborts the rest and leaves the instance in Destroying.
func (i *Instance) Destroy() error {
	if i.machine.State() == lifecycle.Created {
		return i.discard()
	}

	prev, err := i.machine.BeginDestroy()
	if err != nil {
		return err
	}
	i.emitTransition(prev, lifecycle.Destroying)
	i.logger.Debug("Destroying instance", zap.Int("plugins", i.plugins.Len()))

	if err := i.plugins.UnplugAll(); err != nil {
		return err
	}

	if err := i.callMember(MemberDestructor, lifecycle.StepDestructor); err != nil {
		return err
	}

	for idx := len(i.class.extensions) - 1; idx >= 0; idx-- {
		ext := i.class.extensions[idx]
		destructor, ok := ext.(ExtensionDestructor)
		if !ok {
			continue
		}
		if err := destructor.DestroyExtension(i); err != nil {
			return fmt.Errorf("extension %s destructor failed: %w", ext.ExtensionName(), err)
		}
		i.emit(lifecycle.StepExtensionDestroy, ext.ExtensionName())
	}

	if err := i.transition(lifecycle.Destroyed); err != nil {
		return err
	}
	i.logger.Debug("Instance destroyed")
	return nil
}

// discard tears down an instance whose construction never started. No
// extension, hook or initializer ran, so only plugins plugged since then
// need releasing.
func (i *Instance) discard() error {
	if err := i.plugins.UnplugAll(); err != nil {
		return err
	}
	if err := i.transition(lifecycle.Destroyed); err != nil {
		return err
	}
	i.logger.Debug("Instance discarded before construction")
	return nil
}

// callMember invokes the most-derived lifecycle method name, if defined.
func (i *Instance) callMember(name string, step lifecycle.Step) error {
	member, ok := i.class.Member(name)
	if !ok {
		return nil
	}
	method, ok := member.(Method)
	if !ok {
		return nil
	}
	if err := method(i); err != nil {
		return fmt.Errorf("%s %s failed: %w", i.class, name, err)
	}
	i.emit(step, name)
	return nil
}

// dispatchHook invokes the change hook for def resolved through the
// most-derived member table.
func (i *Instance) dispatchHook(def attr.Definition, value any) error {
	member, ok := i.class.Member(def.HookName())
	if !ok {
		return nil
	}
	hook, ok := member.(Hook)
	if !ok {
		return nil
	}
	if err := hook(i, value); err != nil {
		return err
	}
	i.emit(lifecycle.StepAttributeHook, def.Key)
	return nil
}

func (i *Instance) transition(next lifecycle.State) error {
	prev, err := i.machine.Transition(next)
	if err != nil {
		return err
	}
	i.emitTransition(prev, next)
	return nil
}

func (i *Instance) emitTransition(from, to lifecycle.State) {
	for _, o := range i.observers {
		o.Observe(lifecycle.Event{
			Class:      i.class.String(),
			InstanceID: i.id,
			Step:       lifecycle.StepTransition,
			Unit:       to.String(),
			From:       from,
			To:         to,
		})
	}
}

// splitOptions separates the initial plugin list from attribute values.
func splitOptions(options Options) ([]any, map[string]any, error) {
	supplied := make(map[string]any, len(options))
	for key, value := range options {
		if key != PluginsKey {
			supplied[key] = value
		}
	}

	raw, ok := options[PluginsKey]
	if !ok || raw == nil {
		return nil, supplied, nil
	}

	var initial []any
	switch list := raw.(type) {
	case []any:
		initial = list
	case []plugin.Factory:
		for _, f := range list {
			initial = append(initial, f)
		}
	case []plugin.Entry:
		for _, e := range list {
			initial = append(initial, e)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q must be a list of plugins, got %T", ErrInvalidOptions, PluginsKey, raw)
	}

	for idx, p := range initial {
		if p == nil {
			return nil, nil, fmt.Errorf("%w: %q entry %d is nil", ErrInvalidOptions, PluginsKey, idx)
		}
	}
	return initial, supplied, nil
}

package main

import (
	"fmt"

	"basekit/pkg/attr"
	"basekit/pkg/base"
	"basekit/pkg/plugin"

	"go.uber.org/zap"
)

// demoClasses builds the Widget class and its Button subclass
func demoClasses(logger *zap.Logger) (*base.Class, *base.Class, error) {
	widget, err := base.Create(base.Members{
		"initializer": func(self *base.Instance) error {
			logger.Info("Widget initialized", zap.Stringer("instance", self))
			return nil
		},
		"destructor": func(self *base.Instance) error {
			logger.Info("Widget destroyed", zap.Stringer("instance", self))
			return nil
		},
		"onSetLabel": func(self *base.Instance, value any) error {
			logger.Info("Label changed", zap.Stringer("instance", self), zap.Any("label", value))
			return nil
		},
	}, base.StaticConfig{Name: "Widget", Attrs: []attr.Definition{
		{Key: "label", Default: "widget", Validator: requireString},
		{Key: "width", Default: 1, Setter: atLeastOne},
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Widget: %w", err)
	}

	bordered := &base.Ext{
		Name: "Bordered",
		Init: func(self *base.Instance) error {
			logger.Debug("Border attached", zap.Stringer("instance", self))
			return nil
		},
		Destroy: func(self *base.Instance) error {
			logger.Debug("Border removed", zap.Stringer("instance", self))
			return nil
		},
		Members: base.Members{"border": "solid"},
	}

	button, err := widget.Extend([]base.Extension{bordered}, base.Members{
		"onSetPressed": func(self *base.Instance, value any) error {
			logger.Info("Button state", zap.Stringer("instance", self), zap.Any("pressed", value))
			return nil
		},
	}, base.StaticConfig{Name: "Button", Attrs: []attr.Definition{
		{Key: "pressed", Default: false},
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Button: %w", err)
	}

	return widget, button, nil
}

func requireString(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected a string, got %T", value)
	}
	return nil
}

func atLeastOne(value any) (any, error) {
	n, ok := value.(int)
	if !ok {
		return nil, fmt.Errorf("expected an int, got %T", value)
	}
	if n < 1 {
		return 1, nil
	}
	return n, nil
}

// auditPlugin logs its own attachment
type auditPlugin struct {
	logger *zap.Logger
}

func (p *auditPlugin) PluginInitializer(self *base.Instance) error {
	p.logger.Info("Audit attached", zap.Stringer("instance", self), zap.Any("values", self.Values()))
	return nil
}

func (p *auditPlugin) PluginDestructor(self *base.Instance) error {
	p.logger.Info("Audit detached", zap.Stringer("instance", self))
	return nil
}

// clickPlugin counts transitions of the "pressed" attribute to true
type clickPlugin struct {
	logger *zap.Logger
	clicks int
	sub    attr.Subscription
}

func (p *clickPlugin) PluginInitializer(self *base.Instance) error {
	sub, err := self.Subscribe("pressed", func(key string, oldValue, newValue any) {
		if newValue == true && oldValue != true {
			p.clicks++
		}
	})
	if err != nil {
		return fmt.Errorf("clicks plugin needs a pressed attribute: %w", err)
	}
	p.sub = sub
	return nil
}

func (p *clickPlugin) PluginDestructor(self *base.Instance) error {
	if p.sub != nil {
		p.sub.Unsubscribe()
	}
	p.logger.Info("Click count", zap.Stringer("instance", self), zap.Int("clicks", p.clicks))
	return nil
}

// registerDemoPlugins registers the demo plugins by name
func registerDemoPlugins(registry *plugin.Registry, logger *zap.Logger) error {
	infos := []plugin.Info{
		{
			Name:        "audit",
			Description: "Logs attach and detach with the instance's attribute values",
			Priority:    plugin.PriorityDefault,
			Factory:     func() any { return &auditPlugin{logger: logger.Named("audit")} },
		},
		{
			Name:        "clicks",
			Description: "Counts presses of a button",
			Priority:    plugin.PriorityDefault,
			Factory:     func() any { return &clickPlugin{logger: logger.Named("clicks")} },
		},
	}
	for _, info := range infos {
		if err := registry.Register(info); err != nil {
			return err
		}
	}
	return nil
}

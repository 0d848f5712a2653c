// Package base is the object-composition core of basekit. It builds class
// descriptors through single inheritance (Class.Extend), composes them with
// build-time extensions, and constructs instances whose attributes dispatch
// change hooks and which accept runtime plugins.
//
// Construction runs extension initializers in declaration order, then
// attribute hooks in declaration order, then the class initializer, then the
// initial plugins. Destruction detaches plugins in attach order, then runs the
// class destructor, then extension destructors in reverse declaration order.
package base

import (
	"fmt"
	"reflect"

	"basekit/pkg/attr"
)

// Well-known member names.
const (
	MemberInitializer = "initializer"
	MemberDestructor  = "destructor"
)

// PluginsKey is the reserved option and read-only attribute key holding the
// instance's active plugins.
const PluginsKey = "plugins"

// Method is the signature of the initializer and destructor members.
type Method func(self *Instance) error

// Hook is the signature of attribute change hooks (members named "onSet<Key>").
type Hook func(self *Instance, value any) error

// Members is a table of named class members: lifecycle methods, attribute
// hooks, and arbitrary values shared by every instance.
type Members map[string]any

// StaticConfig carries the class-level configuration of Extend.
type StaticConfig struct {
	// Name labels the class in String() and logs.
	Name string

	// Attrs declares attributes in order. Keys already declared by an
	// ancestor keep their position and take the new definition.
	Attrs []attr.Definition
}

// Class is a class descriptor. It is immutable once built, apart from the
// per-class instance counter.
type Class struct {
	name       string
	parent     *Class
	extensions []Extension
	attrs      *attr.Table
	members    Members
	spawned    uint64
}

// Base is the root class every class descends from.
var Base = &Class{
	name:    "Base",
	attrs:   attr.NewTable(),
	members: Members{},
}

// Create builds a subclass of Base. See Class.ExtendWith for the accepted
// argument forms.
func Create(args ...any) (*Class, error) {
	return Base.ExtendWith(args...)
}

// ExtendWith is the loosely typed form of Extend, accepting
// (extensions, members, config) where extensions may be omitted:
//
//	c.ExtendWith(members)
//	c.ExtendWith(members, config)
//	c.ExtendWith(extensions, members)
//	c.ExtendWith(extensions, members, config)
//
// members may be Members or map[string]any; config may be StaticConfig or
// *StaticConfig.
func (c *Class) ExtendWith(args ...any) (*Class, error) {
	var extensions []Extension
	if len(args) > 0 {
		exts, ok, err := extensionList(args[0])
		if err != nil {
			return nil, err
		}
		if ok {
			extensions = exts
			args = args[1:]
		}
	}

	var members Members
	if len(args) > 0 {
		switch m := args[0].(type) {
		case Members:
			members = m
		case map[string]any:
			members = Members(m)
		case nil:
		default:
			return nil, fmt.Errorf("%w: members must be a member table, got %T", ErrInvalidMember, args[0])
		}
		args = args[1:]
	}

	var config []StaticConfig
	if len(args) > 0 {
		switch s := args[0].(type) {
		case StaticConfig:
			config = append(config, s)
		case *StaticConfig:
			if s != nil {
				config = append(config, *s)
			}
		case nil:
		default:
			return nil, fmt.Errorf("static config must be a StaticConfig, got %T", args[0])
		}
		args = args[1:]
	}

	if len(args) > 0 {
		return nil, fmt.Errorf("too many arguments to extend: %d unexpected", len(args))
	}

	return c.Extend(extensions, members, config...)
}

// Extend builds a subclass of c.
//
// Members compose in this order, later sources overriding earlier ones by
// name: c's members, each extension's members (without lifecycle methods),
// then members. The attribute table is c's table with config.Attrs merged in.
func (c *Class) Extend(extensions []Extension, members Members, config ...StaticConfig) (*Class, error) {
	var cfg StaticConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	for _, def := range cfg.Attrs {
		if def.Key == "" {
			return nil, fmt.Errorf("class %s: attribute key cannot be empty", displayName(cfg.Name))
		}
		if def.Key == PluginsKey {
			return nil, fmt.Errorf("%w: class %s declares %q", ErrReservedAttribute, displayName(cfg.Name), PluginsKey)
		}
	}

	attrs := c.attrs.Clone()
	attrs.Merge(cfg.Attrs)

	composed := make(Members, len(c.members)+len(members))
	for name, member := range c.members {
		composed[name] = member
	}

	for _, ext := range extensions {
		if ext == nil {
			return nil, fmt.Errorf("%w: class %s: extension cannot be nil", ErrInvalidExtension, displayName(cfg.Name))
		}
		contributor, ok := ext.(MemberContributor)
		if !ok {
			continue
		}
		for name, member := range contributor.ExtensionMembers() {
			if isLifecycleMember(name) {
				continue
			}
			composed[name] = member
		}
	}

	for name, member := range members {
		composed[name] = member
	}

	hooks := make(map[string]bool, attrs.Len())
	for _, def := range attrs.Definitions() {
		hooks[def.HookName()] = true
	}
	for name, member := range composed {
		normalized, err := normalizeMember(name, member, hooks)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", displayName(cfg.Name), err)
		}
		composed[name] = normalized
	}

	inherited := make([]Extension, 0, len(c.extensions)+len(extensions))
	inherited = append(inherited, c.extensions...)
	inherited = append(inherited, extensions...)

	return &Class{
		name:       displayName(cfg.Name),
		parent:     c,
		extensions: inherited,
		attrs:      attrs,
		members:    composed,
	}, nil
}

func displayName(name string) string {
	if name == "" {
		return "anonymous"
	}
	return name
}

func isLifecycleMember(name string) bool {
	return name == MemberInitializer || name == MemberDestructor
}

// normalizeMember checks that lifecycle methods and attribute hooks have the
// expected signature and converts plain function literals to Method/Hook.
func normalizeMember(name string, member any, hooks map[string]bool) (any, error) {
	if member == nil {
		return nil, nil
	}

	if isLifecycleMember(name) {
		switch fn := member.(type) {
		case Method:
			return fn, nil
		case func(*Instance) error:
			return Method(fn), nil
		default:
			return nil, fmt.Errorf("%w: %s must be func(*Instance) error, got %T", ErrInvalidMember, name, member)
		}
	}

	if hooks[name] {
		switch fn := member.(type) {
		case Hook:
			return fn, nil
		case func(*Instance, any) error:
			return Hook(fn), nil
		default:
			return nil, fmt.Errorf("%w: %s must be func(*Instance, any) error, got %T", ErrInvalidMember, name, member)
		}
	}

	return member, nil
}

// Name returns the configured class name.
func (c *Class) Name() string {
	return c.name
}

// String returns the display label of the class, containing its name.
func (c *Class) String() string {
	return fmt.Sprintf("basekit.Class(%s)", c.name)
}

// Parent returns the class c was extended from, nil for Base.
func (c *Class) Parent() *Class {
	return c.parent
}

// Extensions returns the extensions applied to c, inherited ones first.
func (c *Class) Extensions() []Extension {
	result := make([]Extension, len(c.extensions))
	copy(result, c.extensions)
	return result
}

// Attributes returns the merged attribute definitions in declaration order.
func (c *Class) Attributes() []attr.Definition {
	return c.attrs.Definitions()
}

// Member returns the composed member registered under name.
func (c *Class) Member(name string) (any, bool) {
	member, ok := c.members[name]
	if !ok || member == nil {
		return nil, false
	}
	return member, true
}

// IsSubclassOf reports whether c descends from (or is) ancestor.
func (c *Class) IsSubclassOf(ancestor *Class) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// extensionList reports whether arg is the extension argument of ExtendWith.
// Any slice counts, so []*Ext is accepted; an element that is not an
// Extension is an error.
func extensionList(arg any) ([]Extension, bool, error) {
	switch exts := arg.(type) {
	case []Extension:
		return exts, true, nil
	case nil, Members, map[string]any:
		return nil, false, nil
	}

	value := reflect.ValueOf(arg)
	if value.Kind() != reflect.Slice {
		return nil, false, nil
	}
	result := make([]Extension, 0, value.Len())
	for idx := 0; idx < value.Len(); idx++ {
		elem := value.Index(idx)
		ext, ok := elem.Interface().(Extension)
		if !ok {
			return nil, false, fmt.Errorf("%w: extensions %T element %d is %T, not an Extension",
				ErrInvalidExtension, arg, idx, elem.Interface())
		}
		if (elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface) && elem.IsNil() {
			return nil, false, fmt.Errorf("%w: extensions %T element %d is nil", ErrInvalidExtension, arg, idx)
		}
		result = append(result, ext)
	}
	return result, true, nil
}

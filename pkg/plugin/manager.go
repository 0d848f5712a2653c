package plugin

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ErrPluginNotFound is returned when an unplug target is not attached.
var ErrPluginNotFound = errors.New("plugin not found")

// Listener is notified after a plugin has been attached (its initializer
// succeeded) and after it has been detached (its destructor succeeded).
// A plugin whose initializer failed is reported neither way.
type Listener[O any] interface {
	PluginAttached(a *Attachment[O])
	PluginDetached(a *Attachment[O])
}

// Manager keeps the ordered list of plugins attached to a single owner.
type Manager[O any] struct {
	owner     O
	logger    *zap.Logger
	active    []*Attachment[O]
	listeners []Listener[O]

	// detaching holds plugins whose destructor is running
	detaching map[*Attachment[O]]bool
}

// NewManager creates a plugin manager for owner.
func NewManager[O any](owner O, logger *zap.Logger, listeners ...Listener[O]) *Manager[O] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager[O]{
		owner:     owner,
		logger:    logger.Named("plugins"),
		active:    make([]*Attachment[O], 0),
		listeners: listeners,
		detaching: make(map[*Attachment[O]]bool),
	}
}

// Plug attaches p to the owner and runs its initializer.
// p may be a Factory (or func() any), which is invoked with no arguments,
// an Entry carrying an explicit id, or a ready-made plugin value. An id given
// here takes precedence over Entry.ID, which takes precedence over
// Identifier.PluginID.
//
// The plugin is appended before its initializer runs; if the initializer
// fails the plugin stays attached and the error is returned.
func (m *Manager[O]) Plug(p any, id ...string) (*Attachment[O], error) {
	explicitID := ""
	if entry, ok := p.(Entry); ok {
		p = entry.Plugin
		explicitID = entry.ID
	}
	if len(id) > 0 && id[0] != "" {
		explicitID = id[0]
	}

	value, err := instantiate(p)
	if err != nil {
		return nil, err
	}

	if explicitID == "" {
		if identifier, ok := value.(Identifier); ok {
			explicitID = identifier.PluginID()
		}
	}

	attachment := &Attachment[O]{
		Plugin: value,
		ID:     explicitID,
		Owner:  m.owner,
	}
	m.active = append(m.active, attachment)

	m.logger.Debug("Plugin attached",
		zap.String("plugin", Describe(value)),
		zap.String("id", explicitID),
		zap.Int("active", len(m.active)))

	if initializer, ok := value.(Initializer[O]); ok {
		if err := initializer.PluginInitializer(m.owner); err != nil {
			return attachment, fmt.Errorf("plugin %s initializer failed: %w", Describe(value), err)
		}
	}

	attachment.announced = true
	for _, l := range m.listeners {
		l.PluginAttached(attachment)
	}
	return attachment, nil
}

func instantiate(p any) (any, error) {
	switch factory := p.(type) {
	case nil:
		return nil, fmt.Errorf("plugin cannot be nil")
	case Factory:
		return checkBuilt(factory())
	case func() any:
		return checkBuilt(factory())
	default:
		return p, nil
	}
}

func checkBuilt(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("plugin factory returned nil")
	}
	return value, nil
}

// Unplug detaches the plugin matching target and runs its destructor.
// target may be the plugin value, its *Attachment, or an identifying key.
// The plugin is removed only after its destructor succeeds.
//
// A destructor may itself unplug other plugins from the same owner. Asking
// to unplug a plugin whose destructor is already running is a no-op.
func (m *Manager[O]) Unplug(target any) error {
	index := m.indexOf(target)
	if index < 0 {
		return fmt.Errorf("%w: %v", ErrPluginNotFound, target)
	}
	attachment := m.active[index]
	if m.detaching[attachment] {
		return nil
	}

	if err := m.detach(attachment); err != nil {
		return err
	}

	m.logger.Debug("Plugin detached",
		zap.String("plugin", Describe(attachment.Plugin)),
		zap.String("id", attachment.ID),
		zap.Int("active", len(m.active)))
	return nil
}

// UnplugAll detaches every plugin in attach order. If a destructor fails,
// the plugins already detached stay removed and the rest stay attached.
//
// Each plugin is removed right after its destructor returns, so Len always
// matches the number of plugins not yet detached.
func (m *Manager[O]) UnplugAll() error {
	detached := 0
	for {
		attachment := m.nextToDetach()
		if attachment == nil {
			break
		}
		if err := m.detach(attachment); err != nil {
			m.logger.Debug("Plugin sweep stopped",
				zap.Int("detached", detached),
				zap.Int("active", len(m.active)),
				zap.Error(err))
			return err
		}
		detached++
	}

	m.logger.Debug("Plugins detached", zap.Int("detached", detached))
	return nil
}

// nextToDetach returns the first attached plugin whose destructor is not
// already running, or nil.
func (m *Manager[O]) nextToDetach() *Attachment[O] {
	for _, attachment := range m.active {
		if !m.detaching[attachment] {
			return attachment
		}
	}
	return nil
}

// detach runs the destructor of attachment and then removes it. The list is
// searched again afterwards because the destructor may have changed it.
func (m *Manager[O]) detach(attachment *Attachment[O]) error {
	m.detaching[attachment] = true
	err := m.destroy(attachment)
	delete(m.detaching, attachment)
	if err != nil {
		return err
	}

	if !m.remove(attachment) {
		return nil
	}
	if attachment.announced {
		for _, l := range m.listeners {
			l.PluginDetached(attachment)
		}
	}
	return nil
}

func (m *Manager[O]) remove(attachment *Attachment[O]) bool {
	for i, a := range m.active {
		if a == attachment {
			m.active = append(m.active[:i:i], m.active[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager[O]) destroy(attachment *Attachment[O]) error {
	if destructor, ok := attachment.Plugin.(Destructor[O]); ok {
		if err := destructor.PluginDestructor(m.owner); err != nil {
			return fmt.Errorf("plugin %s destructor failed: %w", Describe(attachment.Plugin), err)
		}
	}
	return nil
}

func (m *Manager[O]) indexOf(target any) int {
	if target == nil {
		return -1
	}
	if id, ok := target.(string); ok {
		for i, attachment := range m.active {
			if attachment.ID == id {
				return i
			}
		}
		return -1
	}
	if attachment, ok := target.(*Attachment[O]); ok {
		for i, a := range m.active {
			if a == attachment {
				return i
			}
		}
		return -1
	}
	if !reflect.TypeOf(target).Comparable() {
		return -1
	}
	for i, attachment := range m.active {
		if sameValue(attachment.Plugin, target) {
			return i
		}
	}
	return -1
}

func sameValue(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a == b
}

// Query returns the attached plugins in order.
func (m *Manager[O]) Query() []*Attachment[O] {
	result := make([]*Attachment[O], len(m.active))
	copy(result, m.active)
	return result
}

// Len returns the number of attached plugins.
func (m *Manager[O]) Len() int {
	return len(m.active)
}

// Describe returns a short label for a plugin value, used in logs and errors.
func Describe(p any) string {
	if identifier, ok := p.(Identifier); ok {
		return identifier.PluginID()
	}
	return fmt.Sprintf("%T", p)
}

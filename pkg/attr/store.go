package attr

import (
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher invokes the change hook registered for def, if any.
// It is called synchronously after the value has been stored.
type Dispatcher func(def Definition, value any) error

// ChangeHandler is called when an attribute value changes
type ChangeHandler func(key string, oldValue, newValue any)

// Subscription represents an active change subscription
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	key   string
	id    int
	store *Store
}

func (s *subscription) Unsubscribe() {
	s.store.unsubscribe(s.key, s.id)
}

type subscriber struct {
	id      int
	handler ChangeHandler
}

// Store holds the attribute values of a single instance.
type Store struct {
	table       *Table
	dispatch    Dispatcher
	logger      *zap.Logger
	values      map[string]any
	subscribers map[string][]subscriber
	nextID      int
}

// NewStore creates a store over table. dispatch may be nil, in which case
// no hooks are invoked.
func NewStore(table *Table, dispatch Dispatcher, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		table:       table,
		dispatch:    dispatch,
		logger:      logger.Named("attrs"),
		values:      make(map[string]any, table.Len()),
		subscribers: make(map[string][]subscriber),
	}
}

// Initialize assigns every declared attribute, in declaration order, from
// supplied or from its default, dispatching each hook as it goes. The
// iteration order of supplied has no effect on dispatch order.
func (s *Store) Initialize(supplied map[string]any) error {
	for key := range supplied {
		if _, ok := s.table.Lookup(key); !ok {
			s.logger.Debug("Ignoring undeclared option", zap.String("key", key))
		}
	}

	for _, def := range s.table.Definitions() {
		value, ok := supplied[def.Key]
		if !ok {
			value = def.Default
		}
		if err := s.assign(def, value); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the current value of key.
func (s *Store) Get(key string) (any, error) {
	if _, ok := s.table.Lookup(key); !ok {
		return nil, fmt.Errorf("%w: %q not found", ErrUndefinedAttribute, key)
	}
	return s.values[key], nil
}

// Set stores value under key and dispatches its hook.
func (s *Store) Set(key string, value any) error {
	def, ok := s.table.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q not found", ErrUndefinedAttribute, key)
	}
	return s.assign(def, value)
}

func (s *Store) assign(def Definition, value any) error {
	resolved, err := def.resolve(value)
	if err != nil {
		return fmt.Errorf("attribute %q rejected value: %w", def.Key, err)
	}

	oldValue := s.values[def.Key]
	s.values[def.Key] = resolved

	s.logger.Debug("Attribute set",
		zap.String("key", def.Key),
		zap.Any("old", oldValue),
		zap.Any("new", resolved))

	if s.dispatch != nil {
		if err := s.dispatch(def, resolved); err != nil {
			return fmt.Errorf("hook %s for %q failed: %w", def.HookName(), def.Key, err)
		}
	}

	s.notifySubscribers(def.Key, oldValue, resolved)
	return nil
}

// notifySubscribers notifies all subscribers of a change, in subscription order
func (s *Store) notifySubscribers(key string, oldValue, newValue any) {
	subs := s.subscribers[key]
	if len(subs) == 0 {
		return
	}
	handlers := make([]subscriber, len(subs))
	copy(handlers, subs)
	for _, sub := range handlers {
		sub.handler(key, oldValue, newValue)
	}
}

// Subscribe registers handler for changes to key.
func (s *Store) Subscribe(key string, handler ChangeHandler) (Subscription, error) {
	if _, ok := s.table.Lookup(key); !ok {
		return nil, fmt.Errorf("%w: %q not found", ErrUndefinedAttribute, key)
	}

	s.nextID++
	s.subscribers[key] = append(s.subscribers[key], subscriber{id: s.nextID, handler: handler})

	return &subscription{
		key:   key,
		id:    s.nextID,
		store: s,
	}, nil
}

func (s *Store) unsubscribe(key string, id int) {
	subs := s.subscribers[key]
	for i, sub := range subs {
		if sub.id == id {
			s.subscribers[key] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(s.subscribers[key]) == 0 {
		delete(s.subscribers, key)
	}
}

// Keys returns the attribute keys in declaration order.
func (s *Store) Keys() []string {
	return s.table.Keys()
}

// Values returns a snapshot of all stored values
func (s *Store) Values() map[string]any {
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return values
}

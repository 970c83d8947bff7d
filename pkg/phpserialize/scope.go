package phpserialize

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrUnknownClass is returned when a serialized object names a class that is
// not registered in the Scope.
var ErrUnknownClass = errors.New("phpserialize: unknown class")

// Scope maps PHP class names to Go struct types and back.
type Scope struct {
	mu      sync.RWMutex
	byClass map[string]func() interface{}
	byType  map[reflect.Type]string
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{
		byClass: make(map[string]func() interface{}),
		byType:  make(map[reflect.Type]string),
	}
}

// Register binds class to the type produced by factory. The factory must
// return a non-nil pointer to a struct; it is called once per decoded object.
func (s *Scope) Register(class string, factory func() interface{}) error {
	if class == "" {
		return errors.New("phpserialize: empty class name")
	}
	sample := factory()
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("phpserialize: factory for %s must return a struct pointer, got %T", class, sample)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byClass[class]; ok {
		return fmt.Errorf("phpserialize: class %s already registered", class)
	}
	s.byClass[class] = factory
	s.byType[t.Elem()] = class
	return nil
}

// New constructs a fresh instance for class.
func (s *Scope) New(class string) (interface{}, error) {
	s.mu.RLock()
	factory, ok := s.byClass[class]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	return factory(), nil
}

// ClassOf returns the class name registered for the struct type of v.
func (s *Scope) ClassOf(v interface{}) (string, bool) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return s.classOfType(t)
}

func (s *Scope) classOfType(t reflect.Type) (string, bool) {
	if s == nil || t == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	class, ok := s.byType[t]
	return class, ok
}

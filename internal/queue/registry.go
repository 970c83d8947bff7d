package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/amankumarsingh77/episode-transcoder/pkg/phpserialize"
)

// Kind tells the dispatcher what to do with a decoded command.
type Kind int

const (
	// Executable commands run their Handle method in this worker.
	Executable Kind = iota + 1
	// EventOnly commands are plain data handed to the OnJob callback.
	EventOnly
)

func (k Kind) String() string {
	switch k {
	case Executable:
		return "executable"
	case EventOnly:
		return "event-only"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Handler is implemented by executable commands.
type Handler interface {
	Handle(ctx context.Context) error
}

// Registry is the closed set of commands this worker understands, keyed by
// the PHP class name carried in the payload.
type Registry struct {
	mu    sync.RWMutex
	scope *phpserialize.Scope
	kinds map[string]Kind
}

func NewRegistry() *Registry {
	return &Registry{
		scope: phpserialize.NewScope(),
		kinds: make(map[string]Kind),
	}
}

// Executable registers a command that runs locally. factory must return a
// pointer to a struct; decoded properties are written onto it.
func (r *Registry) Executable(class string, factory func() Handler) error {
	return r.register(class, Executable, func() interface{} { return factory() })
}

// EventOnly registers a data-only command.
func (r *Registry) EventOnly(class string, factory func() interface{}) error {
	return r.register(class, EventOnly, factory)
}

func (r *Registry) register(class string, kind Kind, factory func() interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.scope.Register(class, factory); err != nil {
		return err
	}
	r.kinds[class] = kind
	return nil
}

func (r *Registry) Kind(class string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[class]
	return k, ok
}

func (r *Registry) Scope() *phpserialize.Scope {
	return r.scope
}

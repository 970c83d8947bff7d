package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/amankumarsingh77/episode-transcoder/pkg/phpserialize"
)

// JobEvent is raised for event-only commands.
type JobEvent struct {
	Name string
	Data interface{}
}

// Dispatcher rebuilds commands from their serialized form and routes them by
// Kind.
type Dispatcher struct {
	registry *Registry
	onJob    func(JobEvent)
}

func NewDispatcher(registry *Registry, onJob func(JobEvent)) *Dispatcher {
	return &Dispatcher{registry: registry, onJob: onJob}
}

// Decode reconstructs the command carried by payload and checks that its
// class is the one name announces.
func (d *Dispatcher) Decode(name, payload string) (interface{}, Kind, error) {
	kind, ok := d.registry.Kind(name)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	cmd, err := unmarshal(payload, d.registry.Scope())
	if errors.Is(err, phpserialize.ErrUnknownClass) {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrUnknownCommand, name, err)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrDeserialize, name, err)
	}
	if class, _ := d.registry.Scope().ClassOf(cmd); class != name {
		return nil, 0, fmt.Errorf("%w: %s carries a %s payload", ErrDeserialize, name, class)
	}
	return cmd, kind, nil
}

func unmarshal(payload string, scope *phpserialize.Scope) (cmd interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			cmd, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return phpserialize.Unmarshal([]byte(payload), scope)
}

// Dispatch decodes payload and either runs it or raises a JobEvent.
func (d *Dispatcher) Dispatch(ctx context.Context, name, payload string) error {
	cmd, kind, err := d.Decode(name, payload)
	if err != nil {
		return err
	}

	switch kind {
	case Executable:
		h, ok := cmd.(Handler)
		if !ok {
			return fmt.Errorf("%w: %s is not executable", ErrUnknownCommand, name)
		}
		if err := h.Handle(ctx); err != nil {
			return fmt.Errorf("job %s: %w", name, err)
		}
	case EventOnly:
		if d.onJob != nil {
			d.onJob(JobEvent{Name: name, Data: cmd})
		}
	default:
		return fmt.Errorf("%w: %s has kind %s", ErrUnknownCommand, name, kind)
	}
	return nil
}

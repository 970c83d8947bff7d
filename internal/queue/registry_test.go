package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKinds(t *testing.T) {
	reg := testRegistry(t, &recorder{})

	k, ok := reg.Kind(runClass)
	assert.True(t, ok)
	assert.Equal(t, Executable, k)

	k, ok = reg.Kind(notifyClass)
	assert.True(t, ok)
	assert.Equal(t, EventOnly, k)

	_, ok = reg.Kind("Other")
	assert.False(t, ok)

	assert.Error(t, reg.EventOnly(runClass, func() interface{} { return &thingUpdated{} }), "duplicate class")
	assert.Equal(t, "event-only", EventOnly.String())
}

func TestDispatchExecutablePassesContext(t *testing.T) {
	rec := &recorder{}
	reg := testRegistry(t, rec)
	d := NewDispatcher(reg, nil)

	payload := `O:17:"App\Jobs\RunThing":1:{s:4:"name";s:5:"ep-10";}`
	require.NoError(t, d.Dispatch(context.Background(), runClass, payload))
	assert.Equal(t, []string{"ep-10"}, rec.ran())

	err := d.Dispatch(context.Background(), notifyClass, payload)
	assert.True(t, errors.Is(err, ErrDeserialize), "payload class must match command name")
}

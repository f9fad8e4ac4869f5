package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherFansOutToTypeAndWildcard(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var typed, wildcard []EventType
	dispatcher.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		typed = append(typed, event.Type)
		return nil
	})
	dispatcher.Subscribe(EventAny, func(ctx context.Context, event Event) error {
		wildcard = append(wildcard, event.Type)
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventEscalated}))

	assert.Equal(t, []EventType{EventTicketCreated}, typed)
	assert.Equal(t, []EventType{EventTicketCreated, EventEscalated}, wildcard)
}

func TestDispatcherHandlerErrorDoesNotStopFanOut(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	calls := 0
	dispatcher.Subscribe(EventReopened, func(ctx context.Context, event Event) error {
		calls++
		return assert.AnError
	})
	dispatcher.Subscribe(EventReopened, func(ctx context.Context, event Event) error {
		calls++
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventReopened}))
	assert.Equal(t, 2, calls)
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var created, reopened []Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		created = append(created, e)
		return nil
	})
	d.Subscribe(EventTicketReopened, func(ctx context.Context, e Event) error {
		reopened = append(reopened, e)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "IN00000001"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "IN00000002"}))

	assert.Len(t, created, 2)
	assert.Empty(t, reopened)
	assert.Equal(t, "IN00000001", created[0].TicketID)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	second := false
	d.Subscribe(EventNoteAdded, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventNoteAdded, func(ctx context.Context, e Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventNoteAdded}))
	assert.True(t, second)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
}

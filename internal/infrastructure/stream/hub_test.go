package stream

import (
	"context"
	"testing"

	"emergency-fund/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishFiltersByDemand(t *testing.T) {
	hub := NewHub()
	all := &Client{ID: "all", Channel: make(chan domain.Event, 4)}
	one := &Client{ID: "one", DemandID: "D_1", Channel: make(chan domain.Event, 4)}
	hub.Register(all)
	hub.Register(one)
	assert.Equal(t, 2, hub.ClientCount())

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, domain.Event{Type: domain.EventDemandCreated, DemandID: "D_1"}))
	require.NoError(t, hub.Publish(ctx, domain.Event{Type: domain.EventDemandCreated, DemandID: "D_2"}))

	assert.Len(t, all.Channel, 2)
	require.Len(t, one.Channel, 1)
	assert.Equal(t, "D_1", (<-one.Channel).DemandID)
}

func TestHub_FullChannelDropsEvent(t *testing.T) {
	hub := NewHub()
	slow := &Client{ID: "slow", Channel: make(chan domain.Event, 1)}
	hub.Register(slow)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, domain.Event{Type: domain.EventDemandCreated, DemandID: "D_1"}))
	require.NoError(t, hub.Publish(ctx, domain.Event{Type: domain.EventDemandAccepted, DemandID: "D_1"}))

	require.Len(t, slow.Channel, 1)
	assert.Equal(t, domain.EventDemandCreated, (<-slow.Channel).Type)
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "c", Channel: make(chan domain.Event, 1)}
	hub.Register(client)

	hub.Unregister("c")
	hub.Unregister("c")
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-client.Channel
	assert.False(t, open)

	// publishing with no clients is a no-op
	assert.NoError(t, hub.Publish(context.Background(), domain.Event{Type: domain.EventDemandDeleted}))
}

package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusRoutesByBoard(t *testing.T) {
	bus := NewEventBus()
	chA, cancelA := bus.Subscribe("board-a")
	defer cancelA()
	chB, cancelB := bus.Subscribe("board-b")
	defer cancelB()

	bus.Publish(Event{Type: "card.created", BoardID: "board-a", Payload: map[string]any{"id": "card-1"}})

	select {
	case raw := <-chA:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, "card.created", ev.Type)
		assert.Equal(t, "board-a", ev.BoardID)
	case <-time.After(time.Second):
		t.Fatal("subscriber on board-a got nothing")
	}

	select {
	case <-chB:
		t.Fatal("board-b subscriber must not see board-a events")
	default:
	}
}

func TestEventBusDropsWhenSubscriberIsSlow(t *testing.T) {
	bus := NewEventBus()
	ch, cancel := bus.Subscribe("board-a")
	defer cancel()

	// fill the buffer and then some; Publish must never block
	for i := 0; i < 50; i++ {
		bus.Publish(Event{Type: "card.updated", BoardID: "board-a"})
	}
	assert.Equal(t, 16, len(ch), "overflow beyond the buffer is dropped")
}

func TestEventBusCancelRemovesSubscription(t *testing.T) {
	bus := NewEventBus()
	_, cancel := bus.Subscribe("board-a")
	cancel()
	// must not panic writing to a closed channel
	bus.Publish(Event{Type: "card.updated", BoardID: "board-a"})
}

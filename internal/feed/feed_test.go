package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/hexrealm/taurion-gsp/internal/engine"
)

func TestHubRegisterAndUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{
		subscriptions: make(map[EventType]bool),
		send:          make(chan []byte, 4),
		hub:           h,
	}

	h.register <- client
	waitUntil(t, func() bool { return h.ClientCount() == 1 })

	h.unregister <- client
	waitUntil(t, func() bool { return h.ClientCount() == 0 })
}

func TestBroadcastDeliversToSubscribedClientsOnly(t *testing.T) {
	h := NewHub()
	go h.Run()

	subscribed := &Client{
		subscriptions: map[EventType]bool{EventBlockCommitted: true},
		send:          make(chan []byte, 4),
		hub:           h,
	}
	everything := &Client{
		subscriptions: make(map[EventType]bool),
		send:          make(chan []byte, 4),
		hub:           h,
	}

	h.register <- subscribed
	h.register <- everything
	waitUntil(t, func() bool { return h.ClientCount() == 2 })

	h.Broadcast(EventBlockCommitted, map[string]int{"height": 1})

	select {
	case <-subscribed.send:
	case <-time.After(time.Second):
		t.Error("subscribed client never received the broadcast event")
	}
	select {
	case <-everything.send:
	case <-time.After(time.Second):
		t.Error("client with an empty subscription set never received the broadcast event")
	}
}

func TestPushBlockWrapsResultAsBlockCommittedEvent(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := &Client{
		subscriptions: make(map[EventType]bool),
		send:          make(chan []byte, 4),
		hub:           h,
	}
	h.register <- client
	waitUntil(t, func() bool { return h.ClientCount() == 1 })

	h.PushBlock(&engine.BlockResult{Height: 7, Commitment: "deadbeef"})

	select {
	case data := <-client.send:
		if !containsAll(string(data), `"type":"block_committed"`, `"height":7`, `"deadbeef"`) {
			t.Errorf("unexpected pushed event payload: %s", data)
		}
	case <-time.After(time.Second):
		t.Error("client never received the pushed block event")
	}
}

func TestHandleSubscriptionTracksEventTypes(t *testing.T) {
	c := &Client{subscriptions: make(map[EventType]bool)}

	c.handleSubscription(&Subscription{Action: "subscribe", Events: []string{string(EventBlockCommitted)}})
	if !c.subscriptions[EventBlockCommitted] {
		t.Fatal("subscribe action did not record the event type")
	}

	c.handleSubscription(&Subscription{Action: "unsubscribe", Events: []string{string(EventBlockCommitted)}})
	if c.subscriptions[EventBlockCommitted] {
		t.Fatal("unsubscribe action did not remove the event type")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(h *Hub, id, userID string) *client {
	return &client{
		id:     id,
		userID: userID,
		hub:    h,
		send:   make(chan []byte, sendBuffer),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func recvFrame(t *testing.T, c *client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame received")
		return Envelope{}
	}
}

func TestHubNotifyUserDeliversToAllConnections(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c1 := newTestClient(h, "c1", "user-1")
	c2 := newTestClient(h, "c2", "user-1")
	h.register <- c1
	h.register <- c2
	waitFor(t, func() bool { return h.ConnectionCount("user-1") == 2 })

	n := h.NotifyUser("user-1", "message.new", map[string]string{"body": "hi"})
	if n != 2 {
		t.Fatalf("expected 2 connections reached, got %d", n)
	}

	for _, c := range []*client{c1, c2} {
		env := recvFrame(t, c)
		if env.Event != "message.new" {
			t.Fatalf("unexpected event: %s", env.Event)
		}
	}
}

func TestHubNotifyUserOffline(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	if n := h.NotifyUser("ghost", "message.new", nil); n != 0 {
		t.Fatalf("expected 0 for offline user, got %d", n)
	}
}

func TestHubBroadcastReachesEveryUser(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c1 := newTestClient(h, "c1", "user-1")
	c2 := newTestClient(h, "c2", "user-2")
	h.register <- c1
	h.register <- c2
	waitFor(t, func() bool {
		return h.ConnectionCount("user-1") == 1 && h.ConnectionCount("user-2") == 1
	})

	h.Broadcast("post.likes", map[string]int{"like_count": 3})

	for _, c := range []*client{c1, c2} {
		env := recvFrame(t, c)
		if env.Event != "post.likes" {
			t.Fatalf("unexpected event: %s", env.Event)
		}
	}
}

func TestHubUnregisterClosesSendAndDropsUser(t *testing.T) {
	h := NewHub(nil)
	go h.Run()

	c := newTestClient(h, "c1", "user-1")
	h.register <- c
	waitFor(t, func() bool { return h.ConnectionCount("user-1") == 1 })

	h.unregister <- c
	waitFor(t, func() bool { return h.ConnectionCount("user-1") == 0 })

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected closed send channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send channel not closed")
	}

	if n := h.NotifyUser("user-1", "message.new", nil); n != 0 {
		t.Fatalf("expected 0 after disconnect, got %d", n)
	}
}

func TestClientPushDropsWhenBufferFull(t *testing.T) {
	c := &client{send: make(chan []byte, 2)}

	c.push([]byte("a"))
	c.push([]byte("b"))
	c.push([]byte("c"))

	if got := len(c.send); got != 2 {
		t.Fatalf("expected buffer to stay at capacity, got %d", got)
	}
}

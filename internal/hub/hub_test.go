package hub

import (
	"errors"
	"sync"
	"testing"
)

// fakeConn records delivered envelopes and can be set to fail writes.
type fakeConn struct {
	mu     sync.Mutex
	sent   []Envelope
	fail   bool
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, v.(Envelope))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestSendToRegisteredSubscriber(t *testing.T) {
	h := New()
	conn := &fakeConn{}
	h.Connect("alice", conn)

	h.Send("alice", Envelope{Type: TypeNotification, Data: "hi"})

	if conn.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", conn.count())
	}
}

func TestSendToUnknownIsDropped(t *testing.T) {
	h := New()
	h.Send("ghost", Envelope{Type: TypeNotification})
	// no panic, nothing to assert beyond registry staying empty
	if h.Count() != 0 {
		t.Errorf("registry should stay empty, got %d", h.Count())
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := New()
	alice, bob := &fakeConn{}, &fakeConn{}
	h.Connect("alice", alice)
	h.Connect("bob", bob)

	h.Broadcast(Envelope{Type: TypeSystemMessage, Data: "x"}, "alice")

	if alice.count() != 0 {
		t.Errorf("sender must be excluded, got %d deliveries", alice.count())
	}
	if bob.count() != 1 {
		t.Errorf("expected bob to receive 1 message, got %d", bob.count())
	}
}

func TestBroadcastRemovesDeadSubscriber(t *testing.T) {
	h := New()
	dead := &fakeConn{fail: true}
	h.Connect("dead", dead)

	live := make([]*fakeConn, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		live[i] = &fakeConn{}
		h.Connect(id, live[i])
	}

	h.NotifyThreat(map[string]string{"title": "incident"})

	if h.Count() != 4 {
		t.Errorf("dead subscriber should be deregistered, registry has %d", h.Count())
	}
	for i, conn := range live {
		if conn.count() != 1 {
			t.Errorf("live subscriber %d received %d copies, want exactly 1", i, conn.count())
		}
	}
	if !dead.closed {
		t.Error("dead connection should be closed")
	}
}

func TestReconnectReplacesConnection(t *testing.T) {
	h := New()
	old, fresh := &fakeConn{}, &fakeConn{}
	h.Connect("alice", old)
	h.Connect("alice", fresh)

	if h.Count() != 1 {
		t.Fatalf("expected single registration, got %d", h.Count())
	}
	if !old.closed {
		t.Error("replaced connection should be closed")
	}

	h.Send("alice", Envelope{Type: TypePong})
	if fresh.count() != 1 || old.count() != 0 {
		t.Errorf("delivery went to the wrong connection: old=%d fresh=%d", old.count(), fresh.count())
	}
}

func TestStaleHandlerDisconnectKeepsReplacement(t *testing.T) {
	h := New()
	old, fresh := &fakeConn{}, &fakeConn{}
	h.Connect("alice", old)
	h.Connect("alice", fresh)

	// The old handler's read loop errors out after Connect closed its
	// connection; its exit path must only tear down its own registration.
	h.DisconnectConn("alice", old)

	if h.Count() != 1 {
		t.Fatalf("replacement should stay registered, got %d", h.Count())
	}
	if fresh.closed {
		t.Error("replacement connection must not be closed")
	}
	h.Send("alice", Envelope{Type: TypeThreatAlert})
	if fresh.count() != 1 {
		t.Errorf("replacement should keep receiving, got %d deliveries", fresh.count())
	}

	h.DisconnectConn("alice", fresh)
	if h.Count() != 0 || !fresh.closed {
		t.Error("owning handler should remove its own connection")
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	h := New()
	h.Connect("alice", &fakeConn{})
	h.Disconnect("alice")
	h.Disconnect("alice")
	h.Disconnect("never-connected")

	if h.Count() != 0 {
		t.Errorf("expected empty registry, got %d", h.Count())
	}
}

func TestConcurrentBroadcastAndDisconnect(t *testing.T) {
	h := New()
	conns := make([]*fakeConn, 20)
	for i := range conns {
		conns[i] = &fakeConn{}
		h.Connect(string(rune('a'+i)), conns[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.NotifyThreat("payload")
		}()
		go func(i int) {
			defer wg.Done()
			h.Disconnect(string(rune('a' + i)))
		}(i)
	}
	wg.Wait()

	if h.Count() != 10 {
		t.Errorf("expected 10 remaining subscribers, got %d", h.Count())
	}
}

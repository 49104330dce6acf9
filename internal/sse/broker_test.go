package sse

import (
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.Publish(Event{Type: "vault.changed", Data: map[string]string{"id": "n1"}})

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: vault.changed") {
		t.Errorf("missing event type: %q", msg)
	}
	if !strings.Contains(msg, `"id":"n1"`) {
		t.Errorf("missing payload: %q", msg)
	}
	if !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("frame not terminated: %q", msg)
	}
}

func TestPublishFansOut(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	one := b.Subscribe()
	two := b.Subscribe()
	b.Publish(Event{Type: "ping", Data: map[string]string{}})

	if msg := recv(t, one); !strings.Contains(msg, "ping") {
		t.Errorf("one: %q", msg)
	}
	if msg := recv(t, two); !strings.Contains(msg, "ping") {
		t.Errorf("two: %q", msg)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after unsubscribe")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after broker close")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed")
	}

	// Publishing after close must not panic or block.
	b.Publish(Event{Type: "late", Data: nil})
}

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

func expectNone(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected event: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishChangeReachesSubscribers(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ch := b.Subscribe()
	b.PublishChange("musician", "updated", 7)

	msg := recv(t, ch)
	if !strings.Contains(msg, "event: musician.updated") {
		t.Errorf("event line missing: %q", msg)
	}
	if !strings.Contains(msg, `"id":7`) {
		t.Errorf("payload missing id: %q", msg)
	}
	if !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("frame not terminated: %q", msg)
	}
}

func TestSummaryThrottle(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()

	b.PublishChange("performance", "created", 1)
	first := recv(t, ch)
	if !strings.Contains(first, "performance.created") {
		t.Fatalf("first = %q", first)
	}
	summary := recv(t, ch)
	if !strings.Contains(summary, "summary.updated") {
		t.Fatalf("summary = %q", summary)
	}

	// A second performance change inside the throttle window emits only
	// the change event.
	b.PublishChange("performance", "updated", 1)
	second := recv(t, ch)
	if !strings.Contains(second, "performance.updated") {
		t.Fatalf("second = %q", second)
	}
	expectNone(t, ch)
}

func TestNonPerformanceChangeSkipsSummary(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()

	b.PublishChange("album", "created", 3)
	msg := recv(t, ch)
	if !strings.Contains(msg, "album.created") {
		t.Fatalf("msg = %q", msg)
	}
	expectNone(t, ch)
}

func TestClientCountAndUnsubscribe(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Errorf("ClientCount = %d, want 2", n)
	}

	b.Unsubscribe(a)
	if n := b.ClientCount(); n != 1 {
		t.Errorf("ClientCount after unsubscribe = %d, want 1", n)
	}
	if _, ok := <-a; ok {
		t.Error("unsubscribed channel not closed")
	}

	b.Publish(Event{Type: "ping", Data: map[string]string{}})
	if msg := recv(t, c); !strings.Contains(msg, "event: ping") {
		t.Errorf("remaining client missed event: %q", msg)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()

	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel not closed on shutdown")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after close = %d", n)
	}

	// Post-close operations are no-ops, and new subscribers get a
	// closed channel.
	b.PublishChange("musician", "updated", 1)
	late := b.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribe after close returned an open channel")
	}
}

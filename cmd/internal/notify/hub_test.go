package notify

import (
	"testing"
	"time"
)

func TestHub_PublishReachesAllUserSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch1, cancel1 := h.Subscribe("u1")
	defer cancel1()
	ch2, cancel2 := h.Subscribe("u1")
	defer cancel2()
	other, cancelOther := h.Subscribe("u2")
	defer cancelOther()

	h.Publish("u1", Notification{ID: "n1", Kind: KindResourceShared})

	for i, ch := range []<-chan Notification{ch1, ch2} {
		select {
		case n := <-ch:
			if n.ID != "n1" {
				t.Fatalf("subscriber %d got %q", i, n.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d got nothing", i)
		}
	}

	select {
	case n := <-other:
		t.Fatalf("u2 received u1's notification: %+v", n)
	default:
	}
}

func TestHub_CancelRemovesSubscriptionAndIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch, cancel := h.Subscribe("u1")

	if got := h.SubscriberCount("u1"); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	cancel()
	cancel()

	if got := h.SubscriberCount("u1"); got != 0 {
		t.Fatalf("subscriber count after cancel = %d, want 0", got)
	}
	if _, open := <-ch; open {
		t.Fatalf("channel still open after cancel")
	}

	// Publishing after cancel must not panic or deliver.
	h.Publish("u1", Notification{ID: "n2"})
}

func TestHub_SlowSubscriberLosesFramesWithoutBlocking(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			h.Publish("u1", Notification{ID: "n"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered = %d, want %d", got, subscriberBuffer)
	}
}

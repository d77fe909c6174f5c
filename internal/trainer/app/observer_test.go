package app

import (
	"testing"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	first, cancelFirst := h.Subscribe("sess-1")
	second, cancelSecond := h.Subscribe("sess-1")
	defer cancelFirst()
	defer cancelSecond()

	h.Publish(Snapshot{SessionID: "sess-1", TurnIndex: 1, Phase: session.PhaseActive})

	for i, ch := range []<-chan Snapshot{first, second} {
		select {
		case snap := <-ch:
			if snap.TurnIndex != 1 {
				t.Fatalf("subscriber %d: unexpected snapshot %+v", i, snap)
			}
		default:
			t.Fatalf("subscriber %d: no snapshot delivered", i)
		}
	}
}

func TestHubPublishIgnoresOtherSessions(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("sess-1")
	defer cancel()

	h.Publish(Snapshot{SessionID: "sess-2", TurnIndex: 1})

	select {
	case snap := <-ch:
		t.Fatalf("received snapshot for another session: %+v", snap)
	default:
	}
}

func TestHubSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("sess-1")
	defer cancel()

	// Publish past the buffer capacity without a reader. Every call must
	// return; overflow snapshots are dropped for this subscriber.
	for i := 1; i <= snapshotBuffer+5; i++ {
		h.Publish(Snapshot{SessionID: "sess-1", TurnIndex: i})
	}

	received := 0
	for {
		select {
		case snap := <-ch:
			received++
			if snap.TurnIndex != received {
				t.Fatalf("expected oldest-first delivery, got turn %d at position %d", snap.TurnIndex, received)
			}
		default:
			if received != snapshotBuffer {
				t.Fatalf("expected %d buffered snapshots, got %d", snapshotBuffer, received)
			}
			return
		}
	}
}

func TestHubCancelIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("sess-1")

	cancel()
	cancel() // second call must not panic on a closed channel

	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}

	// Publishing after cancel is a no-op.
	h.Publish(Snapshot{SessionID: "sess-1", TurnIndex: 1})
}

func TestHubCloseSessionClosesAllSubscribers(t *testing.T) {
	h := NewHub()
	first, cancelFirst := h.Subscribe("sess-1")
	second, _ := h.Subscribe("sess-1")
	other, cancelOther := h.Subscribe("sess-2")
	defer cancelOther()

	h.Publish(Snapshot{SessionID: "sess-1", TurnIndex: 1, Mood: mood.State{Interest: 40}})
	h.CloseSession("sess-1")

	// Buffered snapshots drain before the close is observed.
	if snap, ok := <-first; !ok || snap.TurnIndex != 1 {
		t.Fatalf("expected buffered snapshot before close, got ok=%v", ok)
	}
	if _, ok := <-first; ok {
		t.Fatal("expected first subscriber closed")
	}
	if snap, ok := <-second; !ok || snap.TurnIndex != 1 {
		t.Fatalf("expected buffered snapshot on second subscriber, got ok=%v", ok)
	}
	if _, ok := <-second; ok {
		t.Fatal("expected second subscriber closed")
	}

	// Unrelated sessions are untouched.
	select {
	case <-other:
		t.Fatal("unrelated subscriber received data or close")
	default:
	}

	// Cancel after CloseSession must not double-close.
	cancelFirst()
}

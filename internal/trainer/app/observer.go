package app

import (
	"sync"

	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/behavior"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/mood"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/score"
	"github.com/pitchdojo/pitchdojo/internal/trainer/domain/session"
)

// Snapshot is the incremental state pushed to live observers after each turn.
type Snapshot struct {
	SessionID    string
	TurnIndex    int
	Phase        session.Phase
	Mood         mood.State
	Tags         []behavior.Tag
	ProspectLine string
	// ProspectTags are the generator's hints about its own line, ordered by
	// the action catalog's priority table.
	ProspectTags []behavior.Tag
	// Degraded marks a turn whose prospect line came from the scripted
	// fallback because the generation collaborator failed or timed out.
	Degraded bool
	// Final marks the last snapshot of a session; Report is set on it.
	Final  bool
	Report *score.Report
}

// snapshotBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind loses snapshots rather than blocking the pipeline.
const snapshotBuffer = 16

// Hub fans session snapshots out to zero or more subscribers per session id.
// Delivery is best-effort: a missing or slow subscriber never blocks or
// fails the turn pipeline.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Snapshot
	nextID int
}

// NewHub creates an empty observer hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Snapshot)}
}

// Subscribe registers an observer for a session id. The returned cancel
// function unsubscribes and closes the channel; it is idempotent.
func (h *Hub) Subscribe(sessionID string) (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Snapshot, snapshotBuffer)
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan Snapshot)
	}
	id := h.nextID
	h.nextID++
	h.subs[sessionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if channels, ok := h.subs[sessionID]; ok {
				if current, ok := channels[id]; ok {
					delete(channels, id)
					close(current)
				}
				if len(channels) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
	return ch, cancel
}

// Publish delivers a snapshot to all subscribers of its session id without
// blocking: a full subscriber buffer drops the snapshot for that subscriber.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[snap.SessionID] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// CloseSession closes and removes every subscriber for the session id,
// signalling that no further snapshots will arrive.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs[sessionID] {
		delete(h.subs[sessionID], id)
		close(ch)
	}
	delete(h.subs, sessionID)
}

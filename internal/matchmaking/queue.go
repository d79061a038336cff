// internal/matchmaking/queue.go
//
// Rating-aware matchmaking queue with an expanding tolerance window.
// Each waiter's acceptable rating difference grows with their own
// wait time; a pair is eligible when their difference fits inside the
// larger of the two windows. Pairing is greedy: the requester takes
// the eligible opponent with the smallest difference, ties broken by
// earliest enqueue. A periodic sweep re-runs matching so windows
// expanding over time produce pairs even without new enqueues.
//
// The queue holds no locks of its own; the directory serializes
// access together with room mutation.
package matchmaking

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultRating seeds waiters with no persisted rating.
const DefaultRating = 1200

// Entry is one waiting participant.
type Entry struct {
	ID         string
	Name       string
	Avatar     string
	Rating     int
	EnqueuedAt time.Time
}

// Pairing is a successful match: a fresh room identifier plus both
// sides. The caller creates and joins the actual session.
type Pairing struct {
	RoomID   string
	Seeker   Entry
	Opponent Entry
}

// Queue holds waiters keyed by participant ID, with enqueue order
// preserved for stable iteration.
type Queue struct {
	entries map[string]*Entry
	order   []string
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{entries: make(map[string]*Entry)}
}

// Enqueue upserts e keyed by participant ID. Re-enqueuing resets the
// wait clock and moves the waiter to the back of the scan order.
func (q *Queue) Enqueue(e Entry) {
	if _, ok := q.entries[e.ID]; ok {
		q.remove(e.ID)
	}
	if e.Rating == 0 {
		e.Rating = DefaultRating
	}
	q.entries[e.ID] = &e
	q.order = append(q.order, e.ID)
}

// Dequeue removes the waiter; no-op when absent.
func (q *Queue) Dequeue(id string) { q.remove(id) }

// Waiting reports whether id is currently queued.
func (q *Queue) Waiting(id string) bool {
	_, ok := q.entries[id]
	return ok
}

// Len returns the number of waiters.
func (q *Queue) Len() int { return len(q.entries) }

func (q *Queue) remove(id string) {
	if _, ok := q.entries[id]; !ok {
		return
	}
	delete(q.entries, id)
	for i, oid := range q.order {
		if oid == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Tolerance maps a wait duration to the acceptable rating difference.
// Beyond a minute of waiting the window effectively accepts anyone.
func Tolerance(waited time.Duration) int {
	switch {
	case waited <= 10*time.Second:
		return 50
	case waited <= 20*time.Second:
		return 100
	case waited <= 30*time.Second:
		return 200
	case waited <= 45*time.Second:
		return 300
	case waited <= 60*time.Second:
		return 400
	default:
		return 600
	}
}

// FindMatch looks for the best opponent for id at time now. The
// eligible window is the larger of the two waiters' tolerances, so the
// relation is symmetric. On success both sides leave the queue and a
// fresh room ID is synthesized; on failure the requester stays queued.
func (q *Queue) FindMatch(id string, now time.Time) *Pairing {
	me, ok := q.entries[id]
	if !ok {
		return nil
	}
	myTol := Tolerance(now.Sub(me.EnqueuedAt))

	var best *Entry
	bestDiff := 0
	for _, oid := range q.order {
		if oid == id {
			continue
		}
		op := q.entries[oid]
		tol := max(myTol, Tolerance(now.Sub(op.EnqueuedAt)))
		diff := abs(me.Rating - op.Rating)
		if diff > tol {
			continue
		}
		// Enqueue order is the tiebreak: strictly smaller diff wins.
		if best == nil || diff < bestDiff {
			best, bestDiff = op, diff
		}
	}
	if best == nil {
		return nil
	}

	seeker, opponent := *me, *best
	q.remove(seeker.ID)
	q.remove(opponent.ID)
	return &Pairing{RoomID: uuid.NewString(), Seeker: seeker, Opponent: opponent}
}

// SweepPairs runs one matching pass over every waiter in enqueue
// order. Matched pairs leave the queue inside FindMatch, so no waiter
// can pair twice in the same sweep.
func (q *Queue) SweepPairs(now time.Time) []Pairing {
	ids := make([]string, len(q.order))
	copy(ids, q.order)

	var out []Pairing
	for _, id := range ids {
		if !q.Waiting(id) {
			continue
		}
		if p := q.FindMatch(id, now); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Entries returns the current waiters ordered by enqueue time, for
// diagnostics.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, 0, len(q.entries))
	for _, id := range q.order {
		out = append(out, *q.entries[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EnqueuedAt.Before(out[j].EnqueuedAt) })
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

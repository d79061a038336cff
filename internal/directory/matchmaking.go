// internal/directory/matchmaking.go
//
// Queue entry points and the periodic sweep. A fresh enqueue tries to
// pair immediately; otherwise the waiter sits in the queue and the
// sweep re-runs matching on the configured interval so the expanding
// tolerance window keeps producing pairs without new events.
package directory

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daile269/zcaro-online/internal/matchmaking"
	"github.com/daile269/zcaro-online/internal/session"
)

// EnqueueMatch queues p and attempts an immediate pairing. The
// returned room payload is non-nil when a match formed; otherwise the
// participant is left waiting.
func (d *Directory) EnqueueMatch(p session.Participant) *session.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue.Enqueue(matchmaking.Entry{
		ID:         p.ID,
		Name:       p.Name,
		Avatar:     p.Avatar,
		Rating:     p.Rating,
		EnqueuedAt: time.Now(),
	})
	if pairing := d.queue.FindMatch(p.ID, time.Now()); pairing != nil {
		return d.setUpMatchLocked(*pairing)
	}
	return nil
}

// CancelMatch removes p from the queue; no-op when absent.
func (d *Directory) CancelMatch(participantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.Dequeue(participantID)
}

// QueueLen reports the number of waiting participants.
func (d *Directory) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Sweep runs one matching pass over the whole queue. Called on a
// fixed interval by RunSweeper and directly by tests.
func (d *Directory) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, pairing := range d.queue.SweepPairs(time.Now()) {
		d.setUpMatchLocked(pairing)
	}
}

// RunSweeper drives Sweep until ctx is canceled.
func (d *Directory) RunSweeper(ctx context.Context) {
	t := time.NewTicker(d.cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.Sweep()
		}
	}
}

// setUpMatchLocked turns a pairing into a live rated room: seeker
// owns the room, the opponent joins, and the round starts at once.
// Both sides are notified where to go.
func (d *Directory) setUpMatchLocked(p matchmaking.Pairing) *session.Payload {
	owner := session.Participant{ID: p.Seeker.ID, Name: p.Seeker.Name, Avatar: p.Seeker.Avatar, Rating: p.Seeker.Rating}
	joiner := session.Participant{ID: p.Opponent.ID, Name: p.Opponent.Name, Avatar: p.Opponent.Avatar, Rating: p.Opponent.Rating}

	s := session.New(p.RoomID, owner, d.sessionOpts(true, false))
	d.rooms[p.RoomID] = s
	if err := s.Join(joiner); err != nil {
		// Cannot happen on a fresh room; bail without a half-set-up match.
		log.Error().Err(err).Str("room", p.RoomID).Msg("seat matched opponent")
		delete(d.rooms, p.RoomID)
		return nil
	}
	pl, err := d.startRoundLocked(p.RoomID, owner.ID)
	if err != nil {
		log.Error().Err(err).Str("room", p.RoomID).Msg("start matched round")
		delete(d.rooms, p.RoomID)
		return nil
	}

	log.Info().Str("room", p.RoomID).Str("seeker", p.Seeker.ID).Str("opponent", p.Opponent.ID).
		Int("diff", abs(p.Seeker.Rating-p.Opponent.Rating)).Msg("match formed")
	d.notify.MatchFound(p.Seeker.ID, p.RoomID, p.Opponent)
	d.notify.MatchFound(p.Opponent.ID, p.RoomID, p.Seeker)
	return &pl
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// internal/directory/supervisor.go
//
// Timer supervision. Two kinds of timer exist per room, both owned
// here and both cancelable by the exact state transition that makes
// them moot:
//   - reconnect grace: armed on a player-slot disconnect, canceled by
//     any qualifying join/spectate/rejoin; on expiry the room is
//     removed iff a seat is still away.
//   - turn timeout: armed when a round starts and re-armed on every
//     accepted continuation move; on expiry the participant on turn
//     forfeits.
// Timer callbacks take the directory mutex, so they serialize with
// connection events like any other handler.
package directory

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daile269/zcaro-online/internal/session"
)

// Disconnect handles a dropped connection for participantID. A player
// seat goes away for the grace window; a spectator is simply removed.
// The participant also leaves the matchmaking queue.
func (d *Directory) Disconnect(participantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue.Dequeue(participantID)

	for id, s := range d.rooms {
		if _, _, isPlayer := s.Resolve(participantID); isPlayer {
			if !s.MarkAway(participantID) {
				continue
			}
			slot, _, _ := s.Resolve(participantID)
			log.Info().Str("room", id).Str("participant", participantID).
				Dur("grace", d.cfg.ReconnectGrace).Msg("player disconnected, grace started")
			d.notify.PlayerAway(id, s.Slots[slot].Participant, d.cfg.ReconnectGrace)
			d.armGrace(id)
			return
		}
		for _, sp := range s.Spectators {
			if sp.ID == participantID {
				s.RemoveSpectator(participantID)
				d.notify.RoomState(id, s.Payload())
				return
			}
		}
	}
}

// Rejoin restores a player's seat after a reconnect inside the grace
// window and cancels the pending removal.
func (d *Directory) Rejoin(roomID, participantID string) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	if !s.Rejoin(participantID) {
		return session.Payload{}, session.ErrNotInRoom
	}
	d.cancelGrace(roomID)
	log.Info().Str("room", roomID).Str("participant", participantID).Msg("player rejoined")

	p := s.Payload()
	d.notify.RoomState(roomID, p)
	return p, nil
}

// armGrace starts the room's grace timer unless one is already
// pending.
func (d *Directory) armGrace(roomID string) {
	if _, pending := d.graceTimers[roomID]; pending {
		return
	}
	d.graceTimers[roomID] = time.AfterFunc(d.cfg.ReconnectGrace, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.graceExpiredLocked(roomID)
	})
}

// graceExpiredLocked re-checks the room when the timer fires: a seat
// still away means the player never came back and the room goes.
func (d *Directory) graceExpiredLocked(roomID string) {
	delete(d.graceTimers, roomID)
	s, ok := d.rooms[roomID]
	if !ok {
		return
	}
	if !s.HasAwaySlot() {
		return // reconciled by a rejoin racing the timer
	}
	log.Info().Str("room", roomID).Msg("grace expired, removing room")
	d.removeRoomLocked(roomID, "reconnect grace expired")
}

func (d *Directory) cancelGrace(roomID string) {
	if t, ok := d.graceTimers[roomID]; ok {
		t.Stop()
		delete(d.graceTimers, roomID)
	}
}

// armTurnTimer (re)starts the turn clock for the room.
func (d *Directory) armTurnTimer(roomID string) {
	d.cancelTurnTimer(roomID)
	if d.cfg.TurnTimeout <= 0 {
		return
	}
	d.turnTimers[roomID] = time.AfterFunc(d.cfg.TurnTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.turnExpiredLocked(roomID)
	})
}

// turnExpiredLocked forfeits the participant on turn when their clock
// runs out.
func (d *Directory) turnExpiredLocked(roomID string) {
	delete(d.turnTimers, roomID)
	s, ok := d.rooms[roomID]
	if !ok || s.Status != session.StatusPlaying {
		return
	}
	for i := range s.Slots {
		if s.Slots[i].State != session.SlotEmpty && s.Slots[i].Symbol == s.CurrentTurn {
			log.Info().Str("room", roomID).Str("participant", s.Slots[i].Participant.ID).
				Msg("turn timeout, forfeiting")
			_, _ = d.forfeitLocked(roomID, s.Slots[i].Participant.ID)
			return
		}
	}
}

func (d *Directory) cancelTurnTimer(roomID string) {
	if t, ok := d.turnTimers[roomID]; ok {
		t.Stop()
		delete(d.turnTimers, roomID)
	}
}

// removeRoomLocked drops the room and every timer attached to it.
func (d *Directory) removeRoomLocked(roomID, reason string) {
	d.cancelGrace(roomID)
	d.cancelTurnTimer(roomID)
	delete(d.rooms, roomID)
	d.notify.RoomRemoved(roomID, reason)
}

// internal/directory/directory.go
//
// The session directory: the one owner of the room map and the
// matchmaking queue. Every inbound connection event and every timer
// callback funnels through a single mutex, so handlers never execute
// concurrently against shared state and the session/queue code needs
// no locking of its own. The only work pushed off the event path is
// rating persistence, which runs per finished match on its own
// goroutine and never blocks unrelated rooms.
package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/daile269/zcaro-online/internal/config"
	"github.com/daile269/zcaro-online/internal/matchmaking"
	"github.com/daile269/zcaro-online/internal/rating"
	"github.com/daile269/zcaro-online/internal/session"
)

// Notifier is how the directory pushes state to the transport layer.
// The websocket hub implements it; tests stub it.
type Notifier interface {
	RoomState(roomID string, p session.Payload)
	PlayerAway(roomID string, participant session.Participant, grace time.Duration)
	RoomRemoved(roomID, reason string)
	MatchFound(participantID, roomID string, opponent matchmaking.Entry)
	RatingChanged(roomID string, changes [2]rating.Change)
}

// Directory coordinates rooms, the queue, and their timers.
type Directory struct {
	mu sync.Mutex

	cfg     config.Config
	rooms   map[string]*session.Session
	queue   *matchmaking.Queue
	updater *rating.Updater
	archive Archiver
	notify  Notifier

	graceTimers map[string]*time.Timer
	turnTimers  map[string]*time.Timer
}

// New constructs a Directory. archive may be nil when finished matches
// need no durable record (tests, casual-only deployments).
func New(cfg config.Config, updater *rating.Updater, archive Archiver, notify Notifier) *Directory {
	return &Directory{
		cfg:         cfg,
		rooms:       make(map[string]*session.Session),
		queue:       matchmaking.NewQueue(),
		updater:     updater,
		archive:     archive,
		notify:      notify,
		graceTimers: make(map[string]*time.Timer),
		turnTimers:  make(map[string]*time.Timer),
	}
}

func (d *Directory) sessionOpts(rated, private bool) session.Options {
	return session.Options{
		BoardSize:          d.cfg.BoardSize,
		LockedCellCount:    d.cfg.LockedCellCount,
		LockedMinGap:       d.cfg.LockedMinGap,
		LockedMaxGap:       d.cfg.LockedMaxGap,
		OpeningMinDistance: d.cfg.OpeningMinDistance,
		Rated:              rated,
		Private:            private,
	}
}

// CreateRoom allocates a waiting room owned by owner and returns its
// payload.
func (d *Directory) CreateRoom(owner session.Participant, rated, private bool) session.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.NewString()
	s := session.New(id, owner, d.sessionOpts(rated, private))
	d.rooms[id] = s
	log.Info().Str("room", id).Str("owner", owner.ID).Bool("rated", rated).Msg("room created")

	p := s.Payload()
	d.notify.RoomState(id, p)
	return p
}

// JoinRoom seats joiner in slot 2. A join is a qualifying event for a
// pending reconnect grace timer.
func (d *Directory) JoinRoom(roomID string, joiner session.Participant) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	if err := s.Join(joiner); err != nil {
		return session.Payload{}, err
	}
	d.cancelGrace(roomID)

	p := s.Payload()
	d.notify.RoomState(roomID, p)
	return p, nil
}

// Spectate adds a spectator (idempotent) and cancels any pending
// grace timer for the room.
func (d *Directory) Spectate(roomID string, p session.Participant) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	s.AddSpectator(p)
	d.cancelGrace(roomID)

	pl := s.Payload()
	d.notify.RoomState(roomID, pl)
	return pl, nil
}

// StartRound starts (or resets) the room's round and arms the turn
// timer.
func (d *Directory) StartRound(roomID, requesterID string) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startRoundLocked(roomID, requesterID)
}

func (d *Directory) startRoundLocked(roomID, requesterID string) (session.Payload, error) {
	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	if err := s.StartRound(requesterID); err != nil {
		return session.Payload{}, err
	}
	d.armTurnTimer(roomID)

	p := s.Payload()
	d.notify.RoomState(roomID, p)
	return p, nil
}

// MakeMove applies one placement and drives the follow-on effects:
// turn timer reset on continuation, match completion on win or draw.
func (d *Directory) MakeMove(roomID, participantID string, row, col int) (session.Move, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.rooms[roomID]
	if !ok {
		return session.Move{}, ErrRoomNotFound
	}
	mv, err := s.ApplyMove(participantID, row, col)
	if err != nil {
		return session.Move{}, err
	}

	if mv.Result == session.MoveContinue {
		d.armTurnTimer(roomID)
	} else {
		d.finishLocked(s)
	}
	d.notify.RoomState(roomID, s.Payload())
	return mv, nil
}

// Forfeit finishes the round against loserID.
func (d *Directory) Forfeit(roomID, loserID string) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.forfeitLocked(roomID, loserID)
}

func (d *Directory) forfeitLocked(roomID, loserID string) (session.Payload, error) {
	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	s.Forfeit(loserID)
	d.finishLocked(s)

	p := s.Payload()
	d.notify.RoomState(roomID, p)
	return p, nil
}

// Leave removes participantID from the room: spectators just drop
// out; a player leaving mid-round forfeits. The room is destroyed
// when the owner leaves or no player remains.
func (d *Directory) Leave(roomID, participantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.rooms[roomID]
	if !ok {
		return
	}
	slot, _, isPlayer := s.Resolve(participantID)
	if !isPlayer {
		s.RemoveSpectator(participantID)
		d.notify.RoomState(roomID, s.Payload())
		return
	}

	if s.Status == session.StatusPlaying {
		s.Forfeit(participantID)
		d.finishLocked(s)
	}
	if slot == 0 {
		d.removeRoomLocked(roomID, "owner left")
		return
	}
	s.Slots[slot] = session.PlayerSlot{}
	if s.Slots[0].State == session.SlotEmpty {
		d.removeRoomLocked(roomID, "empty")
		return
	}
	s.Status = session.StatusWaiting
	d.notify.RoomState(roomID, s.Payload())
}

// Get returns the room payload for roomID.
func (d *Directory) Get(roomID string) (session.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.rooms[roomID]
	if !ok {
		return session.Payload{}, ErrRoomNotFound
	}
	return s.Payload(), nil
}

// Rooms lists lobby snapshots of every non-private room.
func (d *Directory) Rooms() []session.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := []session.Snapshot{}
	for _, s := range d.rooms {
		if s.Opts.Private {
			continue
		}
		out = append(out, s.Snapshot())
	}
	return out
}

// finishLocked runs match-completion side effects: timers are
// dropped, the result is archived, and rated outcomes go to the
// rating updater off the event path.
func (d *Directory) finishLocked(s *session.Session) {
	d.cancelTurnTimer(s.ID)

	px, po := s.Slots[0], s.Slots[1]
	if px.State == session.SlotEmpty || po.State == session.SlotEmpty {
		return
	}
	var winnerID string
	switch s.Winner {
	case string(px.Symbol):
		winnerID = px.Participant.ID
	case string(po.Symbol):
		winnerID = po.Participant.ID
	}
	draw := s.Winner == session.WinnerDraw
	if winnerID == "" && !draw {
		return
	}

	outcome := rating.Outcome{
		MatchID:  s.ID,
		PlayerA:  px.Participant.ID,
		PlayerB:  po.Participant.ID,
		WinnerID: winnerID,
		Draw:     draw,
	}
	fin := FinishedMatch{
		ID:         s.ID,
		PlayerX:    px.Participant.ID,
		PlayerO:    po.Participant.ID,
		Winner:     winnerID,
		Result:     s.Winner,
		Moves:      s.MoveCount,
		Rated:      s.Opts.Rated,
		StartedAt:  s.StartedAt,
		FinishedAt: time.Now().UTC(),
	}
	rated := s.Opts.Rated
	roomID := s.ID

	// Fire-and-forget: a slow or failing write must not delay the
	// next event on any room.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if d.archive != nil {
			if err := d.archive.SaveMatch(ctx, fin); err != nil {
				log.Warn().Err(err).Str("match", fin.ID).Msg("archive match")
			}
		}
		if rated && d.updater != nil {
			if changes, ok := d.updater.Apply(ctx, outcome); ok {
				d.notify.RatingChanged(roomID, changes)
			}
		}
	}()
}

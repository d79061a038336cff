package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daile269/zcaro-online/internal/config"
	"github.com/daile269/zcaro-online/internal/matchmaking"
	"github.com/daile269/zcaro-online/internal/rating"
	"github.com/daile269/zcaro-online/internal/session"
)

// recordingNotifier captures every push so tests can assert on them.
// RatingChanged arrives from the finish goroutine, hence the mutex.
type recordingNotifier struct {
	mu      sync.Mutex
	states  map[string]int
	away    []string
	removed map[string]string
	matches map[string]string
	changes [][2]rating.Change
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		states:  make(map[string]int),
		removed: make(map[string]string),
		matches: make(map[string]string),
	}
}

func (n *recordingNotifier) RoomState(roomID string, _ session.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states[roomID]++
}

func (n *recordingNotifier) PlayerAway(roomID string, p session.Participant, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.away = append(n.away, p.ID)
}

func (n *recordingNotifier) RoomRemoved(roomID, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed[roomID] = reason
}

func (n *recordingNotifier) MatchFound(participantID, roomID string, _ matchmaking.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches[participantID] = roomID
}

func (n *recordingNotifier) RatingChanged(_ string, changes [2]rating.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, changes)
}

func (n *recordingNotifier) removedReason(roomID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.removed[roomID]
	return r, ok
}

func (n *recordingNotifier) matchRoom(participantID string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.matches[participantID]
	return r, ok
}

func (n *recordingNotifier) ratingChanges() [][2]rating.Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][2]rating.Change, len(n.changes))
	copy(out, n.changes)
	return out
}

func testConfig() config.Config {
	return config.Config{
		BoardSize:          17,
		LockedCellCount:    3,
		LockedMinGap:       5,
		LockedMaxGap:       10,
		OpeningMinDistance: 5,
		TurnTimeout:        time.Hour,
		ReconnectGrace:     time.Hour,
		SweepInterval:      time.Hour,
	}
}

func newTestDirectory(t *testing.T, cfg config.Config) (*Directory, *recordingNotifier, *rating.MemoryStore) {
	t.Helper()
	st := rating.NewMemoryStore()
	n := newRecordingNotifier()
	return New(cfg, rating.NewUpdater(st), nil, n), n, st
}

func part(id string, rtg int) session.Participant {
	return session.Participant{ID: id, Name: id, Rating: rtg}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCreateJoinAndGet(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if p.Status != session.StatusWaiting || len(p.Players) != 1 {
		t.Fatalf("fresh room = status %s, %d players", p.Status, len(p.Players))
	}

	p, err := d.JoinRoom(p.ID, part("bob", 1200))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(p.Players) != 2 {
		t.Fatalf("players after join = %d", len(p.Players))
	}

	if _, err := d.Get(p.ID); err != nil {
		t.Errorf("get known room: %v", err)
	}
	if _, err := d.JoinRoom("no-such-room", part("carol", 1200)); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("join unknown room err = %v", err)
	}
}

func TestRoomsExcludesPrivate(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	open := d.CreateRoom(part("alice", 1200), false, false)
	d.CreateRoom(part("bob", 1200), false, true)

	rooms := d.Rooms()
	if len(rooms) != 1 || rooms[0].ID != open.ID {
		t.Fatalf("lobby = %+v, want only the public room", rooms)
	}
}

func TestStartRoundAndFirstMove(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	p, err := d.StartRound(p.ID, "alice")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Status != session.StatusPlaying || len(p.FirstMoveCells) == 0 {
		t.Fatalf("started payload = status %s, %d opening cells", p.Status, len(p.FirstMoveCells))
	}

	cell := p.FirstMoveCells[0]
	if _, err := d.MakeMove(p.ID, "bob", cell.Row, cell.Col); !errors.Is(err, session.ErrNotYourTurn) {
		t.Fatalf("out-of-turn move err = %v", err)
	}
	mv, err := d.MakeMove(p.ID, "alice", cell.Row, cell.Col)
	if err != nil {
		t.Fatalf("opening move: %v", err)
	}
	if mv.Result != session.MoveContinue {
		t.Fatalf("opening move result = %s", mv.Result)
	}
}

func TestLeaveSpectatorKeepsRoom(t *testing.T) {
	d, n, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.Spectate(p.ID, part("carol", 1200)); err != nil {
		t.Fatal(err)
	}
	d.Leave(p.ID, "carol")

	got, err := d.Get(p.ID)
	if err != nil {
		t.Fatalf("room gone after spectator left: %v", err)
	}
	if got.Spectators != 0 {
		t.Errorf("spectators = %d, want 0", got.Spectators)
	}
	if _, removed := n.removedReason(p.ID); removed {
		t.Error("spectator leave removed the room")
	}
}

func TestLeaveOpponentReopensRoom(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	d.Leave(p.ID, "bob")

	got, err := d.Get(p.ID)
	if err != nil {
		t.Fatalf("room gone after opponent left: %v", err)
	}
	if got.Status != session.StatusWaiting || len(got.Players) != 1 {
		t.Errorf("after opponent leave = status %s, %d players", got.Status, len(got.Players))
	}
}

func TestLeaveOwnerRemovesRoom(t *testing.T) {
	d, n, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	d.Leave(p.ID, "alice")

	if _, err := d.Get(p.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("room still present after owner left, err = %v", err)
	}
	if reason, ok := n.removedReason(p.ID); !ok || reason != "owner left" {
		t.Errorf("removal reason = %q, %v", reason, ok)
	}
}

func TestLeaveMidRoundForfeits(t *testing.T) {
	d, n, st := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), true, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.StartRound(p.ID, "alice"); err != nil {
		t.Fatal(err)
	}
	d.Leave(p.ID, "bob")

	got, err := d.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != session.StatusFinished || got.Winner != "X" {
		t.Errorf("after mid-round leave = status %s winner %q", got.Status, got.Winner)
	}
	waitFor(t, time.Second, func() bool { return len(n.ratingChanges()) > 0 })
	rec, _ := st.Ensure(context.Background(), "alice")
	if rec.GamesPlayed != 1 {
		t.Errorf("winner games played = %d, want 1", rec.GamesPlayed)
	}
}

func TestDisconnectGraceRemovesRoom(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectGrace = 30 * time.Millisecond
	d, n, _ := newTestDirectory(t, cfg)

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	d.Disconnect("bob")

	got, err := d.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Players) != 2 || !got.Players[1].Away {
		t.Fatalf("seat not marked away: %+v", got.Players)
	}

	waitFor(t, time.Second, func() bool {
		_, err := d.Get(p.ID)
		return errors.Is(err, ErrRoomNotFound)
	})
	if reason, _ := n.removedReason(p.ID); reason != "reconnect grace expired" {
		t.Errorf("removal reason = %q", reason)
	}
}

func TestRejoinCancelsGrace(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectGrace = 40 * time.Millisecond
	d, _, _ := newTestDirectory(t, cfg)

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	d.Disconnect("bob")

	got, err := d.Rejoin(p.ID, "bob")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if got.Players[1].Away {
		t.Error("seat still away after rejoin")
	}

	time.Sleep(120 * time.Millisecond)
	if _, err := d.Get(p.ID); err != nil {
		t.Fatalf("room removed despite rejoin: %v", err)
	}
}

func TestTurnTimeoutForfeits(t *testing.T) {
	cfg := testConfig()
	cfg.TurnTimeout = 30 * time.Millisecond
	d, _, _ := newTestDirectory(t, cfg)

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.StartRound(p.ID, "alice"); err != nil {
		t.Fatal(err)
	}

	// X (alice) is on turn and never moves.
	waitFor(t, time.Second, func() bool {
		got, err := d.Get(p.ID)
		return err == nil && got.Status == session.StatusFinished
	})
	got, err := d.Get(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Winner != "O" {
		t.Errorf("winner after timeout = %q, want O", got.Winner)
	}
}

func TestRatedForfeitAppliesRatings(t *testing.T) {
	d, n, st := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), true, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.StartRound(p.ID, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Forfeit(p.ID, "bob"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return len(n.ratingChanges()) > 0 })
	changes := n.ratingChanges()[0]
	if changes[0].UserID != "alice" || changes[0].After != 1220 {
		t.Errorf("winner change = %+v, want alice at 1220", changes[0])
	}
	if changes[1].UserID != "bob" || changes[1].After != 1180 {
		t.Errorf("loser change = %+v, want bob at 1180", changes[1])
	}

	rec, _ := st.Ensure(context.Background(), "bob")
	if rec.Rating != 1180 || rec.GamesPlayed != 1 {
		t.Errorf("persisted bob = %+v", rec)
	}
}

func TestUnratedFinishSkipsRatings(t *testing.T) {
	d, n, _ := newTestDirectory(t, testConfig())

	p := d.CreateRoom(part("alice", 1200), false, false)
	if _, err := d.JoinRoom(p.ID, part("bob", 1200)); err != nil {
		t.Fatal(err)
	}
	if _, err := d.StartRound(p.ID, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Forfeit(p.ID, "bob"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := n.ratingChanges(); len(got) != 0 {
		t.Errorf("unrated match produced rating changes: %+v", got)
	}
}

func TestEnqueueMatchPairsImmediately(t *testing.T) {
	d, n, _ := newTestDirectory(t, testConfig())

	if pl := d.EnqueueMatch(part("alice", 1200)); pl != nil {
		t.Fatal("lone seeker matched")
	}
	if d.QueueLen() != 1 {
		t.Fatalf("queue len = %d", d.QueueLen())
	}

	pl := d.EnqueueMatch(part("bob", 1210))
	if pl == nil {
		t.Fatal("close ratings did not pair")
	}
	if pl.Status != session.StatusPlaying || !pl.Rated {
		t.Fatalf("matched room = status %s rated %v", pl.Status, pl.Rated)
	}
	if d.QueueLen() != 0 {
		t.Errorf("queue len after match = %d", d.QueueLen())
	}

	ra, okA := n.matchRoom("alice")
	rb, okB := n.matchRoom("bob")
	if !okA || !okB || ra != rb || ra != pl.ID {
		t.Errorf("match notifications = %q/%q, want both %q", ra, rb, pl.ID)
	}
}

func TestEnqueueOutsideWindowWaits(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	if pl := d.EnqueueMatch(part("alice", 1200)); pl != nil {
		t.Fatal("lone seeker matched")
	}
	if pl := d.EnqueueMatch(part("bob", 1600)); pl != nil {
		t.Fatal("400-point gap matched inside the fresh window")
	}
	d.Sweep()
	if d.QueueLen() != 2 {
		t.Fatalf("queue len = %d, want 2 waiters", d.QueueLen())
	}

	d.CancelMatch("alice")
	if d.QueueLen() != 1 {
		t.Errorf("queue len after cancel = %d", d.QueueLen())
	}
}

func TestDisconnectLeavesQueue(t *testing.T) {
	d, _, _ := newTestDirectory(t, testConfig())

	if pl := d.EnqueueMatch(part("alice", 1200)); pl != nil {
		t.Fatal("lone seeker matched")
	}
	d.Disconnect("alice")
	if d.QueueLen() != 0 {
		t.Errorf("queue len after disconnect = %d", d.QueueLen())
	}
}

// Package room runs one match as an isolated actor: a single goroutine owns
// the match state and processes the tick scheduler and every inbound message
// for the room. Nothing in here needs a lock; commands and ticks run to
// completion one at a time, and rooms never share state.
package room

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"flag-rush/internal/game"
	"flag-rush/internal/metrics"
	"flag-rush/internal/physics"
	"flag-rush/internal/protocol"
)

// LivenessTimeout bounds how long a playing session may stay silent before
// it is force-disconnected.
const LivenessTimeout = 5 * time.Second

// Room is one match's actor. All fields below Inbox are owned by the Run
// goroutine exclusively.
type Room struct {
	Code  string
	Inbox chan any

	match *game.Match
	conns map[string]Conn
	sched *scheduler
	log   zerolog.Logger
	quit  chan struct{}

	// participants mirrors len(conns) for the room list; the actor writes,
	// the manager reads.
	participants atomic.Int64
}

// Participants reports the current number of connected sessions.
func (r *Room) Participants() int {
	return int(r.participants.Load())
}

// New builds a dormant lobby-phase room. The tick loop starts on first join.
func New(code string, log zerolog.Logger) *Room {
	return &Room{
		Code:  code,
		Inbox: make(chan any, 256),
		match: game.NewMatch(game.DefaultConfig(), time.Now().UnixNano()),
		conns: make(map[string]Conn),
		sched: newScheduler(time.Second / physics.TickRate),
		log:   log.With().Str("room", code).Logger(),
		quit:  make(chan struct{}),
	}
}

// Run is the room's only thread of control. It exits when Stop is called.
func (r *Room) Run() {
	for {
		select {
		case <-r.quit:
			r.sched.Stop()
			return
		case cmd := <-r.Inbox:
			r.handle(cmd, time.Now())
		case now := <-r.sched.C():
			r.step(now)
		}
	}
}

// Stop terminates the actor. Used at process shutdown; emptied rooms merely
// go dormant instead.
func (r *Room) Stop() {
	close(r.quit)
}

func (r *Room) handle(cmd any, now time.Time) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c, now)
	case Leave:
		r.removeSession(c.ID, true, now)
	case Frame:
		r.handleFrame(c, now)
	}
}

func (r *Room) handleJoin(join Join, now time.Time) {
	if stale, ok := r.conns[join.ID]; ok {
		// Idempotent reconnect: the newest connection wins.
		_ = stale.Close()
	}
	r.conns[join.ID] = join.Conn
	r.participants.Store(int64(len(r.conns)))

	p, existing := r.match.Players[join.ID]
	if !existing {
		p = r.match.AddPlayer(join.ID, now)
	}
	p.LastSeen = now
	if join.Nickname != "" {
		r.match.SetNickname(join.ID, join.Nickname)
	}

	if r.match.HostID == "" {
		r.match.HostID = join.ID
	}
	if !r.sched.Running() {
		r.sched.Start()
	}

	r.log.Info().Str("player", join.ID).Bool("rejoin", existing).Msg("player joined")
	r.broadcastLobbyState(now)
}

func (r *Room) handleFrame(frame Frame, now time.Time) {
	p, ok := r.match.Players[frame.ID]
	if !ok {
		return
	}
	p.LastSeen = now

	cmd, err := protocol.Decode(frame.Data)
	if err != nil {
		r.log.Debug().Err(err).Str("player", frame.ID).Msg("dropping malformed frame")
		return
	}

	switch c := cmd.(type) {
	case protocol.Input:
		r.match.ApplyInput(frame.ID, c.Seq, c.Keys())
	case protocol.Throw:
		r.match.ThrowProjectile(frame.ID, c.Dir, now)
	case protocol.DropFlag:
		r.match.DropFlag(frame.ID, now)
	case protocol.Ready:
		r.match.SetReady(frame.ID, c.Ready)
		r.broadcastLobbyState(now)
	case protocol.SelectTeam:
		if team, ok := game.ParseTeam(c.Team); ok {
			r.match.SwitchTeam(frame.ID, team)
			r.broadcastLobbyState(now)
		}
	case protocol.SetNickname:
		r.match.SetNickname(frame.ID, c.Nickname)
		r.broadcastLobbyState(now)
	case protocol.UpdateConfig:
		if r.match.UpdateConfig(frame.ID, c.Config) {
			r.broadcastLobbyState(now)
		}
	case protocol.SelectMap:
		if r.match.SelectMap(frame.ID, c.MapID) {
			r.broadcastLobbyState(now)
		}
	case protocol.StartGame:
		if r.match.StartGame(frame.ID, now) {
			r.log.Info().Str("host", frame.ID).Msg("match started")
			r.broadcastLobbyState(now)
		}
	case protocol.ResetGame:
		if r.match.ResetGame(frame.ID) {
			r.log.Info().Str("host", frame.ID).Msg("match reset to lobby")
			r.broadcastLobbyState(now)
		}
	}
}

// step runs one tick: liveness sweep, simulation advance, broadcast.
func (r *Room) step(now time.Time) {
	r.sweepStale(now)

	phaseBefore := r.match.Phase
	r.match.Advance(now, physics.TickDT)
	metrics.TickAdvanced()

	if r.match.Phase != phaseBefore {
		// Win condition fired this tick.
		r.log.Info().
			Str("winner", string(r.match.Winner)).
			Interface("scores", r.match.Scores).
			Msg("match finished")
		r.broadcastLobbyState(now)
	}

	if r.match.Phase == game.PhasePlaying {
		r.broadcastState(now)
	} else {
		// Defensive: clients that missed a lobby change converge anyway.
		r.broadcastLobbyState(now)
	}
}

// sweepStale force-disconnects sessions that have been silent past the
// liveness window. Only a playing match sweeps; lobby participants are
// expected to idle, and StartGame re-stamps everyone for exactly this
// reason.
func (r *Room) sweepStale(now time.Time) {
	if r.match.Phase != game.PhasePlaying {
		return
	}
	for id, p := range r.match.Players {
		if now.Sub(p.LastSeen) > LivenessTimeout {
			r.log.Info().Str("player", id).Msg("disconnecting stale session")
			metrics.SessionDropped()
			r.removeSession(id, true, now)
		}
	}
}

// removeSession drops a participant: connection closed (optionally), carried
// flag returned, host migrated, scheduler parked when the room empties.
func (r *Room) removeSession(id string, closeConn bool, now time.Time) {
	conn, hadConn := r.conns[id]
	if _, ok := r.match.Players[id]; !ok && !hadConn {
		return
	}

	r.match.RemovePlayer(id)
	delete(r.conns, id)
	r.participants.Store(int64(len(r.conns)))
	if hadConn && closeConn {
		_ = conn.Close()
	}

	if r.match.HostID == id {
		r.match.HostID = ""
		for remaining := range r.conns {
			r.match.HostID = remaining
			break
		}
		if r.match.HostID != "" {
			r.log.Info().Str("host", r.match.HostID).Msg("host migrated")
		}
	}

	if len(r.conns) == 0 {
		r.sched.Stop()
		r.log.Info().Msg("room dormant")
		return
	}
	r.broadcastLobbyState(now)
}

func (r *Room) buildSnapshot(now time.Time) protocol.Snapshot {
	m := r.match
	snap := protocol.Snapshot{
		Players:     make([]game.Player, 0, len(m.Players)),
		Projectiles: make([]game.Projectile, 0, len(m.Projectiles)),
		Flags:       make(map[game.Team]game.Flag, len(m.Flags)),
		Scores:      map[game.Team]int{game.TeamRed: m.Scores[game.TeamRed], game.TeamBlue: m.Scores[game.TeamBlue]},
	}
	for _, p := range m.PlayersByID() {
		snap.Players = append(snap.Players, *p)
	}
	for _, proj := range m.Projectiles {
		snap.Projectiles = append(snap.Projectiles, *proj)
	}
	for team, f := range m.Flags {
		snap.Flags[team] = *f
	}
	if m.Phase == game.PhasePlaying {
		remaining := m.TimeRemaining(now)
		snap.TimeRemaining = &remaining
	}
	return snap
}

func (r *Room) broadcastState(now time.Time) {
	msg := protocol.State{
		Type:      protocol.TypeState,
		State:     r.buildSnapshot(now),
		Timestamp: now.UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error().Err(err).Msg("marshal state snapshot")
		return
	}
	metrics.SnapshotBroadcast()
	r.send(data, now)
}

func (r *Room) buildLobbyState(now time.Time) protocol.LobbyState {
	m := r.match
	msg := protocol.LobbyState{
		Type:        protocol.TypeLobbyState,
		Phase:       m.Phase,
		Config:      m.Config,
		ReadyStates: make([]protocol.ReadyState, 0, len(m.Players)),
		HostID:      m.HostID,
		Winner:      string(m.Winner),
		MapData:     m.Map,
	}
	for _, p := range m.PlayersByID() {
		msg.ReadyStates = append(msg.ReadyStates, protocol.ReadyState{
			ID:       p.ID,
			Nickname: p.Nickname,
			Team:     p.Team,
			Ready:    m.Ready[p.ID],
		})
	}
	if m.Phase == game.PhasePlaying {
		remaining := m.TimeRemaining(now)
		msg.TimeRemaining = &remaining
	}
	return msg
}

func (r *Room) broadcastLobbyState(now time.Time) {
	data, err := json.Marshal(r.buildLobbyState(now))
	if err != nil {
		r.log.Error().Err(err).Msg("marshal lobby state")
		return
	}
	r.send(data, now)
}

// send delivers one frame to every session. Delivery is fire-and-forget: a
// failed connection is logged and removed after the loop, never allowed to
// abort delivery to the rest of the room.
func (r *Room) send(data []byte, now time.Time) {
	var failed []string
	for id, conn := range r.conns {
		if err := conn.Send(data); err != nil {
			r.log.Warn().Err(err).Str("player", id).Msg("broadcast delivery failed")
			metrics.BroadcastFailed()
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.removeSession(id, true, now)
	}
}

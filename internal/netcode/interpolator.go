package netcode

import (
	"time"

	"flag-rush/internal/game"
	"flag-rush/internal/physics"
	"flag-rush/internal/protocol"
)

// InterpolationDelay is how far behind real time remote entities render.
// Three broadcast intervals: enough that one lost snapshot still leaves a
// bracketing pair.
const InterpolationDelay = 100 * time.Millisecond

// retention bounds the snapshot buffer; anything older than the render
// timestamp by this much can never be bracketed again.
const retention = time.Second

type timedSnapshot struct {
	at      time.Time
	players map[string]game.Player
}

// Interpolator renders remote entities from a rolling buffer of server
// snapshots. Remote players are never predicted: they are drawn a fixed
// delay in the past, linearly interpolated between the two snapshots that
// bracket the delayed render time.
type Interpolator struct {
	snaps []timedSnapshot
}

func NewInterpolator() *Interpolator {
	return &Interpolator{}
}

// Push buffers one state broadcast. Snapshots arriving out of order are
// dropped; the interpolation window absorbs the loss.
func (ip *Interpolator) Push(msg protocol.State) {
	at := time.UnixMilli(msg.Timestamp)
	if n := len(ip.snaps); n > 0 && !at.After(ip.snaps[n-1].at) {
		return
	}

	players := make(map[string]game.Player, len(msg.State.Players))
	for _, p := range msg.State.Players {
		players[p.ID] = p
	}
	ip.snaps = append(ip.snaps, timedSnapshot{at: at, players: players})
}

// PlayerAt returns the interpolated state of one remote player at the
// delayed render time for now. Outside the buffered window it clamps to the
// nearest snapshot rather than extrapolating.
func (ip *Interpolator) PlayerAt(id string, now time.Time) (game.Player, bool) {
	renderAt := now.Add(-InterpolationDelay)
	ip.prune(renderAt)

	if len(ip.snaps) == 0 {
		return game.Player{}, false
	}

	// Before the window: clamp to oldest.
	if !renderAt.After(ip.snaps[0].at) {
		p, ok := ip.snaps[0].players[id]
		return p, ok
	}

	for i := 1; i < len(ip.snaps); i++ {
		if renderAt.After(ip.snaps[i].at) {
			continue
		}
		return ip.lerpPlayer(id, ip.snaps[i-1], ip.snaps[i], renderAt)
	}

	// Past the window: clamp to newest.
	p, ok := ip.snaps[len(ip.snaps)-1].players[id]
	return p, ok
}

func (ip *Interpolator) lerpPlayer(id string, a, b timedSnapshot, at time.Time) (game.Player, bool) {
	pa, okA := a.players[id]
	pb, okB := b.players[id]
	if !okB {
		return game.Player{}, false
	}
	if !okA {
		// Entity appeared between snapshots; no older sample to blend from.
		return pb, true
	}

	span := b.at.Sub(a.at).Seconds()
	if span <= 0 {
		return pb, true
	}
	t := at.Sub(a.at).Seconds() / span

	out := pb
	out.Pos = physics.Lerp(pa.Pos, pb.Pos, t)
	out.Vel = physics.Lerp(pa.Vel, pb.Vel, t)
	return out, true
}

func (ip *Interpolator) prune(renderAt time.Time) {
	cutoff := renderAt.Add(-retention)
	drop := 0
	// Keep at least one snapshot older than the render time for bracketing.
	for drop < len(ip.snaps)-1 && ip.snaps[drop+1].at.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		ip.snaps = append(ip.snaps[:0], ip.snaps[drop:]...)
	}
}

// Buffered reports the number of retained snapshots.
func (ip *Interpolator) Buffered() int { return len(ip.snaps) }

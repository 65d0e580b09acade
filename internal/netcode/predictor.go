// Package netcode is the client-side counterpart of the authoritative
// simulation: local input prediction with reconciliation against server
// snapshots, and delayed interpolation for remote entities. It shares
// internal/physics with the server; only that sharing keeps the two sides
// bit-identical.
package netcode

import (
	"time"

	"flag-rush/internal/game"
	"flag-rush/internal/physics"
	"flag-rush/internal/protocol"
)

// BlendDuration is how long a reconciliation correction is eased in instead
// of snapping.
const BlendDuration = 150 * time.Millisecond

// PredictedState is the local shadow player's motion state.
type PredictedState struct {
	Pos physics.Vec2
	Vel physics.Vec2
}

type pendingInput struct {
	seq  uint64
	keys physics.Input
}

// Predictor drives the local player. Each local tick the caller samples the
// keyboard through Sample, sends the returned wire message, and renders the
// position from Render. Authoritative snapshots go through Reconcile.
type Predictor struct {
	mapDef *game.MapDef

	seq     uint64
	pending []pendingInput
	state   PredictedState

	blending   bool
	blendFrom  PredictedState
	blendStart time.Time
}

// NewPredictor starts a predictor at the given spawn state on mapDef.
func NewPredictor(mapDef *game.MapDef, spawn PredictedState) *Predictor {
	return &Predictor{mapDef: mapDef, state: spawn}
}

// Sample consumes one local tick of key state: assigns the next sequence
// number, buffers the input for replay, steps the shadow player through the
// shared physics model, and returns the message to send.
func (p *Predictor) Sample(keys physics.Input) protocol.Input {
	p.seq++
	p.pending = append(p.pending, pendingInput{seq: p.seq, keys: keys})
	p.state = p.step(p.state, keys)

	return protocol.Input{
		Seq:   p.seq,
		Up:    keys.Up,
		Down:  keys.Down,
		Left:  keys.Left,
		Right: keys.Right,
	}
}

func (p *Predictor) step(s PredictedState, keys physics.Input) PredictedState {
	prev := s.Pos
	pos, vel := physics.Integrate(s.Pos, s.Vel, keys.Dir(), physics.TickDT)
	s.Vel = vel
	s.Pos = physics.ResolveWalls(prev, pos, physics.PlayerHalf, p.mapDef.Walls, p.mapDef.Width, p.mapDef.Height)
	return s
}

// Reconcile folds an authoritative player state into the prediction: inputs
// the server has acknowledged are discarded, the rest replay in order on top
// of the authoritative state, and any disagreement with the old prediction
// starts an eased blend so the correction never pops.
func (p *Predictor) Reconcile(auth game.Player, now time.Time) {
	visible := p.Render(now)

	kept := p.pending[:0]
	for _, in := range p.pending {
		if in.seq > auth.LastInputSeq {
			kept = append(kept, in)
		}
	}
	p.pending = kept

	replayed := PredictedState{Pos: auth.Pos, Vel: auth.Vel}
	for _, in := range p.pending {
		replayed = p.step(replayed, in.keys)
	}

	if replayed != p.state {
		p.blending = true
		p.blendFrom = visible
		p.blendStart = now
	}
	p.state = replayed
}

// Render returns the state to draw: the raw prediction, or the eased blend
// from the pre-reconciliation state while a correction is in flight.
func (p *Predictor) Render(now time.Time) PredictedState {
	if !p.blending {
		return p.state
	}

	t := now.Sub(p.blendStart).Seconds() / BlendDuration.Seconds()
	if t >= 1 {
		p.blending = false
		return p.state
	}

	eased := physics.EaseInOut(t)
	return PredictedState{
		Pos: physics.Lerp(p.blendFrom.Pos, p.state.Pos, eased),
		Vel: physics.Lerp(p.blendFrom.Vel, p.state.Vel, eased),
	}
}

// Pending reports how many inputs await acknowledgment.
func (p *Predictor) Pending() int { return len(p.pending) }

// State exposes the raw (unblended) prediction.
func (p *Predictor) State() PredictedState { return p.state }

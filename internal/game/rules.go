package game

import (
	"sort"
	"time"

	"flag-rush/internal/physics"
)

// Advance runs one fixed simulation step. Order matters: stuns expire, then
// movement integrates, then contacts resolve, then projectiles fly, then flag
// rules apply to settled positions, then win conditions are checked. Only a
// playing match advances.
func (m *Match) Advance(now time.Time, dt float64) {
	if m.Phase != PhasePlaying {
		return
	}

	m.expireStuns(now)
	m.integrateMovement(dt)
	m.resolvePlayerContacts()
	m.advanceProjectiles(now, dt)

	for _, p := range m.PlayersByID() {
		m.tryPickup(p, now)
		m.tryCapture(p)
	}
	m.syncCarriedFlags()

	m.checkWinConditions(now)
}

func (m *Match) expireStuns(now time.Time) {
	for _, p := range m.Players {
		if p.Stunned && !now.Before(p.StunnedUntil) {
			p.Stunned = false
			p.StunnedUntil = time.Time{}
		}
	}
}

// integrateMovement steps every mobile player through the shared physics
// model and resolves the result against walls. Stunned players sit out the
// integration entirely.
func (m *Match) integrateMovement(dt float64) {
	for _, p := range m.Players {
		if p.Stunned {
			continue
		}
		prev := p.Pos
		pos, vel := physics.Integrate(p.Pos, p.Vel, p.Input.Dir(), dt)
		p.Vel = vel
		p.Pos = physics.ResolveWalls(prev, pos, physics.PlayerHalf, m.Map.Walls, m.Map.Width, m.Map.Height)
	}
}

// PlayersByID returns players in ID order so pairwise resolution, rule
// application, and snapshots do not depend on map iteration order.
func (m *Match) PlayersByID() []*Player {
	players := make([]*Player, 0, len(m.Players))
	for _, p := range m.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// resolvePlayerContacts handles every overlapping pair. Enemy pairs where at
// least one side carries a flag resolve by the pop rule; everything else
// separates elastically along the collision normal.
func (m *Match) resolvePlayerContacts() {
	players := m.PlayersByID()
	minDist := physics.PlayerHalf * 2

	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			p1, p2 := players[i], players[j]
			delta := p2.Pos.Sub(p1.Pos)
			dist := delta.Len()
			if dist >= minDist {
				continue
			}

			if p1.Team != p2.Team && (p1.Carrying != "" || p2.Carrying != "") {
				m.popCarriers(p1, p2)
				continue
			}

			m.separateElastic(p1, p2, delta, dist, minDist)
		}
	}
}

// popCarriers applies the steal rule: every carried flag in the pair returns
// to its base and its carrier respawns.
func (m *Match) popCarriers(p1, p2 *Player) {
	if c := p1.Carrying; c != "" {
		m.returnFlagToBase(c)
		m.RespawnPlayer(p1)
	}
	if c := p2.Carrying; c != "" {
		m.returnFlagToBase(c)
		m.RespawnPlayer(p2)
	}
}

// separateElastic pushes an overlapping pair apart and swaps the approaching
// normal components of their velocities (equal-mass elastic collision).
func (m *Match) separateElastic(p1, p2 *Player, delta physics.Vec2, dist, minDist float64) {
	n := physics.Vec2{X: 1}
	if dist > 0 {
		n = delta.Scale(1 / dist)
	}

	overlap := (minDist - dist) / 2
	p1.Pos = p1.Pos.Sub(n.Scale(overlap))
	p2.Pos = p2.Pos.Add(n.Scale(overlap))

	v1n := p1.Vel.X*n.X + p1.Vel.Y*n.Y
	v2n := p2.Vel.X*n.X + p2.Vel.Y*n.Y
	if v1n-v2n > 0 { // approaching
		p1.Vel = p1.Vel.Add(n.Scale(v2n - v1n))
		p2.Vel = p2.Vel.Add(n.Scale(v1n - v2n))
	}

	// Separation is a teleport, not a move, so the sweep in ResolveWalls
	// cannot catch it; nudge anyone shoved into a wall back out.
	p1.Pos = physics.ResolvePenetration(p1.Pos, physics.PlayerHalf, m.Map.Walls, m.Map.Width, m.Map.Height)
	p2.Pos = physics.ResolvePenetration(p2.Pos, physics.PlayerHalf, m.Map.Walls, m.Map.Width, m.Map.Height)
}

func (m *Match) advanceProjectiles(now time.Time, dt float64) {
	alive := m.Projectiles[:0]
	for _, proj := range m.Projectiles {
		if now.Sub(proj.SpawnedAt) >= ProjectileLifetime {
			continue
		}

		proj.Pos = proj.Pos.Add(proj.Vel.Scale(dt))

		if proj.Pos.X < 0 || proj.Pos.X > m.Map.Width || proj.Pos.Y < 0 || proj.Pos.Y > m.Map.Height {
			continue
		}
		if m.projectileHitsWall(proj) {
			continue
		}
		if m.projectileHitsPlayer(proj, now) {
			continue
		}

		alive = append(alive, proj)
	}
	m.Projectiles = alive
}

func (m *Match) projectileHitsWall(proj *Projectile) bool {
	for _, w := range m.Map.Walls {
		if physics.CircleRectOverlap(proj.Pos, ProjectileRadius, w) {
			return true
		}
	}
	return false
}

// projectileHitsPlayer stuns the first enemy hit and consumes the
// projectile. Owners and teammates are immune.
func (m *Match) projectileHitsPlayer(proj *Projectile, now time.Time) bool {
	owner, ok := m.Players[proj.Owner]
	if !ok {
		return false
	}
	hitDist := physics.PlayerHalf + ProjectileRadius

	for _, p := range m.PlayersByID() {
		if p.ID == proj.Owner || p.Team == owner.Team {
			continue
		}
		if p.Pos.Sub(proj.Pos).Len() <= hitDist {
			p.Stunned = true
			p.StunnedUntil = now.Add(StunDuration)
			p.Vel = physics.Vec2{}
			p.Input = physics.Input{}
			return true
		}
	}
	return false
}

// tryPickup claims an unclaimed enemy flag in radius, honoring the
// post-drop cooldown.
func (m *Match) tryPickup(p *Player, now time.Time) {
	if p.Carrying != "" || p.Stunned {
		return
	}

	f := m.Flags[p.Team.Opponent()]
	if f.CarriedBy != "" {
		return
	}
	if f.Dropped && now.Sub(f.DroppedAt) < PickupCooldown {
		return
	}
	if p.Pos.Sub(f.Pos).Len() > PickupRadius {
		return
	}

	f.AtBase = false
	f.Dropped = false
	f.DroppedAt = time.Time{}
	f.CarriedBy = p.ID
	p.Carrying = f.Team
}

// tryCapture scores a carrier standing at its own base, provided its own
// flag is home.
func (m *Match) tryCapture(p *Player) {
	if p.Carrying == "" {
		return
	}
	own := m.Flags[p.Team]
	if !own.AtBase {
		return
	}
	if p.Pos.Sub(m.Map.FlagBases[p.Team]).Len() > CaptureRadius {
		return
	}

	m.Scores[p.Team]++
	m.returnFlagToBase(p.Carrying)
}

func (m *Match) syncCarriedFlags() {
	for _, f := range m.Flags {
		if f.CarriedBy == "" {
			continue
		}
		if p, ok := m.Players[f.CarriedBy]; ok {
			f.Pos = p.Pos
		}
	}
}

func (m *Match) checkWinConditions(now time.Time) {
	for _, team := range []Team{TeamRed, TeamBlue} {
		if m.Scores[team] >= m.Config.ScoreLimit {
			m.finish(team)
			return
		}
	}

	if now.Sub(m.StartedAt) >= time.Duration(m.Config.TimeLimitSec)*time.Second {
		switch {
		case m.Scores[TeamRed] > m.Scores[TeamBlue]:
			m.finish(TeamRed)
		case m.Scores[TeamBlue] > m.Scores[TeamRed]:
			m.finish(TeamBlue)
		default:
			m.finish("") // tie: no winner
		}
	}
}

func (m *Match) finish(winner Team) {
	m.Phase = PhaseFinished
	m.Winner = winner
}

// ApplyInput records the latest input for a player. Sequence numbers are
// monotonic; stale or duplicate samples are ignored. A stunned player still
// gets its sequence acknowledged so the client can trim its replay buffer,
// but the keys themselves are discarded.
func (m *Match) ApplyInput(id string, seq uint64, in physics.Input) {
	if m.Phase != PhasePlaying {
		return
	}
	p, ok := m.Players[id]
	if !ok || seq <= p.LastInputSeq {
		return
	}
	p.LastInputSeq = seq
	if p.Stunned {
		p.Input = physics.Input{}
		return
	}
	p.Input = in
}

// ThrowProjectile spawns a stun projectile in dir, rate-limited per player.
func (m *Match) ThrowProjectile(id string, dir physics.Vec2, now time.Time) {
	if m.Phase != PhasePlaying {
		return
	}
	p, ok := m.Players[id]
	if !ok || p.Stunned {
		return
	}
	if now.Sub(p.LastThrow) < ThrowCooldown {
		return
	}
	aim := dir.Normalized()
	if aim == (physics.Vec2{}) {
		return
	}

	p.LastThrow = now
	m.Projectiles = append(m.Projectiles, &Projectile{
		ID:        m.newProjectileID(),
		Pos:       p.Pos,
		Vel:       aim.Scale(ProjectileSpeed),
		Owner:     id,
		SpawnedAt: now,
	})
}

// DropFlag places a carried flag on the ground at the carrier's feet and
// starts the pickup cooldown.
func (m *Match) DropFlag(id string, now time.Time) {
	if m.Phase != PhasePlaying {
		return
	}
	p, ok := m.Players[id]
	if !ok || p.Carrying == "" {
		return
	}
	if now.Sub(p.LastDrop) < DropCooldown {
		return
	}

	f := m.Flags[p.Carrying]
	f.Pos = p.Pos
	f.AtBase = false
	f.CarriedBy = ""
	f.Dropped = true
	f.DroppedAt = now

	p.Carrying = ""
	p.LastDrop = now
}

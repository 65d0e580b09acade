package game

import (
	"testing"
	"time"

	"flag-rush/internal/physics"
)

func testMatch(t *testing.T, ids ...string) (*Match, time.Time) {
	t.Helper()
	now := time.UnixMilli(1_700_000_000_000)
	m := NewMatch(DefaultConfig(), 1)
	for _, id := range ids {
		m.AddPlayer(id, now)
	}
	m.Phase = PhasePlaying
	m.StartedAt = now
	return m, now
}

// assertFlagInvariant checks exactly-one-of {at base, carried, dropped} and
// that a carrier, if any, is a live opposing player.
func assertFlagInvariant(t *testing.T, m *Match) {
	t.Helper()
	for team, f := range m.Flags {
		states := 0
		if f.AtBase {
			states++
		}
		if f.CarriedBy != "" {
			states++
		}
		if f.Dropped {
			states++
		}
		if states != 1 {
			t.Fatalf("%s flag violates single-ownership: atBase=%v carriedBy=%q dropped=%v",
				team, f.AtBase, f.CarriedBy, f.Dropped)
		}
		if f.CarriedBy != "" {
			carrier, ok := m.Players[f.CarriedBy]
			if !ok {
				t.Fatalf("%s flag carried by dead player %q", team, f.CarriedBy)
			}
			if carrier.Team == team {
				t.Fatalf("%s flag carried by own team member %q", team, f.CarriedBy)
			}
		}
	}
}

func TestCaptureScenario(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	m.Players["blue-1"].Pos = physics.Vec2{X: 800, Y: 160}

	// Red reaches Blue's at-base flag.
	red.Pos = m.Map.FlagBases[TeamBlue]
	m.Advance(now, physics.TickDT)

	blueFlag := m.Flags[TeamBlue]
	if blueFlag.CarriedBy != "red-1" || blueFlag.AtBase {
		t.Fatalf("expected red-1 to carry blue flag, got carriedBy=%q atBase=%v",
			blueFlag.CarriedBy, blueFlag.AtBase)
	}
	if red.Carrying != TeamBlue {
		t.Fatalf("red carrying = %q, want blue", red.Carrying)
	}
	assertFlagInvariant(t, m)

	// Red brings it home while Red's own flag sits at base.
	red.Pos = m.Map.FlagBases[TeamRed]
	red.Vel = physics.Vec2{}
	m.Advance(now.Add(time.Second), physics.TickDT)

	if m.Scores[TeamRed] != 1 {
		t.Fatalf("red score = %d, want 1", m.Scores[TeamRed])
	}
	if !m.Flags[TeamBlue].AtBase {
		t.Fatal("blue flag must reset to base on capture")
	}
	if red.Carrying != "" {
		t.Fatalf("red carry must clear, got %q", red.Carrying)
	}
	assertFlagInvariant(t, m)
}

func TestCaptureRequiresOwnFlagHome(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	red.Carrying = TeamBlue
	m.Flags[TeamBlue].AtBase = false
	m.Flags[TeamBlue].CarriedBy = "red-1"

	// Red's own flag is away from base: no capture.
	m.Flags[TeamRed].AtBase = false
	m.Flags[TeamRed].Dropped = true
	m.Flags[TeamRed].DroppedAt = now
	m.Flags[TeamRed].Pos = physics.Vec2{X: 400, Y: 400}

	red.Pos = m.Map.FlagBases[TeamRed]
	m.Advance(now, physics.TickDT)

	if m.Scores[TeamRed] != 0 {
		t.Fatal("must not score while own flag is not at base")
	}
	if red.Carrying != TeamBlue {
		t.Fatal("carry must persist when capture is refused")
	}
}

func TestStealPopScenario(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	blue := m.Players["blue-1"]

	red.Carrying = TeamBlue
	m.Flags[TeamBlue].AtBase = false
	m.Flags[TeamBlue].CarriedBy = "red-1"

	// Collide the carrier with an unladen defender mid-map.
	red.Pos = physics.Vec2{X: 640, Y: 360}
	blue.Pos = physics.Vec2{X: 640 + physics.PlayerHalf, Y: 360}
	m.Advance(now, physics.TickDT)

	if !m.Flags[TeamBlue].AtBase {
		t.Fatal("carried flag must pop to base on contact")
	}
	if red.Carrying != "" {
		t.Fatal("carrier must lose the flag")
	}

	zone := m.Map.SpawnZones[TeamRed]
	if red.Pos.Sub(zone.Center).Len() > zone.Radius {
		t.Fatalf("carrier must respawn in its zone, got %+v", red.Pos)
	}
	assertFlagInvariant(t, m)
}

func TestDoubleCarrierContactPopsBoth(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	blue := m.Players["blue-1"]

	red.Carrying = TeamBlue
	m.Flags[TeamBlue].AtBase = false
	m.Flags[TeamBlue].CarriedBy = "red-1"
	blue.Carrying = TeamRed
	m.Flags[TeamRed].AtBase = false
	m.Flags[TeamRed].CarriedBy = "blue-1"

	red.Pos = physics.Vec2{X: 640, Y: 360}
	blue.Pos = physics.Vec2{X: 645, Y: 360}
	m.Advance(now, physics.TickDT)

	if !m.Flags[TeamRed].AtBase || !m.Flags[TeamBlue].AtBase {
		t.Fatal("both flags must pop to base")
	}
	if red.Carrying != "" || blue.Carrying != "" {
		t.Fatal("both carries must clear")
	}
	assertFlagInvariant(t, m)
}

func TestPickupCooldownAfterExplicitDrop(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	red.Carrying = TeamBlue
	m.Flags[TeamBlue].AtBase = false
	m.Flags[TeamBlue].CarriedBy = "red-1"
	red.Pos = physics.Vec2{X: 640, Y: 360}
	m.Players["blue-1"].Pos = physics.Vec2{X: 1120, Y: 360}

	m.DropFlag("red-1", now)
	f := m.Flags[TeamBlue]
	if !f.Dropped || f.AtBase || f.CarriedBy != "" {
		t.Fatalf("drop left flag in bad state: %+v", f)
	}
	assertFlagInvariant(t, m)

	// Still standing on it: pickup refused inside the cooldown.
	m.Advance(now.Add(time.Second/physics.TickRate), physics.TickDT)
	if red.Carrying != "" {
		t.Fatal("pickup inside cooldown must be refused")
	}

	// After the cooldown the same player may re-take it.
	m.Advance(now.Add(PickupCooldown+time.Millisecond), physics.TickDT)
	if red.Carrying != TeamBlue {
		t.Fatal("pickup after cooldown must succeed")
	}
	assertFlagInvariant(t, m)
}

func TestResetFlagIsImmediatelyClaimable(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]

	// A flag returned to base carries no drop cooldown.
	m.returnFlagToBase(TeamBlue)
	m.Players["blue-1"].Pos = physics.Vec2{X: 800, Y: 160}
	red.Pos = m.Map.FlagBases[TeamBlue]
	m.Advance(now, physics.TickDT)

	if red.Carrying != TeamBlue {
		t.Fatal("at-base flag must be claimable with no cooldown")
	}
}

func TestStunnedPlayerSitsOut(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	m.Players["blue-1"].Pos = physics.Vec2{X: 800, Y: 160}
	red.Pos = m.Map.FlagBases[TeamBlue]
	red.Stunned = true
	red.StunnedUntil = now.Add(StunDuration)
	red.Input = physics.Input{Right: true}

	before := red.Pos
	m.Advance(now, physics.TickDT)

	if red.Pos != before {
		t.Fatal("stunned player must not move")
	}
	if red.Carrying != "" {
		t.Fatal("stunned player must not pick up a flag")
	}

	// Stun expires; movement resumes next tick.
	m.ApplyInput("red-1", 1, physics.Input{Right: true})
	m.Advance(now.Add(StunDuration), physics.TickDT)
	m.ApplyInput("red-1", 2, physics.Input{Right: true})
	m.Advance(now.Add(StunDuration+time.Second/physics.TickRate), physics.TickDT)
	if red.Stunned {
		t.Fatal("stun must expire")
	}
}

func TestProjectileStunsEnemy(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	blue := m.Players["blue-1"]

	red.Pos = physics.Vec2{X: 500, Y: 360}
	blue.Pos = physics.Vec2{X: 600, Y: 360}

	m.ThrowProjectile("red-1", physics.Vec2{X: 1}, now)
	if len(m.Projectiles) != 1 {
		t.Fatalf("expected 1 projectile, got %d", len(m.Projectiles))
	}

	for i := 0; i < physics.TickRate; i++ {
		m.Advance(now.Add(time.Duration(i)*time.Second/physics.TickRate), physics.TickDT)
		if blue.Stunned {
			break
		}
	}

	if !blue.Stunned {
		t.Fatal("projectile must stun the enemy it hits")
	}
	if blue.Vel != (physics.Vec2{}) {
		t.Fatal("stun must zero velocity")
	}
	if len(m.Projectiles) != 0 {
		t.Fatal("projectile must be consumed on hit")
	}
}

func TestThrowRateLimited(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1")
	m.ThrowProjectile("red-1", physics.Vec2{X: 1}, now)
	m.ThrowProjectile("red-1", physics.Vec2{X: 1}, now.Add(100*time.Millisecond))

	if len(m.Projectiles) != 1 {
		t.Fatalf("second throw inside cooldown must be dropped, got %d projectiles", len(m.Projectiles))
	}

	m.ThrowProjectile("red-1", physics.Vec2{X: 1}, now.Add(ThrowCooldown))
	if len(m.Projectiles) != 2 {
		t.Fatal("throw after cooldown must succeed")
	}
}

func TestProjectileExpiresOnWall(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1")
	red := m.Players["red-1"]
	// Aim straight at the central wall column.
	red.Pos = physics.Vec2{X: 560, Y: 100}
	m.ThrowProjectile("red-1", physics.Vec2{X: 1}, now)

	for i := 1; i <= physics.TickRate; i++ {
		m.Advance(now.Add(time.Duration(i)*time.Second/physics.TickRate), physics.TickDT)
	}
	if len(m.Projectiles) != 0 {
		t.Fatal("projectile must die on wall contact")
	}
}

func TestWinByScoreLimit(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	m.Scores[TeamRed] = m.Config.ScoreLimit
	m.Advance(now, physics.TickDT)

	if m.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", m.Phase)
	}
	if m.Winner != TeamRed {
		t.Fatalf("winner = %q, want red", m.Winner)
	}
}

func TestWinByTimeLimit(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	m.Scores[TeamBlue] = 2
	m.Scores[TeamRed] = 1

	m.Advance(now.Add(time.Duration(m.Config.TimeLimitSec)*time.Second), physics.TickDT)

	if m.Phase != PhaseFinished || m.Winner != TeamBlue {
		t.Fatalf("phase=%s winner=%q, want finished/blue", m.Phase, m.Winner)
	}
}

func TestTimeLimitTieHasNoWinner(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	m.Scores[TeamBlue] = 2
	m.Scores[TeamRed] = 2

	m.Advance(now.Add(time.Duration(m.Config.TimeLimitSec)*time.Second), physics.TickDT)

	if m.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", m.Phase)
	}
	if m.Winner != "" {
		t.Fatalf("tie must record no winner, got %q", m.Winner)
	}
}

func TestInputSequenceMonotonic(t *testing.T) {
	t.Parallel()

	m, _ := testMatch(t, "red-1")
	red := m.Players["red-1"]

	m.ApplyInput("red-1", 5, physics.Input{Right: true})
	m.ApplyInput("red-1", 3, physics.Input{Left: true}) // stale, ignored
	m.ApplyInput("red-1", 5, physics.Input{Left: true}) // duplicate, ignored

	if red.LastInputSeq != 5 {
		t.Fatalf("seq = %d, want 5", red.LastInputSeq)
	}
	if !red.Input.Right || red.Input.Left {
		t.Fatalf("stale input overwrote newer one: %+v", red.Input)
	}
}

func TestSeparationNeverShovesIntoWall(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "blue-1")
	red := m.Players["red-1"]
	blue := m.Players["blue-1"]

	// Overlapping pair beside the left face of the central wall column:
	// separation pushes blue toward the wall.
	wallFace := 600 - physics.PlayerHalf
	red.Pos = physics.Vec2{X: 575, Y: 100}
	blue.Pos = physics.Vec2{X: 585, Y: 100}

	m.Advance(now, physics.TickDT)

	for _, p := range []*Player{red, blue} {
		for _, w := range m.Map.Walls {
			if physics.CircleRectOverlap(p.Pos, physics.PlayerHalf, w) {
				t.Fatalf("%s ends the tick inside wall %+v at %+v", p.ID, w, p.Pos)
			}
		}
	}
	if blue.Pos.X > wallFace+1e-9 {
		t.Fatalf("blue x = %.2f, want at most the wall face %.2f", blue.Pos.X, wallFace)
	}

	// Keep driving into the wall for four seconds; the face must hold.
	for tick := 1; tick <= physics.TickRate*4; tick++ {
		m.ApplyInput("blue-1", uint64(tick), physics.Input{Right: true})
		m.Advance(now.Add(time.Duration(tick)*time.Second/physics.TickRate), physics.TickDT)
		if blue.Pos.X > wallFace+1e-9 {
			t.Fatalf("tick %d: blue passed the wall face: x = %.2f", tick, blue.Pos.X)
		}
	}
}

func TestFlagInvariantUnderSimulation(t *testing.T) {
	t.Parallel()

	m, now := testMatch(t, "red-1", "red-2", "blue-1", "blue-2")

	scripts := map[string][]physics.Input{
		"red-1":  {{Right: true}, {Right: true, Down: true}, {Down: true}},
		"red-2":  {{Right: true, Up: true}, {Right: true}},
		"blue-1": {{Left: true}, {Left: true, Up: true}},
		"blue-2": {{Left: true, Down: true}, {Left: true}},
	}

	for tick := 0; tick < physics.TickRate*20; tick++ {
		at := now.Add(time.Duration(tick) * time.Second / physics.TickRate)
		for id, script := range scripts {
			m.ApplyInput(id, uint64(tick+1), script[tick%len(script)])
		}
		m.Advance(at, physics.TickDT)

		assertFlagInvariant(t, m)
		for id, p := range m.Players {
			if p.Carrying != "" && p.Carrying == p.Team {
				t.Fatalf("tick %d: %s carries its own flag", tick, id)
			}
			if p.Pos.X < physics.PlayerHalf || p.Pos.X > m.Map.Width-physics.PlayerHalf ||
				p.Pos.Y < physics.PlayerHalf || p.Pos.Y > m.Map.Height-physics.PlayerHalf {
				t.Fatalf("tick %d: %s escaped world bounds: %+v", tick, id, p.Pos)
			}
			for _, w := range m.Map.Walls {
				if physics.CircleRectOverlap(p.Pos, physics.PlayerHalf, w) {
					t.Fatalf("tick %d: %s inside wall %+v at %+v", tick, id, w, p.Pos)
				}
			}
		}
		if m.Phase != PhasePlaying {
			break
		}
	}
}

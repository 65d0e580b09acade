package physics

import (
	"math"
	"testing"
)

func TestIntegrateDeterministic(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		{Up: true},
		{Up: true, Right: true},
		{},
		{Left: true},
		{Down: true, Left: true},
		{},
	}

	run := func() (Vec2, Vec2) {
		pos := Vec2{X: 100, Y: 100}
		var vel Vec2
		for i := 0; i < 600; i++ {
			in := inputs[i%len(inputs)]
			pos, vel = Integrate(pos, vel, in.Dir(), TickDT)
		}
		return pos, vel
	}

	pos1, vel1 := run()
	pos2, vel2 := run()

	if pos1 != pos2 {
		t.Fatalf("positions diverged: %+v vs %+v", pos1, pos2)
	}
	if vel1 != vel2 {
		t.Fatalf("velocities diverged: %+v vs %+v", vel1, vel2)
	}
}

func TestIntegrateSpeedClamp(t *testing.T) {
	t.Parallel()

	pos := Vec2{X: 400, Y: 300}
	vel := Vec2{}
	dir := Input{Up: true, Right: true}.Dir()

	for i := 0; i < TickRate*10; i++ {
		pos, vel = Integrate(pos, vel, dir, TickDT)
		if speed := vel.Len(); speed > MaxSpeed+1e-9 {
			t.Fatalf("tick %d: speed %.6f exceeds max %.1f", i, speed, MaxSpeed)
		}
	}
}

func TestIntegrateFrictionCoasts(t *testing.T) {
	t.Parallel()

	pos := Vec2{X: 400, Y: 300}
	vel := Vec2{X: MaxSpeed}

	for i := 0; i < TickRate*3; i++ {
		pos, vel = Integrate(pos, vel, Vec2{}, TickDT)
	}

	if vel.Len() > 1 {
		t.Fatalf("expected velocity to decay to near zero, got %.4f", vel.Len())
	}
}

func TestDirDiagonalNotFaster(t *testing.T) {
	t.Parallel()

	diag := Input{Up: true, Right: true}.Dir()
	if length := diag.Len(); math.Abs(length-1) > 1e-12 {
		t.Fatalf("diagonal input dir length = %.12f, want 1", length)
	}
}

func TestResolveWallsStopsAtBoundary(t *testing.T) {
	t.Parallel()

	walls := []Rect{{X: 200, Y: 0, Width: 40, Height: 600}}

	prev := Vec2{X: 180, Y: 100}
	pos := Vec2{X: 220, Y: 100}
	got := ResolveWalls(prev, pos, PlayerHalf, walls, 800, 600)

	wantX := 200 - PlayerHalf
	if got.X != wantX {
		t.Fatalf("x = %.2f, want %.2f", got.X, wantX)
	}
	if got.Y != 100 {
		t.Fatalf("y = %.2f, want 100 (free axis must keep moving)", got.Y)
	}
}

func TestResolveWallsSlidesAlongWall(t *testing.T) {
	t.Parallel()

	walls := []Rect{{X: 200, Y: 0, Width: 40, Height: 600}}

	prev := Vec2{X: 180, Y: 100}
	pos := Vec2{X: 230, Y: 140}
	got := ResolveWalls(prev, pos, PlayerHalf, walls, 800, 600)

	if got.X != 200-PlayerHalf {
		t.Fatalf("x = %.2f, want %.2f", got.X, 200-PlayerHalf)
	}
	if got.Y != 140 {
		t.Fatalf("y = %.2f, want 140", got.Y)
	}
}

func TestResolveWallsClampsWorldBounds(t *testing.T) {
	t.Parallel()

	got := ResolveWalls(Vec2{X: 10, Y: 10}, Vec2{X: -50, Y: -50}, PlayerHalf, nil, 800, 600)
	if got.X != PlayerHalf || got.Y != PlayerHalf {
		t.Fatalf("got %+v, want clamped to (%.0f, %.0f)", got, PlayerHalf, PlayerHalf)
	}
}

func TestResolvePenetrationNudgesOut(t *testing.T) {
	t.Parallel()

	walls := []Rect{{X: 200, Y: 0, Width: 40, Height: 600}}

	// Overlapping the left face by 3px: pushed back to flush contact.
	got := ResolvePenetration(Vec2{X: 200 - PlayerHalf + 3, Y: 100}, PlayerHalf, walls, 800, 600)
	if got.X != 200-PlayerHalf {
		t.Fatalf("x = %.2f, want %.2f", got.X, 200-PlayerHalf)
	}
	if got.Y != 100 {
		t.Fatalf("y = %.2f, want 100 untouched", got.Y)
	}

	// Same depth on the right face: pushed the other way.
	got = ResolvePenetration(Vec2{X: 240 + PlayerHalf - 3, Y: 100}, PlayerHalf, walls, 800, 600)
	if got.X != 240+PlayerHalf {
		t.Fatalf("x = %.2f, want %.2f", got.X, 240+PlayerHalf)
	}
}

func TestResolvePenetrationCenterInsideWall(t *testing.T) {
	t.Parallel()

	walls := []Rect{{X: 200, Y: 0, Width: 40, Height: 600}}

	// Center fully inside, nearest face is the left one.
	got := ResolvePenetration(Vec2{X: 205, Y: 100}, PlayerHalf, walls, 800, 600)
	if got.X != 200-PlayerHalf {
		t.Fatalf("x = %.2f, want ejected through the nearest face %.2f", got.X, 200-PlayerHalf)
	}
	if CircleRectOverlap(got, PlayerHalf, walls[0]) {
		t.Fatalf("still overlapping after ejection: %+v", got)
	}
}

func TestResolvePenetrationClearPositionUnchanged(t *testing.T) {
	t.Parallel()

	walls := []Rect{{X: 200, Y: 0, Width: 40, Height: 600}}
	pos := Vec2{X: 100, Y: 100}
	if got := ResolvePenetration(pos, PlayerHalf, walls, 800, 600); got != pos {
		t.Fatalf("non-overlapping position moved: %+v", got)
	}
}

func TestEaseInOutEndpoints(t *testing.T) {
	t.Parallel()

	if EaseInOut(0) != 0 {
		t.Fatalf("ease(0) = %f", EaseInOut(0))
	}
	if EaseInOut(1) != 1 {
		t.Fatalf("ease(1) = %f", EaseInOut(1))
	}
	if mid := EaseInOut(0.5); math.Abs(mid-0.5) > 1e-12 {
		t.Fatalf("ease(0.5) = %f", mid)
	}
	if EaseInOut(2) != 1 {
		t.Fatalf("ease must clamp above 1")
	}
}

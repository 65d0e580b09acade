package game

import "time"

// Gameplay tuning. Physics constants live in internal/physics because the
// client predictor shares them; everything server-only sits here.
const (
	PickupRadius  = 26.0
	CaptureRadius = 34.0

	// Cooldown before a flag explicitly dropped by its carrier may be
	// picked up again. Starts only on drop_flag, never on a reset to base.
	PickupCooldown = 2 * time.Second

	DropCooldown  = 500 * time.Millisecond
	ThrowCooldown = 900 * time.Millisecond

	ProjectileSpeed    = 520.0
	ProjectileRadius   = 6.0
	ProjectileLifetime = 1200 * time.Millisecond

	StunDuration = 1500 * time.Millisecond

	scoreLimitDefault = 3
	scoreLimitMax     = 25

	timeLimitDefaultSec = 300
	timeLimitMinSec     = 30
	timeLimitMaxSec     = 1800

	NicknameMaxLen = 24
)

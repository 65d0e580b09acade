// Package game holds the authoritative CTF match state and the rules that
// advance it. Everything here is plain data plus synchronous mutation; the
// room actor is the only caller, so no locking happens at this layer.
package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"flag-rush/internal/physics"
)

// Team identifies one of the two sides.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// ParseTeam validates a team string received from a client.
func ParseTeam(value string) (Team, bool) {
	switch Team(value) {
	case TeamRed, TeamBlue:
		return Team(value), true
	default:
		return "", false
	}
}

// Phase is the match lifecycle state.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Player is one participant's simulated state.
type Player struct {
	ID           string        `json:"id"`
	Nickname     string        `json:"nickname,omitempty"`
	Team         Team          `json:"team"`
	Pos          physics.Vec2  `json:"pos"`
	Vel          physics.Vec2  `json:"vel"`
	Input        physics.Input `json:"-"`
	LastInputSeq uint64        `json:"lastInputSeq"`
	Carrying     Team          `json:"carrying,omitempty"`
	Stunned      bool          `json:"stunned,omitempty"`

	StunnedUntil time.Time `json:"-"`
	LastThrow    time.Time `json:"-"`
	LastDrop     time.Time `json:"-"`
	LastSeen     time.Time `json:"-"`
}

// Flag is one team's flag. Exactly one of AtBase, CarriedBy != "", Dropped
// holds at any tick boundary.
type Flag struct {
	Team      Team         `json:"team"`
	Pos       physics.Vec2 `json:"pos"`
	AtBase    bool         `json:"atBase"`
	CarriedBy string       `json:"carriedBy,omitempty"`
	Dropped   bool         `json:"dropped,omitempty"`

	DroppedAt time.Time `json:"-"`
}

// Projectile is a thrown stun projectile in flight.
type Projectile struct {
	ID    string       `json:"id"`
	Pos   physics.Vec2 `json:"pos"`
	Vel   physics.Vec2 `json:"vel"`
	Owner string       `json:"owner"`

	SpawnedAt time.Time `json:"-"`
}

// Config is the host-tunable match configuration.
type Config struct {
	ScoreLimit   int    `json:"scoreLimit"`
	TimeLimitSec int    `json:"timeLimitSec"`
	MapID        string `json:"mapId"`
}

// DefaultConfig returns the lobby defaults for a fresh room.
func DefaultConfig() Config {
	return Config{
		ScoreLimit:   scoreLimitDefault,
		TimeLimitSec: timeLimitDefaultSec,
		MapID:        DefaultMapID,
	}
}

func (c Config) normalized() Config {
	if c.ScoreLimit < 1 {
		c.ScoreLimit = scoreLimitDefault
	}
	if c.ScoreLimit > scoreLimitMax {
		c.ScoreLimit = scoreLimitMax
	}
	if c.TimeLimitSec < timeLimitMinSec {
		c.TimeLimitSec = timeLimitDefaultSec
	}
	if c.TimeLimitSec > timeLimitMaxSec {
		c.TimeLimitSec = timeLimitMaxSec
	}
	if _, ok := Maps[c.MapID]; !ok {
		c.MapID = DefaultMapID
	}
	return c
}

// Match owns every mutable piece of one room's simulation.
type Match struct {
	Map         *MapDef
	Players     map[string]*Player
	Flags       map[Team]*Flag
	Projectiles []*Projectile
	Scores      map[Team]int
	Phase       Phase
	Config      Config
	Ready       map[string]bool
	HostID      string
	StartedAt   time.Time
	Winner      Team

	nextProjectileID uint64
	rng              *rand.Rand
}

// NewMatch builds a lobby-phase match on the configured map.
func NewMatch(cfg Config, seed int64) *Match {
	cfg = cfg.normalized()
	m := &Match{
		Map:     Maps[cfg.MapID],
		Players: make(map[string]*Player),
		Flags:   make(map[Team]*Flag),
		Scores:  map[Team]int{TeamRed: 0, TeamBlue: 0},
		Phase:   PhaseLobby,
		Config:  cfg,
		Ready:   make(map[string]bool),
		rng:     rand.New(rand.NewSource(seed)),
	}
	m.resetFlags()
	return m
}

func (m *Match) resetFlags() {
	for _, team := range []Team{TeamRed, TeamBlue} {
		m.Flags[team] = &Flag{
			Team:   team,
			Pos:    m.Map.FlagBases[team],
			AtBase: true,
		}
	}
}

// returnFlagToBase clears every carry/drop mark and puts the flag home.
func (m *Match) returnFlagToBase(team Team) {
	f := m.Flags[team]
	if f.CarriedBy != "" {
		if p, ok := m.Players[f.CarriedBy]; ok && p.Carrying == team {
			p.Carrying = ""
		}
	}
	f.Pos = m.Map.FlagBases[team]
	f.AtBase = true
	f.CarriedBy = ""
	f.Dropped = false
	f.DroppedAt = time.Time{}
}

// AddPlayer creates a player on the smaller team and spawns it in its zone.
func (m *Match) AddPlayer(id string, now time.Time) *Player {
	red, blue := 0, 0
	for _, p := range m.Players {
		if p.Team == TeamRed {
			red++
		} else {
			blue++
		}
	}
	team := TeamRed
	if blue < red {
		team = TeamBlue
	}

	p := &Player{ID: id, Team: team, LastSeen: now}
	m.Players[id] = p
	m.RespawnPlayer(p)
	return p
}

// RemovePlayer drops a player; a carried flag goes straight home.
func (m *Match) RemovePlayer(id string) {
	p, ok := m.Players[id]
	if !ok {
		return
	}
	if p.Carrying != "" {
		m.returnFlagToBase(p.Carrying)
	}
	delete(m.Players, id)
	delete(m.Ready, id)
}

// SwitchTeam moves a lobby player to the requested team. A carried flag is
// impossible in the lobby, so no flag handling is needed here.
func (m *Match) SwitchTeam(id string, team Team) {
	if m.Phase != PhaseLobby {
		return
	}
	if p, ok := m.Players[id]; ok && p.Team != team {
		p.Team = team
		m.RespawnPlayer(p)
	}
}

// RespawnPlayer places a player at a random point inside its spawn zone and
// zeroes its motion.
func (m *Match) RespawnPlayer(p *Player) {
	zone := m.Map.SpawnZones[p.Team]
	angle := m.rng.Float64() * 2 * math.Pi
	dist := m.rng.Float64() * (zone.Radius - physics.PlayerHalf)
	p.Pos = physics.Vec2{
		X: zone.Center.X + math.Cos(angle)*dist,
		Y: zone.Center.Y + math.Sin(angle)*dist,
	}
	p.Vel = physics.Vec2{}
	p.Input = physics.Input{}
}

// TimeRemaining returns the seconds left in a running match, or 0 otherwise.
func (m *Match) TimeRemaining(now time.Time) float64 {
	if m.Phase != PhasePlaying {
		return 0
	}
	remaining := float64(m.Config.TimeLimitSec) - now.Sub(m.StartedAt).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Match) newProjectileID() string {
	m.nextProjectileID++
	return fmt.Sprintf("proj-%d", m.nextProjectileID)
}

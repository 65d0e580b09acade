// Package protocol defines the wire schemas spoken over each participant's
// websocket. Messages are tagged JSON: a flat object with a "type" field,
// decoded into one concrete command per tag. Unknown tags decode to nil and
// are treated as no-ops by the room.
package protocol

import (
	"flag-rush/internal/game"
	"flag-rush/internal/physics"
)

// Command is a decoded client→server message.
type Command interface {
	isCommand()
}

// Input carries one tick's key state plus the client's sequence number for
// prediction reconciliation.
type Input struct {
	Seq   uint64 `json:"seq"`
	Up    bool   `json:"up"`
	Down  bool   `json:"down"`
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
}

// Keys converts the sample to the shared physics input type.
func (in Input) Keys() physics.Input {
	return physics.Input{Up: in.Up, Down: in.Down, Left: in.Left, Right: in.Right}
}

// Throw requests a stun projectile in the given direction.
type Throw struct {
	Dir physics.Vec2 `json:"dir"`
}

// DropFlag requests an explicit flag drop at the carrier's position.
type DropFlag struct{}

// Ready toggles the sender's lobby ready flag.
type Ready struct {
	Ready bool `json:"ready"`
}

// SelectTeam requests a lobby team switch.
type SelectTeam struct {
	Team string `json:"team"`
}

// SetNickname sets the sender's display name.
type SetNickname struct {
	Nickname string `json:"nickname"`
}

// UpdateConfig replaces the match configuration (host, lobby only).
type UpdateConfig struct {
	Config game.Config `json:"config"`
}

// SelectMap switches the active map (host, lobby only).
type SelectMap struct {
	MapID string `json:"mapId"`
}

// StartGame moves the room into the playing phase (host, lobby only).
type StartGame struct{}

// ResetGame returns a finished room to the lobby (host, finished only).
type ResetGame struct{}

func (Input) isCommand()        {}
func (Throw) isCommand()        {}
func (DropFlag) isCommand()     {}
func (Ready) isCommand()        {}
func (SelectTeam) isCommand()   {}
func (SetNickname) isCommand()  {}
func (UpdateConfig) isCommand() {}
func (SelectMap) isCommand()    {}
func (StartGame) isCommand()    {}
func (ResetGame) isCommand()    {}

// Snapshot is the full authoritative state carried by every state broadcast.
type Snapshot struct {
	Players       []game.Player           `json:"players"`
	Projectiles   []game.Projectile       `json:"projectiles"`
	Flags         map[game.Team]game.Flag `json:"flags"`
	Scores        map[game.Team]int       `json:"scores"`
	TimeRemaining *float64                `json:"timeRemaining,omitempty"`
}

// State is broadcast once per tick while playing. Timestamp is server unix
// milliseconds; the interpolator keys its buffer on it.
type State struct {
	Type      string   `json:"type"`
	State     Snapshot `json:"state"`
	Timestamp int64    `json:"timestamp"`
}

// ReadyState is one participant's lobby row.
type ReadyState struct {
	ID       string    `json:"id"`
	Nickname string    `json:"nickname,omitempty"`
	Team     game.Team `json:"team"`
	Ready    bool      `json:"ready"`
}

// LobbyState is broadcast on every lobby-relevant change, and defensively
// once per tick while the room is not playing.
type LobbyState struct {
	Type          string       `json:"type"`
	Phase         game.Phase   `json:"phase"`
	Config        game.Config  `json:"config"`
	ReadyStates   []ReadyState `json:"readyStates"`
	HostID        string       `json:"hostId"`
	TimeRemaining *float64     `json:"timeRemaining,omitempty"`
	Winner        string       `json:"winner,omitempty"`
	MapData       *game.MapDef `json:"mapData"`
}

const (
	TypeState      = "state"
	TypeLobbyState = "lobby_state"
)

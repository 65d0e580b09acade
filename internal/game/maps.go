package game

import "flag-rush/internal/physics"

// Circle marks a team spawn zone.
type Circle struct {
	Center physics.Vec2 `json:"center"`
	Radius float64      `json:"radius"`
}

// MapDef is the read-only geometry a match plays on. The simulation never
// mutates a MapDef; rooms share pointers into the catalog.
type MapDef struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Width              float64               `json:"width"`
	Height             float64               `json:"height"`
	Walls              []physics.Rect        `json:"walls"`
	FlagBases          map[Team]physics.Vec2 `json:"flagBases"`
	SpawnZones         map[Team]Circle       `json:"spawnZones"`
	GridSize           float64               `json:"gridSize"`
	RecommendedPlayers int                   `json:"recommendedPlayers"`
}

const DefaultMapID = "meridian"

// Maps is the built-in map catalog, keyed by map ID.
var Maps = map[string]*MapDef{
	"meridian": {
		ID:     "meridian",
		Name:   "Meridian",
		Width:  1280,
		Height: 720,
		Walls: []physics.Rect{
			{X: 600, Y: 0, Width: 80, Height: 240},
			{X: 600, Y: 480, Width: 80, Height: 240},
			{X: 280, Y: 300, Width: 120, Height: 120},
			{X: 880, Y: 300, Width: 120, Height: 120},
		},
		FlagBases: map[Team]physics.Vec2{
			TeamRed:  {X: 90, Y: 360},
			TeamBlue: {X: 1190, Y: 360},
		},
		SpawnZones: map[Team]Circle{
			TeamRed:  {Center: physics.Vec2{X: 160, Y: 360}, Radius: 70},
			TeamBlue: {Center: physics.Vec2{X: 1120, Y: 360}, Radius: 70},
		},
		GridSize:           40,
		RecommendedPlayers: 6,
	},
	"gauntlet": {
		ID:     "gauntlet",
		Name:   "Gauntlet",
		Width:  1600,
		Height: 600,
		Walls: []physics.Rect{
			{X: 380, Y: 140, Width: 60, Height: 320},
			{X: 1160, Y: 140, Width: 60, Height: 320},
			{X: 740, Y: 0, Width: 120, Height: 180},
			{X: 740, Y: 420, Width: 120, Height: 180},
		},
		FlagBases: map[Team]physics.Vec2{
			TeamRed:  {X: 100, Y: 300},
			TeamBlue: {X: 1500, Y: 300},
		},
		SpawnZones: map[Team]Circle{
			TeamRed:  {Center: physics.Vec2{X: 190, Y: 300}, Radius: 80},
			TeamBlue: {Center: physics.Vec2{X: 1410, Y: 300}, Radius: 80},
		},
		GridSize:           40,
		RecommendedPlayers: 8,
	},
}

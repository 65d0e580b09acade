package game

import (
	"strings"
	"time"
	"unicode/utf8"
)

// StartGame moves lobby → playing. Host only, and a majority of the non-host
// participants must be ready (trivially satisfied when the host is alone).
// Starting resets scores, flags and projectiles, respawns everyone, and
// stamps every player's liveness clock to the transition instant so a player
// who idled through the lobby is not dropped on the first playing tick.
func (m *Match) StartGame(callerID string, now time.Time) bool {
	if m.Phase != PhaseLobby || callerID != m.HostID {
		return false
	}
	if !m.majorityReady() {
		return false
	}

	m.Scores = map[Team]int{TeamRed: 0, TeamBlue: 0}
	m.Projectiles = nil
	m.resetFlags()
	m.Winner = ""
	m.StartedAt = now

	for _, p := range m.Players {
		p.Carrying = ""
		p.Stunned = false
		p.StunnedUntil = time.Time{}
		p.LastInputSeq = 0
		p.LastSeen = now
		m.RespawnPlayer(p)
	}

	m.Phase = PhasePlaying
	return true
}

func (m *Match) majorityReady() bool {
	others, ready := 0, 0
	for id := range m.Players {
		if id == m.HostID {
			continue
		}
		others++
		if m.Ready[id] {
			ready++
		}
	}
	if others == 0 {
		return true
	}
	return ready*2 > others
}

// ResetGame moves finished → lobby. Host only. Ready flags and scores clear;
// flags and projectiles reset so the lobby renders a clean map.
func (m *Match) ResetGame(callerID string) bool {
	if m.Phase != PhaseFinished || callerID != m.HostID {
		return false
	}

	m.Phase = PhaseLobby
	m.Winner = ""
	m.Scores = map[Team]int{TeamRed: 0, TeamBlue: 0}
	m.Ready = make(map[string]bool)
	m.Projectiles = nil
	m.resetFlags()
	for _, p := range m.Players {
		p.Carrying = ""
		p.Stunned = false
		m.RespawnPlayer(p)
	}
	return true
}

// SetReady records a lobby ready flag. Idempotent.
func (m *Match) SetReady(id string, ready bool) {
	if m.Phase != PhaseLobby {
		return
	}
	if _, ok := m.Players[id]; !ok {
		return
	}
	m.Ready[id] = ready
}

// SetNickname trims and caps a requested nickname. The cap counts runes so
// truncation never splits a multi-byte character into invalid UTF-8.
func (m *Match) SetNickname(id, nickname string) {
	p, ok := m.Players[id]
	if !ok {
		return
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return
	}
	if utf8.RuneCountInString(nickname) > NicknameMaxLen {
		nickname = string([]rune(nickname)[:NicknameMaxLen])
	}
	p.Nickname = nickname
}

// UpdateConfig replaces the match configuration. Host only, lobby only.
func (m *Match) UpdateConfig(callerID string, cfg Config) bool {
	if m.Phase != PhaseLobby || callerID != m.HostID {
		return false
	}
	cfg.MapID = m.Config.MapID // map changes go through SelectMap
	m.Config = cfg.normalized()
	return true
}

// SelectMap swaps the active map. Host only, lobby only. Flags, projectiles
// and spawns all reset onto the new geometry.
func (m *Match) SelectMap(callerID, mapID string) bool {
	if m.Phase != PhaseLobby || callerID != m.HostID {
		return false
	}
	def, ok := Maps[mapID]
	if !ok {
		return false
	}

	m.Map = def
	m.Config.MapID = mapID
	m.Projectiles = nil
	m.resetFlags()
	for _, p := range m.Players {
		m.RespawnPlayer(p)
	}
	return true
}

package room

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"flag-rush/internal/metrics"
)

// Info is one row of the advisory room list.
type Info struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Manager holds rooms by code. The map itself is the only shared state and
// sits behind a mutex; everything inside a room belongs to that room's actor.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	log   zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// GetOrCreate returns the room for code, spinning up its actor on first use.
// Emptied rooms stay registered and dormant; a later join revives their tick
// loop without recreating them.
func (m *Manager) GetOrCreate(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[code]; ok {
		return r
	}
	r := New(code, m.log)
	m.rooms[code] = r
	metrics.RoomOpened()
	go r.Run()
	return r
}

// Create generates a fresh unique room code and starts its room.
func (m *Manager) Create() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		r := New(code, m.log)
		m.rooms[code] = r
		metrics.RoomOpened()
		go r.Run()
		return code
	}
}

// List reports active rooms for the lobby browser.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, Info{Code: code, Players: r.Participants()})
	}
	return out
}

// Shutdown stops every room actor. Process exit only; match state is not
// persisted anywhere.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, r := range m.rooms {
		r.Stop()
		metrics.RoomClosed()
		delete(m.rooms, code)
	}
}

// Room codes skip easily-confused characters.
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}

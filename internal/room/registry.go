package room

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/quizdash/quizdash/internal/models"
)

// Room codes avoid 0/O/1/I so players can read them off a shared screen.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 6
	maxCodeAttempts = 5
)

// Registry is the process-wide room table. It is the only state shared
// across connections; everything inside a room is serialized by the room's
// own lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	// newCode is swappable in tests to force collisions.
	newCode func() string
}

// NewRegistry returns an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		newCode: randomCode,
	}
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rand.IntN(len(codeAlphabet))])
	}
	return b.String()
}

// Create allocates a fresh room under a collision-free code. Codes are
// regenerated on collision; after maxCodeAttempts collisions in a row the
// create fails with ErrCodeExhausted.
func (reg *Registry) Create(quiz models.Quiz, hostIdentity, hostConnID string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := reg.newCode()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		r := newRoom(code, quiz, hostIdentity, hostConnID)
		reg.rooms[code] = r
		return r, nil
	}
	return nil, ErrCodeExhausted
}

// Get looks up a room by code.
func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Delete removes a room from the registry. Deleting an unknown code is a
// no-op.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// HostedBy returns the rooms whose host connection is connID.
func (reg *Registry) HostedBy(connID string) []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var hosted []*Room
	for _, r := range reg.rooms {
		if r.IsHost(connID) {
			hosted = append(hosted, r)
		}
	}
	return hosted
}

// Containing returns the rooms in which connID is a tracked player.
func (reg *Registry) Containing(connID string) []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var joined []*Room
	for _, r := range reg.rooms {
		if r.HasPlayer(connID) {
			joined = append(joined, r)
		}
	}
	return joined
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

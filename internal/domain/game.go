package domain

import "sync"

// GameRegistry tracks known game names in a thread-safe manner.
// Games are implicitly registered when an item is minted for them.
type GameRegistry struct {
	mu    sync.RWMutex
	games map[string]bool
}

// NewGameRegistry creates an empty GameRegistry.
func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		games: make(map[string]bool),
	}
}

// Register adds a game to the registry. Safe for concurrent use.
func (r *GameRegistry) Register(game string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game] = true
}

// Exists returns true if the game has been registered. Safe for concurrent use.
func (r *GameRegistry) Exists(game string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.games[game]
}

// All returns the registered game names in no particular order.
func (r *GameRegistry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	games := make([]string, 0, len(r.games))
	for g := range r.games {
		games = append(games, g)
	}
	return games
}

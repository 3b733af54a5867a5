package web

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/store"
	"github.com/rs/zerolog"
)

// ErrGameNotFound is returned for ids the manager has never seen.
var ErrGameNotFound = errors.New("game not found")

type managedGame struct {
	mu   sync.Mutex
	game *chess.Game
}

// GameManager owns the games hosted by the relay. Each game has its own lock
// so moves in different games never wait on each other. When a store is set,
// every change is written through and unknown ids are loaded lazily.
type GameManager struct {
	mu     sync.RWMutex
	games  map[string]*managedGame
	store  *store.Store
	logger zerolog.Logger
}

type ManagerOption func(*GameManager)

// WithStore persists games to s.
func WithStore(s *store.Store) ManagerOption {
	return func(m *GameManager) {
		m.store = s
	}
}

// WithManagerLogger sets a custom logger
func WithManagerLogger(logger zerolog.Logger) ManagerOption {
	return func(m *GameManager) {
		m.logger = logger
	}
}

func NewGameManager(opts ...ManagerOption) *GameManager {
	m := &GameManager{
		games:  make(map[string]*managedGame),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers game under a fresh id.
func (m *GameManager) Create(game *chess.Game) (string, error) {
	id := uuid.NewString()

	if err := m.persist(id, game); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.games[id] = &managedGame{game: game}
	m.mu.Unlock()

	m.logger.Info().Str("gameID", id).Msg("Game created")
	return id, nil
}

// View runs fn with the game locked. fn must not keep the game.
func (m *GameManager) View(id string, fn func(*chess.Game) error) error {
	mg, err := m.lookup(id)
	if err != nil {
		return err
	}

	mg.mu.Lock()
	defer mg.mu.Unlock()
	return fn(mg.game)
}

// Update runs fn on a copy of the game with the game locked. A non-nil game
// returned by fn becomes the game's new state once it is written through to
// the store; nil means fn left the game unchanged. When the write fails the
// game keeps its previous state.
func (m *GameManager) Update(id string, fn func(*chess.Game) (*chess.Game, error)) error {
	mg, err := m.lookup(id)
	if err != nil {
		return err
	}

	mg.mu.Lock()
	defer mg.mu.Unlock()

	next, err := fn(mg.game.Clone())
	if err != nil || next == nil {
		return err
	}
	if err := m.persist(id, next); err != nil {
		return err
	}
	mg.game = next
	return nil
}

// IDs lists every known game, loaded or stored, in ascending order.
func (m *GameManager) IDs() ([]string, error) {
	seen := make(map[string]bool)

	m.mu.RLock()
	for id := range m.games {
		seen[id] = true
	}
	m.mu.RUnlock()

	if m.store != nil {
		stored, err := m.store.ListGames()
		if err != nil {
			return nil, fmt.Errorf("failed to list stored games: %w", err)
		}
		for _, id := range stored {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *GameManager) lookup(id string) (*managedGame, error) {
	m.mu.RLock()
	mg, ok := m.games[id]
	m.mu.RUnlock()
	if ok {
		return mg, nil
	}

	if m.store == nil {
		return nil, ErrGameNotFound
	}

	game, err := m.store.LoadGame(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have loaded it while we read the store.
	if mg, ok := m.games[id]; ok {
		return mg, nil
	}
	mg = &managedGame{game: game}
	m.games[id] = mg

	m.logger.Debug().Str("gameID", id).Msg("Game loaded from store")
	return mg, nil
}

func (m *GameManager) persist(id string, game *chess.Game) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.SaveGame(id, game); err != nil {
		return fmt.Errorf("failed to save game %s: %w", id, err)
	}
	return nil
}

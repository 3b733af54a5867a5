package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/justinabrahms/chesspvp/internal/chess"
)

// ErrNotFound is returned when no game is saved under the requested id.
var ErrNotFound = errors.New("game not found")

const gamePrefix = "game:"

// Record is the persisted form of a game.
type Record struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Turn      int            `json:"turn"`
	Pieces    chess.Snapshot `json:"pieces"`
	LastMove  *chess.Move    `json:"lastMove,omitempty"`
	SavedAt   time.Time      `json:"savedAt"`
}

// NewRecord captures the current state of game under id.
func NewRecord(id string, game *chess.Game) Record {
	return Record{
		ID:        id,
		CreatedAt: game.CreatedAt(),
		Turn:      game.TurnCount(),
		Pieces:    game.Snapshot(),
		LastMove:  game.LastMove(),
	}
}

// Game rebuilds the game the record describes.
func (r Record) Game(opts ...chess.Option) (*chess.Game, error) {
	opts = append([]chess.Option{
		chess.WithCreatedAt(r.CreatedAt),
		chess.WithLastMove(r.LastMove),
	}, opts...)
	return chess.Restore(r.Pieces, r.Turn, opts...)
}

// Store wraps BadgerDB for persistent storage of games
type Store struct {
	db *badger.DB
}

// Open opens or creates a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dir, err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a store that is discarded on Close.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame writes the game under id, replacing any earlier save.
func (s *Store) SaveGame(id string, game *chess.Game) error {
	return s.SaveRecord(NewRecord(id, game))
}

func (s *Store) SaveRecord(rec Record) error {
	if rec.ID == "" {
		return errors.New("game id is required")
	}
	rec.SavedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode game %s: %w", rec.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(rec.ID), data)
	})
}

// LoadRecord reads the raw record saved under id.
func (s *Store) LoadRecord(id string) (*Record, error) {
	var rec Record

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// LoadGame restores the game saved under id. A record that no longer passes
// the engine invariants is reported as an error rather than repaired.
func (s *Store) LoadGame(id string, opts ...chess.Option) (*chess.Game, error) {
	rec, err := s.LoadRecord(id)
	if err != nil {
		return nil, err
	}

	game, err := rec.Game(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game %s: %w", id, err)
	}
	return game, nil
}

// DeleteGame removes the save under id. Deleting a missing game is not an error.
func (s *Store) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(gameKey(id))
	})
}

// ListGames returns the ids of all saved games in ascending order.
func (s *Store) ListGames() ([]string, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(gamePrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, gamePrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}

func gameKey(id string) []byte {
	return []byte(gamePrefix + id)
}

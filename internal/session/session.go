package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/justinabrahms/chesspvp/internal/store"
	"github.com/rs/zerolog"
)

// DefaultSaveKey is the store key of the local save game.
const DefaultSaveKey = "local"

// ReasonNotYourSeat is the Illegal reason for moving the other player's pieces
// in a relayed game.
const ReasonNotYourSeat = "the other player holds this seat"

// Session owns the game a player interacts with. All access to the game goes
// through the session's lock, so the UI, the relay poller and push
// notifications can run concurrently. The lock is never held across a relay
// request.
type Session struct {
	mu      sync.Mutex
	game    *chess.Game
	pending []pushedMove
	online  bool

	// syncMu serializes Sync calls
	syncMu sync.Mutex

	store        *store.Store
	saveKey      string
	syncer       *relay.Syncer
	pollInterval time.Duration
	logger       zerolog.Logger

	kick    chan struct{}
	changes chan struct{}
}

type pushedMove struct {
	move  chess.Move
	turn  int
	mover chess.Color
}

// Option configures a session
type Option func(*Session)

// WithStore saves the game in st under key. An existing save is resumed.
func WithStore(st *store.Store, key string) Option {
	return func(s *Session) {
		s.store = st
		if key != "" {
			s.saveKey = key
		}
	}
}

// WithSyncer relays the game through a relay server
func WithSyncer(syncer *relay.Syncer) Option {
	return func(s *Session) {
		s.syncer = syncer
	}
}

// WithPollInterval sets how often Run polls the relay
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) {
		s.pollInterval = d
	}
}

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New starts a session on the saved game if the store has one, or on a new
// game otherwise.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		saveKey:      DefaultSaveKey,
		pollInterval: 2 * time.Second,
		logger:       zerolog.Nop(),
		kick:         make(chan struct{}, 1),
		changes:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store != nil {
		game, err := s.store.LoadGame(s.saveKey, chess.WithLogger(s.logger))
		switch {
		case err == nil:
			s.logger.Info().Str("key", s.saveKey).Int("turn", game.TurnCount()).Msg("Resumed saved game")
			s.game = game
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to resume saved game: %w", err)
		}
	}
	if s.game == nil {
		s.game = chess.NewGame(chess.WithLogger(s.logger))
	}

	return s, nil
}

// View is a copy of everything needed to draw the game.
type View struct {
	Turn        int
	ActiveColor chess.Color
	State       chess.GameState
	InCheck     bool
	LastMove    *chess.Move
	Pieces      chess.Snapshot
	Material    chess.MaterialCount

	// Relay status; Pending counts local moves not yet accepted by the relay.
	Relayed bool
	Online  bool
	Pending int
}

// PieceOn returns the piece standing on sq.
func (v View) PieceOn(sq chess.Square) (chess.PieceState, bool) {
	label := sq.String()
	for _, p := range v.Pieces {
		if p.Square == label {
			return p, true
		}
	}
	return chess.PieceState{}, false
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.game.Snapshot()
	return View{
		Turn:        s.game.TurnCount(),
		ActiveColor: s.game.ActiveColor(),
		State:       s.game.State(),
		InCheck:     s.game.InCheck(s.game.ActiveColor()),
		LastMove:    s.game.LastMove(),
		Pieces:      snap.Live(),
		Material:    snap.Material(),
		Relayed:     s.syncer != nil,
		Online:      s.online,
		Pending:     len(s.pending),
	}
}

func (s *Session) LegalDestinations(from string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.LegalDestinations(from)
}

// CanMove reports whether the player may move color's pieces. A relayed
// session only moves for the seats its syncer holds.
func (s *Session) CanMove(color chess.Color) bool {
	return s.syncer == nil || s.syncer.CanMove(color)
}

// Move plays from→to locally. Accepted moves are saved and queued for the
// relay; Run delivers them.
func (s *Session) Move(from, to string) (*chess.MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := s.game.TurnCount()
	mover := s.game.ActiveColor()
	if !s.CanMove(mover) {
		return s.notYourSeat(from, to)
	}
	result, err := s.game.ApplyMove(from, to)
	if err != nil || !result.Accepted() {
		return result, err
	}

	if s.syncer != nil {
		s.pending = append(s.pending, pushedMove{
			move:  chess.Move{From: result.From, To: result.To},
			turn:  turn,
			mover: mover,
		})
		s.poke()
	}
	if err := s.saveLocked(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save game")
	}
	return result, nil
}

func (s *Session) notYourSeat(from, to string) (*chess.MoveResult, error) {
	fromSq, err := chess.ParseSquare(from)
	if err != nil {
		return nil, err
	}
	toSq, err := chess.ParseSquare(to)
	if err != nil {
		return nil, err
	}
	return &chess.MoveResult{
		Outcome: chess.Illegal,
		From:    fromSq.String(),
		To:      toSq.String(),
		State:   s.game.State(),
		Turn:    s.game.TurnCount(),
		Reason:  ReasonNotYourSeat,
	}, nil
}

// Reset starts a new game, on the relay as well when there is one.
func (s *Session) Reset(ctx context.Context) error {
	var game *chess.Game
	if s.syncer != nil {
		var err error
		if game, err = s.syncer.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset relayed game: %w", err)
		}
	} else {
		game = chess.NewGame(chess.WithLogger(s.logger))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.game = game
	s.pending = nil
	s.logger.Info().Msg("Started a new game")
	return s.saveLocked()
}

// Save writes the game to the store, if there is one.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.SaveGame(s.saveKey, s.game)
}

// Changes signals after the game was changed by the relay rather than by a
// local call.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Notify asks Run to sync now. It is safe to call from a websocket handler.
func (s *Session) Notify() {
	s.poke()
}

func (s *Session) poke() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Session) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Run keeps the session in step with the relay until ctx is done. Without a
// syncer it returns immediately.
func (s *Session) Run(ctx context.Context) {
	if s.syncer == nil {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn().Err(err).Msg("Relay sync failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}
	}
}

// Sync pushes queued local moves and then pulls the relay's game. Requests
// run without the game lock; a pulled game is only swapped in when no local
// move or reset happened meanwhile.
func (s *Session) Sync(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	err := s.push(ctx)
	if err == nil {
		err = s.pull(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	online := err == nil
	if online != s.online {
		s.online = online
		s.changed()
	}
	return err
}

// push delivers queued moves in order. A move the relay refuses means the
// local game diverged, so it is replaced with the relay's.
func (s *Session) push(ctx context.Context) error {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return nil
		}
		next := s.pending[0]
		s.mu.Unlock()

		err := s.syncer.Push(ctx, next.move, next.turn, next.mover)
		if errors.Is(err, relay.ErrMoveRejected) {
			s.logger.Warn().Err(err).
				Str("from", next.move.From).
				Str("to", next.move.To).
				Msg("Relay refused local move, restoring its game")
			game, err := s.syncer.Resync(ctx)
			if err != nil {
				return err
			}

			s.mu.Lock()
			s.pending = nil
			s.replaceLocked(game)
			s.mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}

		s.mu.Lock()
		// Reset may have dropped the queue while the request was out
		if len(s.pending) > 0 && s.pending[0] == next {
			s.pending = s.pending[1:]
		}
		s.mu.Unlock()
	}
}

func (s *Session) pull(ctx context.Context) error {
	s.mu.Lock()
	base := s.game
	baseTurn := base.TurnCount()
	local := base.Clone()
	s.mu.Unlock()

	game, result, err := s.syncer.Pull(ctx, local)
	if err != nil {
		return err
	}
	if result == relay.SyncUnchanged {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game != base || s.game.TurnCount() != baseTurn {
		s.logger.Debug().Str("result", string(result)).Msg("Game changed during pull, syncing again")
		s.poke()
		return nil
	}

	if result == relay.SyncApplied {
		s.logger.Debug().Int("turn", game.TurnCount()).Msg("Applied relayed move")
	} else {
		s.logger.Info().Str("result", string(result)).Int("turn", game.TurnCount()).Msg("Game replaced from relay")
	}
	s.replaceLocked(game)
	return nil
}

func (s *Session) replaceLocked(game *chess.Game) {
	s.game = game
	s.changed()
	if err := s.saveLocked(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save game")
	}
}

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/rs/zerolog"
)

// ErrMoveRejected is returned by Push when the relay refuses a move the local
// game already accepted. The local game has diverged and should be replaced
// with Resync.
var ErrMoveRejected = errors.New("relay rejected move")

// SyncResult says what Pull did to the local game.
type SyncResult string

const (
	SyncUnchanged SyncResult = "unchanged"
	SyncApplied   SyncResult = "applied"
	SyncRestored  SyncResult = "restored"
	SyncAdopted   SyncResult = "adopted"
)

// Syncer keeps a local game in step with one game on a relay.
type Syncer struct {
	client   *Client
	gameID   string
	tokens   map[chess.Color]string
	gameOpts []chess.Option
	logger   zerolog.Logger
}

// SyncerOption configures the syncer
type SyncerOption func(*Syncer)

// WithSeatToken sets the token used when pushing color's moves
func WithSeatToken(color chess.Color, token string) SyncerOption {
	return func(s *Syncer) {
		if token != "" {
			s.tokens[color] = token
		}
	}
}

// WithGameOptions are applied to every game rebuilt from a relay snapshot
func WithGameOptions(opts ...chess.Option) SyncerOption {
	return func(s *Syncer) {
		s.gameOpts = append(s.gameOpts, opts...)
	}
}

// WithSyncLogger sets a custom logger
func WithSyncLogger(logger zerolog.Logger) SyncerOption {
	return func(s *Syncer) {
		s.logger = logger
	}
}

func NewSyncer(client *Client, gameID string, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		client: client,
		gameID: gameID,
		tokens: make(map[chess.Color]string),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) GameID() string {
	return s.gameID
}

// CanMove reports whether Push can relay color's moves. A syncer without any
// seat token talks to a relay that does not enforce seats and moves for both.
func (s *Syncer) CanMove(color chess.Color) bool {
	return len(s.tokens) == 0 || s.tokens[color] != ""
}

// Pull brings local up to date with the relay. The returned game replaces
// local: it is local itself when the relayed move could be replayed, or a
// game rebuilt from the relay's snapshot otherwise. A local game that is
// ahead of the relay is left alone.
func (s *Syncer) Pull(ctx context.Context, local *chess.Game) (*chess.Game, SyncResult, error) {
	remote, err := s.client.GetGame(ctx, s.gameID)
	if err != nil {
		return local, SyncUnchanged, err
	}

	logger := s.logger.With().
		Int("localTurn", local.TurnCount()).
		Int("remoteTurn", remote.Turn).
		Logger()

	if !remote.CreatedAt.Equal(local.CreatedAt()) {
		logger.Info().Time("createdAt", remote.CreatedAt).Msg("Relay has a different game, adopting it")
		game, err := s.Resync(ctx)
		if err != nil {
			return local, SyncUnchanged, err
		}
		return game, SyncAdopted, nil
	}

	switch {
	case remote.Turn <= local.TurnCount():
		return local, SyncUnchanged, nil

	case remote.Turn == local.TurnCount()+1 && remote.From != "":
		result, err := local.ApplyMove(remote.From, remote.To)
		if err == nil && result.Accepted() {
			logger.Debug().Str("from", remote.From).Str("to", remote.To).Msg("Replayed relayed move")
			return local, SyncApplied, nil
		}
		if err == nil {
			err = errors.New(result.Reason)
		}
		logger.Warn().Err(err).
			Str("from", remote.From).
			Str("to", remote.To).
			Msg("Relayed move does not apply locally, restoring snapshot")
	}

	game, err := s.Resync(ctx)
	if err != nil {
		return local, SyncUnchanged, err
	}
	return game, SyncRestored, nil
}

// Resync rebuilds the game from the relay's snapshot.
func (s *Syncer) Resync(ctx context.Context) (*chess.Game, error) {
	snap, err := s.client.GetSnapshot(ctx, s.gameID)
	if err != nil {
		return nil, err
	}
	game, err := snap.Game(s.gameOpts...)
	if err != nil {
		return nil, fmt.Errorf("relay snapshot of %s is unusable: %w", s.gameID, err)
	}
	return game, nil
}

// Push relays a move the local game has just accepted. turn is the turn count
// the move was made at and mover the side that made it. A stale turn or a
// seat the relay will not accept are rejections like an illegal move.
func (s *Syncer) Push(ctx context.Context, move chess.Move, turn int, mover chess.Color) error {
	result, err := s.client.MakeMove(ctx, s.gameID, s.tokens[mover], move.From, move.To, turn)
	if err != nil {
		if errors.Is(err, ErrStaleTurn) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized) {
			return fmt.Errorf("%w: %w", ErrMoveRejected, err)
		}
		return err
	}
	if !result.Accepted() {
		return fmt.Errorf("%w: %s", ErrMoveRejected, result.Reason)
	}
	s.logger.Debug().
		Str("from", move.From).
		Str("to", move.To).
		Int("turn", result.Turn).
		Msg("Move relayed")
	return nil
}

// Reset asks the relay to start a new game and returns it.
func (s *Syncer) Reset(ctx context.Context) (*chess.Game, error) {
	token := s.tokens[chess.White]
	if token == "" {
		token = s.tokens[chess.Black]
	}
	if _, err := s.client.Reset(ctx, s.gameID, token); err != nil {
		return nil, err
	}
	return s.Resync(ctx)
}

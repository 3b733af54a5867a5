package chess

import (
	"time"

	"github.com/rs/zerolog"
)

// Game is the controller for one game. It owns the registry and the turn
// counter. A Game is not safe for concurrent use; callers serialize access.
type Game struct {
	reg       Registry
	turn      int
	state     GameState
	createdAt time.Time
	lastMove  *Move
	logger    zerolog.Logger
}

// Option configures a game
type Option func(*Game)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

// WithCreatedAt stamps the game with a creation time. Collaborators that relay
// moves between two instances use it to tell games apart.
func WithCreatedAt(t time.Time) Option {
	return func(g *Game) {
		g.createdAt = t.UTC()
	}
}

// WithLastMove records the move that led to a restored position.
func WithLastMove(m *Move) Option {
	return func(g *Game) {
		if m != nil {
			move := *m
			g.lastMove = &move
		}
	}
}

// NewGame returns a game in the standard starting position with White to move.
func NewGame(opts ...Option) *Game {
	return newGame(NewRegistry(), 0, opts)
}

func newGame(reg Registry, turn int, opts []Option) *Game {
	g := &Game{
		reg:       reg,
		turn:      turn,
		state:     StateUnfinished,
		createdAt: time.Now().UTC(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	refresh(&g.reg)
	g.state = computeState(&g.reg, g.ActiveColor())
	return g
}

// Clone returns an independent copy of the game.
func (g *Game) Clone() *Game {
	c := *g
	c.reg = g.reg.clone()
	if g.lastMove != nil {
		move := *g.lastMove
		c.lastMove = &move
	}
	return &c
}

func (g *Game) ActiveColor() Color {
	if g.turn%2 == 0 {
		return White
	}
	return Black
}

func (g *Game) State() GameState {
	return g.state
}

// TurnCount is the number of plies committed so far.
func (g *Game) TurnCount() int {
	return g.turn
}

func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}

// LastMove returns the most recently committed move, or nil before the first.
func (g *Game) LastMove() *Move {
	if g.lastMove == nil {
		return nil
	}
	m := *g.lastMove
	return &m
}

func (g *Game) InCheck(color Color) bool {
	king := g.reg.KingOf(color)
	return king != nil && king.InCheck
}

// PieceAt returns a copy of the piece on sq.
func (g *Game) PieceAt(sq Square) (Piece, bool) {
	p := g.reg.PieceAt(sq)
	if p == nil {
		return Piece{}, false
	}
	return *p, true
}

// PseudoLegalMoves returns the cached pseudo-legal moves of the piece on sq.
func (g *Game) PseudoLegalMoves(sq Square) SquareSet {
	p := g.reg.PieceAt(sq)
	if p == nil {
		return 0
	}
	return p.LegalMoves
}

// LegalMoves returns the pseudo-legal moves of the piece on sq that do not
// leave its own king attacked. Only the side to move has legal moves: a piece
// of the other side always gets the empty set, even where PseudoLegalMoves
// reports targets for it.
func (g *Game) LegalMoves(sq Square) SquareSet {
	var legal SquareSet
	if g.state.Over() {
		return legal
	}
	p := g.reg.PieceAt(sq)
	if p == nil || p.Color != g.ActiveColor() {
		return legal
	}
	for _, dest := range p.LegalMoves.Squares() {
		next, _ := speculate(&g.reg, sq, dest)
		if !KingAttacked(&next, p.Color) {
			legal = legal.Add(dest)
		}
	}
	return legal
}

// LegalDestinations is LegalMoves keyed by square label.
func (g *Game) LegalDestinations(from string) ([]string, error) {
	sq, err := ParseSquare(from)
	if err != nil {
		return nil, err
	}
	return g.LegalMoves(sq).Labels(), nil
}

// ApplyMove plays from→to for the side to move. A well-formed move that breaks
// the rules comes back with Outcome Illegal and leaves the game untouched; the
// error is reserved for malformed square labels.
func (g *Game) ApplyMove(from, to string) (*MoveResult, error) {
	fromSq, err := ParseSquare(from)
	if err != nil {
		return nil, err
	}
	toSq, err := ParseSquare(to)
	if err != nil {
		return nil, err
	}

	result := &MoveResult{
		From:  fromSq.String(),
		To:    toSq.String(),
		State: g.state,
		Turn:  g.turn,
	}

	next, captured, reason := g.try(fromSq, toSq)
	if reason != "" {
		result.Outcome = Illegal
		result.Reason = reason
		g.logger.Debug().
			Str("from", result.From).
			Str("to", result.To).
			Str("reason", reason).
			Msg("Rejected move")
		return result, nil
	}

	mover := g.ActiveColor()
	g.reg = next
	g.turn++
	g.lastMove = &Move{From: result.From, To: result.To}
	g.state = computeState(&g.reg, g.ActiveColor())

	result.Outcome = Accepted
	result.Captured = captured
	result.State = g.state
	result.Turn = g.turn

	g.logger.Debug().
		Str("from", result.From).
		Str("to", result.To).
		Int("turn", g.turn).
		Str("state", string(g.state)).
		Msg("Move committed")
	if captured != nil {
		g.logger.Info().
			Str("color", mover.Opponent().String()).
			Str("piece", captured.String()).
			Str("square", result.To).
			Msg("Piece captured")
	}

	return result, nil
}

// try validates a move and plays it on a copy of the registry. A non-empty
// reason means the move is illegal and the copy must be discarded.
func (g *Game) try(from, to Square) (Registry, *PieceKind, string) {
	if g.state.Over() {
		return Registry{}, nil, ReasonGameOver
	}

	mover := g.reg.PieceAt(from)
	if mover == nil {
		return Registry{}, nil, ReasonEmptySquare
	}
	if mover.Color != g.ActiveColor() {
		return Registry{}, nil, ReasonNotYourTurn
	}
	if from == to {
		return Registry{}, nil, ReasonNullMove
	}
	if color, occupied := g.reg.ColorAt(to); occupied && color == mover.Color {
		return Registry{}, nil, ReasonOwnPiece
	}
	if !PseudoLegalMoves(&g.reg, from).Has(to) {
		return Registry{}, nil, ReasonUnreachable
	}

	next, captured := speculate(&g.reg, from, to)
	refresh(&next)
	if KingAttacked(&next, mover.Color) {
		return Registry{}, nil, ReasonLeavesInCheck
	}
	return next, captured, ""
}

// speculate returns a copy of reg with from→to played. Caches on the copy are
// stale until refresh is called.
func speculate(reg *Registry, from, to Square) (Registry, *PieceKind) {
	next := reg.clone()
	mover := next.PieceAt(from)

	var captured *PieceKind
	if victim := next.PieceAt(to); victim != nil {
		kind := victim.Kind
		captured = &kind
		next.markCaptured(victim.Slot)
	}

	next.markMoved(mover.Slot)
	next.setPosition(mover.Slot, to)
	return next, captured
}

func hasLegalMove(reg *Registry, color Color) bool {
	for _, p := range reg.PiecesOf(color) {
		for _, dest := range p.LegalMoves.Squares() {
			next, _ := speculate(reg, p.Square, dest)
			if !KingAttacked(&next, color) {
				return true
			}
		}
	}
	return false
}

// computeState derives the game state for the side to move from scratch.
func computeState(reg *Registry, toMove Color) GameState {
	inCheck := KingAttacked(reg, toMove)
	if hasLegalMove(reg, toMove) {
		if inCheck {
			return StateCheck
		}
		return StateUnfinished
	}
	if inCheck {
		return StateCheckmate
	}
	return StateStalemate
}

package chess

import "fmt"

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	color, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = color
	return nil
}

func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w", "W":
		return White, nil
	case "black", "b", "B":
		return Black, nil
	default:
		return White, fmt.Errorf("invalid color %q", s)
	}
}

type PieceKind uint8

const (
	Pawn PieceKind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"pawn", "knight", "bishop", "rook", "queen", "king"}

// Knight is drawn as H since K belongs to the king.
var kindGlyphs = [...]rune{'P', 'H', 'B', 'R', 'Q', 'K'}

func (k PieceKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("PieceKind(%d)", k)
}

// Glyph is the single character used for the piece on text boards.
func (k PieceKind) Glyph() rune {
	if int(k) < len(kindGlyphs) {
		return kindGlyphs[k]
	}
	return '?'
}

func (k PieceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PieceKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = PieceKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid piece kind %q", text)
}

// ImageKey names the sprite for a piece, e.g. "white_pawn".
func ImageKey(kind PieceKind, color Color) string {
	return color.String() + "_" + kind.String()
}

type GameState string

const (
	StateUnfinished GameState = "unfinished"
	StateCheck      GameState = "check"
	StateCheckmate  GameState = "checkmate"
	StateStalemate  GameState = "stalemate"
)

// Over reports whether the state is terminal.
func (s GameState) Over() bool {
	return s == StateCheckmate || s == StateStalemate
}

type MoveOutcome string

const (
	Accepted MoveOutcome = "accepted"
	Illegal  MoveOutcome = "illegal"
)

// Reasons attached to an Illegal outcome.
const (
	ReasonGameOver      = "game is over"
	ReasonEmptySquare   = "no piece on origin square"
	ReasonNotYourTurn   = "piece does not belong to the side to move"
	ReasonNullMove      = "origin and destination are the same square"
	ReasonUnreachable   = "destination is not reachable by this piece"
	ReasonOwnPiece      = "destination is occupied by a piece of the same color"
	ReasonLeavesInCheck = "move leaves own king in check"
)

// Move is a committed move as relayed between collaborators.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveResult struct {
	Outcome  MoveOutcome `json:"outcome"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Captured *PieceKind  `json:"captured,omitempty"`
	State    GameState   `json:"state"`
	Turn     int         `json:"turn"`
	Reason   string      `json:"reason,omitempty"`
}

func (r *MoveResult) Accepted() bool {
	return r.Outcome == Accepted
}

// MaterialCount represents the material count for both sides
type MaterialCount struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// StandardPieceValues maps piece kinds to their standard values
var StandardPieceValues = map[PieceKind]int{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0, // King has no material value
}

// Balance is White's material minus Black's.
func (m MaterialCount) Balance() int {
	return m.White - m.Black
}

package chess

import (
	"fmt"
	"math/bits"
	"strings"
)

// Square is one of the 64 board cells, indexed rank*8+file with a1 = 0 and h8 = 63.
type Square int8

// NoSquare marks the position of a captured piece.
const NoSquare Square = -1

func newSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// NewSquare returns the square at zero-based file and rank, or NoSquare when
// either lies off the board.
func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return newSquare(file, rank)
}

// ParseSquare converts a label such as "e4" into a Square.
func ParseSquare(label string) (Square, error) {
	if len(label) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, label)
	}

	file := int(label[0]) - 'a'
	rank := int(label[1]) - '1'

	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, label)
	}

	return newSquare(file, rank), nil
}

// MustParseSquare is ParseSquare for labels known at compile time.
func MustParseSquare(label string) Square {
	sq, err := ParseSquare(label)
	if err != nil {
		panic(err)
	}
	return sq
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

// File returns the zero-based file, 0 for a through 7 for h.
func (s Square) File() int {
	return int(s) % 8
}

// Rank returns the zero-based rank, 0 for rank 1 through 7 for rank 8.
func (s Square) Rank() int {
	return int(s) / 8
}

// Offset steps from s by the given file and rank deltas. The second result is
// false when the destination falls off the board.
func (s Square) Offset(fileDelta, rankDelta int) (Square, bool) {
	if !s.Valid() {
		return NoSquare, false
	}

	file := s.File() + fileDelta
	rank := s.Rank() + rankDelta

	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, false
	}

	return newSquare(file, rank), true
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// SquareSet is a set of squares backed by a 64-bit membership mask.
type SquareSet uint64

func (ss SquareSet) Add(sq Square) SquareSet {
	if !sq.Valid() {
		return ss
	}
	return ss | 1<<uint(sq)
}

func (ss SquareSet) Has(sq Square) bool {
	if !sq.Valid() {
		return false
	}
	return ss&(1<<uint(sq)) != 0
}

func (ss SquareSet) Union(other SquareSet) SquareSet {
	return ss | other
}

func (ss SquareSet) Len() int {
	return bits.OnesCount64(uint64(ss))
}

func (ss SquareSet) Empty() bool {
	return ss == 0
}

// Squares lists the members in ascending order (a1, b1, ... h8).
func (ss SquareSet) Squares() []Square {
	squares := make([]Square, 0, ss.Len())
	for rest := uint64(ss); rest != 0; rest &= rest - 1 {
		squares = append(squares, Square(bits.TrailingZeros64(rest)))
	}
	return squares
}

// Labels lists the members as algebraic labels in ascending square order.
func (ss SquareSet) Labels() []string {
	squares := ss.Squares()
	labels := make([]string, len(squares))
	for i, sq := range squares {
		labels[i] = sq.String()
	}
	return labels
}

func (ss SquareSet) String() string {
	return "{" + strings.Join(ss.Labels(), " ") + "}"
}

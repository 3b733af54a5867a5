package chess

// Piece is one of the pieces in a game. A piece keeps its slot in the registry
// for the whole game; capturing it only clears its square.
type Piece struct {
	Kind     PieceKind
	Color    Color
	Slot     int
	Square   Square
	Captured bool
	HasMoved bool

	// Recomputed after every change of position.
	LegalMoves SquareSet
	Targets    SquareSet

	// Only meaningful for kings.
	InCheck bool
}

// Position returns the piece's square, or false once it has been captured.
func (p *Piece) Position() (Square, bool) {
	if p.Captured {
		return NoSquare, false
	}
	return p.Square, true
}

func (p *Piece) ImageKey() string {
	return ImageKey(p.Kind, p.Color)
}

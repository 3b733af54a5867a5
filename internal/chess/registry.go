package chess

// Registry holds every piece of a game. Square occupancy is always derived by
// scanning this list.
type Registry struct {
	pieces []Piece
}

var backRank = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewRegistry returns the 32 pieces in the standard starting layout, white
// first, pawns before officers.
func NewRegistry() Registry {
	pieces := make([]Piece, 0, 32)
	for _, color := range []Color{White, Black} {
		pawnRank, homeRank := 1, 0
		if color == Black {
			pawnRank, homeRank = 6, 7
		}
		for file := 0; file < 8; file++ {
			pieces = append(pieces, Piece{Kind: Pawn, Color: color, Square: newSquare(file, pawnRank)})
		}
		for file, kind := range backRank {
			pieces = append(pieces, Piece{Kind: kind, Color: color, Square: newSquare(file, homeRank)})
		}
	}
	for i := range pieces {
		pieces[i].Slot = i
	}
	return Registry{pieces: pieces}
}

func (r *Registry) clone() Registry {
	pieces := make([]Piece, len(r.pieces))
	copy(pieces, r.pieces)
	return Registry{pieces: pieces}
}

func (r *Registry) Len() int {
	return len(r.pieces)
}

// Piece returns the piece in the given slot.
func (r *Registry) Piece(slot int) *Piece {
	if slot < 0 || slot >= len(r.pieces) {
		return nil
	}
	return &r.pieces[slot]
}

func (r *Registry) PieceAt(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	for i := range r.pieces {
		if !r.pieces[i].Captured && r.pieces[i].Square == sq {
			return &r.pieces[i]
		}
	}
	return nil
}

func (r *Registry) ColorAt(sq Square) (Color, bool) {
	p := r.PieceAt(sq)
	if p == nil {
		return White, false
	}
	return p.Color, true
}

// PiecesOf returns the live pieces of one color in slot order.
func (r *Registry) PiecesOf(color Color) []*Piece {
	var pieces []*Piece
	for i := range r.pieces {
		if r.pieces[i].Color == color && !r.pieces[i].Captured {
			pieces = append(pieces, &r.pieces[i])
		}
	}
	return pieces
}

func (r *Registry) KingOf(color Color) *Piece {
	for i := range r.pieces {
		if r.pieces[i].Kind == King && r.pieces[i].Color == color {
			return &r.pieces[i]
		}
	}
	return nil
}

func (r *Registry) setPosition(slot int, sq Square) {
	r.pieces[slot].Square = sq
}

func (r *Registry) markCaptured(slot int) {
	r.pieces[slot].Captured = true
	r.pieces[slot].Square = NoSquare
	r.pieces[slot].LegalMoves = 0
	r.pieces[slot].Targets = 0
}

func (r *Registry) markMoved(slot int) {
	r.pieces[slot].HasMoved = true
}

func (r *Registry) setLegalMoves(slot int, moves SquareSet) {
	r.pieces[slot].LegalMoves = moves
}

func (r *Registry) setTargets(slot int, targets SquareSet) {
	r.pieces[slot].Targets = targets
}

func (r *Registry) setCheck(slot int, inCheck bool) {
	r.pieces[slot].InCheck = inCheck
}

// validate checks the invariants a restored position must satisfy.
func (r *Registry) validate() error {
	occupied := make(map[Square]int)
	kings := map[Color]int{}
	perColor := map[Color]int{}

	for i := range r.pieces {
		p := &r.pieces[i]
		if p.Kind > King {
			return invariantf("slot %d has unknown piece kind %d", i, p.Kind)
		}
		if p.Color != White && p.Color != Black {
			return invariantf("slot %d has unknown color %d", i, p.Color)
		}
		perColor[p.Color]++
		if p.Kind == King {
			kings[p.Color]++
			if p.Captured {
				return invariantf("%s king is marked captured", p.Color)
			}
		}
		if p.Captured != (p.Square == NoSquare) {
			return invariantf("slot %d: captured=%t but square=%s", i, p.Captured, p.Square)
		}
		if p.Captured {
			continue
		}
		if !p.Square.Valid() {
			return invariantf("slot %d is off the board", i)
		}
		if other, ok := occupied[p.Square]; ok {
			return invariantf("slots %d and %d both occupy %s", other, i, p.Square)
		}
		occupied[p.Square] = i
	}

	for _, color := range []Color{White, Black} {
		if kings[color] != 1 {
			return invariantf("%s has %d kings", color, kings[color])
		}
		if perColor[color] > 16 {
			return invariantf("%s has %d pieces", color, perColor[color])
		}
	}
	return nil
}

package chess

type offset struct {
	file, rank int
}

var (
	knightOffsets = []offset{
		{-1, 2}, {1, 2}, {2, 1}, {2, -1},
		{1, -2}, {-1, -2}, {-2, 1}, {-2, -1},
	}
	orthogonals = []offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	diagonals   = []offset{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	allAround   = append(append([]offset{}, orthogonals...), diagonals...)
)

// moveRule describes how a kind of piece moves.
type moveRule struct {
	// offsets are either single steps (slides false) or ray directions.
	offsets []offset
	slides  bool
	pawn    bool
}

func rules(kind PieceKind) moveRule {
	switch kind {
	case Pawn:
		return moveRule{pawn: true}
	case Knight:
		return moveRule{offsets: knightOffsets}
	case Bishop:
		return moveRule{offsets: diagonals, slides: true}
	case Rook:
		return moveRule{offsets: orthogonals, slides: true}
	case Queen:
		return moveRule{offsets: allAround, slides: true}
	case King:
		return moveRule{offsets: allAround}
	}
	return moveRule{}
}

func forward(color Color) int {
	if color == Black {
		return -1
	}
	return 1
}

// PseudoLegalMoves returns the destinations of the piece on sq, ignoring
// whether the move would expose its own king. An empty square yields an empty
// set.
func PseudoLegalMoves(reg *Registry, sq Square) SquareSet {
	p := reg.PieceAt(sq)
	if p == nil {
		return 0
	}

	rule := rules(p.Kind)
	switch {
	case rule.pawn:
		return pawnPushes(reg, p).Union(pawnCaptures(reg, p))
	case rule.slides:
		return slide(reg, p, rule.offsets)
	default:
		return step(reg, p, rule.offsets)
	}
}

func pawnPushes(reg *Registry, p *Piece) SquareSet {
	var moves SquareSet
	dir := forward(p.Color)

	one, ok := p.Square.Offset(0, dir)
	if !ok || reg.PieceAt(one) != nil {
		return moves
	}
	moves = moves.Add(one)

	if p.HasMoved {
		return moves
	}
	if two, ok := p.Square.Offset(0, 2*dir); ok && reg.PieceAt(two) == nil {
		moves = moves.Add(two)
	}
	return moves
}

// pawnCaptures returns the forward diagonals holding an enemy piece. Empty
// diagonals are neither moves nor attacks.
func pawnCaptures(reg *Registry, p *Piece) SquareSet {
	var moves SquareSet
	dir := forward(p.Color)
	for _, df := range []int{-1, 1} {
		dest, ok := p.Square.Offset(df, dir)
		if !ok {
			continue
		}
		if color, occupied := reg.ColorAt(dest); occupied && color != p.Color {
			moves = moves.Add(dest)
		}
	}
	return moves
}

func step(reg *Registry, p *Piece, offsets []offset) SquareSet {
	var moves SquareSet
	for _, o := range offsets {
		dest, ok := p.Square.Offset(o.file, o.rank)
		if !ok {
			continue
		}
		if color, occupied := reg.ColorAt(dest); occupied && color == p.Color {
			continue
		}
		moves = moves.Add(dest)
	}
	return moves
}

func slide(reg *Registry, p *Piece, directions []offset) SquareSet {
	var moves SquareSet
	for _, d := range directions {
		cur := p.Square
		for {
			next, ok := cur.Offset(d.file, d.rank)
			if !ok {
				break
			}
			color, occupied := reg.ColorAt(next)
			if occupied && color == p.Color {
				break
			}
			moves = moves.Add(next)
			if occupied {
				break
			}
			cur = next
		}
	}
	return moves
}

package chess

// AttackedSquares is the union of the squares every live piece of color could
// capture on. Pawns only contribute diagonals that hold an enemy piece; their
// pushes never attack.
func AttackedSquares(reg *Registry, color Color) SquareSet {
	var attacked SquareSet
	for _, p := range reg.PiecesOf(color) {
		if p.Kind == Pawn {
			attacked = attacked.Union(pawnCaptures(reg, p))
			continue
		}
		attacked = attacked.Union(PseudoLegalMoves(reg, p.Square))
	}
	return attacked
}

// KingAttacked reports whether color's king stands on a square attacked by the
// other side.
func KingAttacked(reg *Registry, color Color) bool {
	king := reg.KingOf(color)
	if king == nil || king.Captured {
		return false
	}
	return AttackedSquares(reg, color.Opponent()).Has(king.Square)
}

// refresh recomputes the legal moves, attack targets and king check flags of
// every piece from scratch.
func refresh(reg *Registry) {
	for i := range reg.pieces {
		p := &reg.pieces[i]
		if p.Captured {
			reg.setLegalMoves(i, 0)
			reg.setTargets(i, 0)
			continue
		}

		moves := PseudoLegalMoves(reg, p.Square)
		reg.setLegalMoves(i, moves)

		var targets SquareSet
		for _, dest := range moves.Squares() {
			color, occupied := reg.ColorAt(dest)
			if !occupied || color == p.Color {
				continue
			}
			if p.Kind == Pawn && dest.File() == p.Square.File() {
				continue
			}
			targets = targets.Add(dest)
		}
		reg.setTargets(i, targets)
	}

	for _, color := range []Color{White, Black} {
		king := reg.KingOf(color)
		if king == nil {
			continue
		}
		reg.setCheck(king.Slot, KingAttacked(reg, color))
	}
}

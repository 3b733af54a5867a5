package chess

// PieceState is the serializable view of one piece.
type PieceState struct {
	Kind     PieceKind `json:"kind"`
	Color    Color     `json:"color"`
	Square   string    `json:"square,omitempty"`
	Captured bool      `json:"captured"`
	HasMoved bool      `json:"hasMoved"`
}

// Snapshot lists every piece of a game in registry slot order, captured pieces
// included.
type Snapshot []PieceState

// Snapshot returns the positions of all pieces for rendering or persistence.
func (g *Game) Snapshot() Snapshot {
	snap := make(Snapshot, len(g.reg.pieces))
	for i, p := range g.reg.pieces {
		snap[i] = PieceState{
			Kind:     p.Kind,
			Color:    p.Color,
			Captured: p.Captured,
			HasMoved: p.HasMoved,
		}
		if !p.Captured {
			snap[i].Square = p.Square.String()
		}
	}
	return snap
}

// Live returns the pieces still on the board.
func (s Snapshot) Live() Snapshot {
	live := make(Snapshot, 0, len(s))
	for _, p := range s {
		if !p.Captured {
			live = append(live, p)
		}
	}
	return live
}

// Material sums the standard values of the pieces still on the board.
func (s Snapshot) Material() MaterialCount {
	var count MaterialCount
	for _, p := range s.Live() {
		if p.Color == White {
			count.White += StandardPieceValues[p.Kind]
		} else {
			count.Black += StandardPieceValues[p.Kind]
		}
	}
	return count
}

// Restore rebuilds a game from a snapshot and the number of plies already
// played. It refuses positions that break the registry invariants instead of
// repairing them.
func Restore(snap Snapshot, turn int, opts ...Option) (*Game, error) {
	if turn < 0 {
		return nil, invariantf("negative turn count %d", turn)
	}
	if len(snap) == 0 {
		return nil, invariantf("empty snapshot")
	}

	pieces := make([]Piece, len(snap))
	for i, ps := range snap {
		p := Piece{
			Kind:     ps.Kind,
			Color:    ps.Color,
			Slot:     i,
			Square:   NoSquare,
			Captured: ps.Captured,
			HasMoved: ps.HasMoved,
		}
		if ps.Square != "" {
			sq, err := ParseSquare(ps.Square)
			if err != nil {
				return nil, invariantf("slot %d: %v", i, err)
			}
			p.Square = sq
		}
		pieces[i] = p
	}

	reg := Registry{pieces: pieces}
	if err := reg.validate(); err != nil {
		return nil, err
	}

	g := newGame(reg, turn, opts)
	if KingAttacked(&g.reg, g.ActiveColor().Opponent()) {
		return nil, invariantf("%s is in check but %s is to move", g.ActiveColor().Opponent(), g.ActiveColor())
	}
	return g, nil
}

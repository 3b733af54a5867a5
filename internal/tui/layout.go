package tui

import "github.com/justinabrahms/chesspvp/internal/chess"

// Layout places the board on the terminal. Each square is one row high and
// CellWidth columns wide; rank 8 is the top row.
type Layout struct {
	OriginX   int
	OriginY   int
	CellWidth int
}

// DefaultLayout leaves room for rank labels on the left.
var DefaultLayout = Layout{OriginX: 3, OriginY: 1, CellWidth: 3}

// SquareAt maps a screen cell to the board square under it.
func (l Layout) SquareAt(x, y int) (chess.Square, bool) {
	if l.CellWidth <= 0 || x < l.OriginX || y < l.OriginY {
		return chess.NoSquare, false
	}
	file := (x - l.OriginX) / l.CellWidth
	row := y - l.OriginY
	if file > 7 || row > 7 {
		return chess.NoSquare, false
	}
	return chess.NewSquare(file, 7-row), true
}

// CellOf is the top-left screen cell of sq.
func (l Layout) CellOf(sq chess.Square) (int, int) {
	return l.OriginX + sq.File()*l.CellWidth, l.OriginY + 7 - sq.Rank()
}

// Width is the number of columns the board covers, labels included.
func (l Layout) Width() int {
	return l.OriginX + 8*l.CellWidth
}

// Bottom is the first row below the file labels.
func (l Layout) Bottom() int {
	return l.OriginY + 9
}

package chess

import (
	"strings"
	"unicode"
)

// Grid is a rendering aid built from the registry. Row 0 is rank 8. It is
// never consulted for legality.
type Grid [8][8]rune

const emptyCell = '.'

func (g *Game) Grid() Grid {
	var grid Grid
	for row := range grid {
		for col := range grid[row] {
			grid[row][col] = emptyCell
		}
	}
	for i := range g.reg.pieces {
		p := &g.reg.pieces[i]
		if p.Captured {
			continue
		}
		glyph := p.Kind.Glyph()
		if p.Color == Black {
			glyph = unicode.ToLower(glyph)
		}
		grid[7-p.Square.Rank()][p.Square.File()] = glyph
	}
	return grid
}

// String draws the grid with rank labels on the left and file labels below.
func (gr Grid) String() string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		b.WriteByte(byte('8' - row))
		for col := 0; col < 8; col++ {
			b.WriteByte(' ')
			b.WriteRune(gr[row][col])
		}
		b.WriteByte('\n')
	}
	b.WriteString("  a b c d e f g h\n")
	return b.String()
}

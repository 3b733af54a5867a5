package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/session"
)

var (
	lightSquare  = tcell.StyleDefault.Background(tcell.ColorTan)
	darkSquare   = tcell.StyleDefault.Background(tcell.ColorSaddleBrown)
	selectedCell = tcell.StyleDefault.Background(tcell.ColorSteelBlue)
	targetCell   = tcell.StyleDefault.Background(tcell.ColorDarkSeaGreen)
	lastMoveCell = tcell.StyleDefault.Background(tcell.ColorDarkKhaki)
	checkCell    = tcell.StyleDefault.Background(tcell.ColorIndianRed)
	labelStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	textStyle    = tcell.StyleDefault
)

var pieceRunes = map[chess.PieceKind]rune{
	chess.King:   '♚',
	chess.Queen:  '♛',
	chess.Rook:   '♜',
	chess.Bishop: '♝',
	chess.Knight: '♞',
	chess.Pawn:   '♟',
}

// Render draws the board, the status line and message. selected is
// chess.NoSquare when nothing is selected.
func (l Layout) Render(s tcell.Screen, view session.View, selected chess.Square, destinations []string, message string) {
	s.Clear()

	targets := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		targets[d] = true
	}

	for rank := 7; rank >= 0; rank-- {
		_, y := l.CellOf(chess.NewSquare(0, rank))
		drawText(s, l.OriginX-2, y, labelStyle, fmt.Sprint(rank+1))

		for file := 0; file < 8; file++ {
			sq := chess.NewSquare(file, rank)
			style := l.squareStyle(view, sq, selected, targets)

			x, y := l.CellOf(sq)
			for i := 0; i < l.CellWidth; i++ {
				s.SetContent(x+i, y, ' ', nil, style)
			}

			if p, ok := view.PieceOn(sq); ok {
				fg := tcell.ColorWhite
				if p.Color == chess.Black {
					fg = tcell.ColorBlack
				}
				s.SetContent(x+l.CellWidth/2, y, pieceRunes[p.Kind], nil, style.Foreground(fg).Bold(true))
			} else if targets[sq.String()] {
				s.SetContent(x+l.CellWidth/2, y, '·', nil, style.Foreground(tcell.ColorBlack))
			}
		}
	}

	for file := 0; file < 8; file++ {
		x, _ := l.CellOf(chess.NewSquare(file, 0))
		s.SetContent(x+l.CellWidth/2, l.OriginY+8, rune('a'+file), nil, labelStyle)
	}

	y := l.Bottom()
	drawText(s, l.OriginX, y, textStyle, Status(view))
	drawText(s, l.OriginX, y+1, labelStyle, fmt.Sprintf("Material  white %d  black %d", view.Material.White, view.Material.Black))
	if message != "" {
		drawText(s, l.OriginX, y+2, textStyle, message)
	}
	drawText(s, l.OriginX, y+3, labelStyle, "esc: save and quit  c: new game")

	s.Show()
}

func (l Layout) squareStyle(view session.View, sq chess.Square, selected chess.Square, targets map[string]bool) tcell.Style {
	label := sq.String()
	switch {
	case sq == selected:
		return selectedCell
	case targets[label]:
		return targetCell
	}

	if view.InCheck {
		if p, ok := view.PieceOn(sq); ok && p.Kind == chess.King && p.Color == view.ActiveColor {
			return checkCell
		}
	}
	if view.LastMove != nil && (view.LastMove.From == label || view.LastMove.To == label) {
		return lastMoveCell
	}
	if (sq.File()+sq.Rank())%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

// Status is the one-line summary shown under the board.
func Status(view session.View) string {
	var line string
	switch view.State {
	case chess.StateCheckmate:
		line = fmt.Sprintf("Checkmate, %s wins", view.ActiveColor.Opponent())
	case chess.StateStalemate:
		line = "Stalemate"
	case chess.StateCheck:
		line = fmt.Sprintf("%s to move, in check", view.ActiveColor)
	default:
		line = fmt.Sprintf("%s to move", view.ActiveColor)
	}
	line = fmt.Sprintf("Turn %d  %s", view.Turn, line)

	if view.Relayed {
		switch {
		case !view.Online:
			line += "  [relay offline]"
		case view.Pending > 0:
			line += fmt.Sprintf("  [%d unsent]", view.Pending)
		default:
			line += "  [relay ok]"
		}
	}
	return line
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

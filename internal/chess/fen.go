package chess

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	notnil "github.com/notnil/chess"
)

// FromFEN builds a game from the piece placement, side to move and move number
// of a FEN string. Castling and en passant fields are accepted but ignored
// since neither rule exists in this engine.
func FromFEN(fen string, opts ...Option) (*Game, error) {
	fenFunc, err := notnil.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	position := notnil.NewGame(fenFunc).Position()

	squares := make([]notnil.Square, 0, 32)
	placement := position.Board().SquareMap()
	for sq := range placement {
		squares = append(squares, sq)
	}
	sort.Slice(squares, func(i, j int) bool {
		ci, cj := placement[squares[i]].Color(), placement[squares[j]].Color()
		if ci != cj {
			return ci == notnil.White
		}
		return squares[i] < squares[j]
	})

	snap := make(Snapshot, 0, len(squares))
	for _, sq := range squares {
		piece := placement[sq]
		kind, ok := fromNotnilKind(piece.Type())
		if !ok {
			return nil, fmt.Errorf("invalid FEN: unknown piece on %s", sq)
		}
		color := White
		if piece.Color() == notnil.Black {
			color = Black
		}
		square := newSquare(int(sq.File()), int(sq.Rank()))
		snap = append(snap, PieceState{
			Kind:     kind,
			Color:    color,
			Square:   square.String(),
			HasMoved: !onStartingSquare(kind, color, square),
		})
	}

	turn := 0
	fields := strings.Fields(fen)
	if len(fields) >= 6 {
		if fullmove, err := strconv.Atoi(fields[5]); err == nil && fullmove > 1 {
			turn = 2 * (fullmove - 1)
		}
	}
	if position.Turn() == notnil.Black {
		turn++
	}

	return Restore(snap, turn, opts...)
}

// FEN encodes the position. Castling and en passant fields are always "-" and
// the halfmove clock is not tracked.
func (g *Game) FEN() string {
	placement := make(map[notnil.Square]notnil.Piece)
	for i := range g.reg.pieces {
		p := &g.reg.pieces[i]
		if p.Captured {
			continue
		}
		color := notnil.White
		if p.Color == Black {
			color = notnil.Black
		}
		sq := notnil.Square(p.Square.Rank()*8 + p.Square.File())
		placement[sq] = notnil.NewPiece(toNotnilKind(p.Kind), color)
	}

	side := "w"
	if g.ActiveColor() == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s - - 0 %d", notnil.NewBoard(placement).String(), side, g.turn/2+1)
}

func onStartingSquare(kind PieceKind, color Color, sq Square) bool {
	home, pawns := 0, 1
	if color == Black {
		home, pawns = 7, 6
	}
	if kind == Pawn {
		return sq.Rank() == pawns
	}
	return sq.Rank() == home && backRank[sq.File()] == kind
}

func fromNotnilKind(t notnil.PieceType) (PieceKind, bool) {
	switch t {
	case notnil.Pawn:
		return Pawn, true
	case notnil.Knight:
		return Knight, true
	case notnil.Bishop:
		return Bishop, true
	case notnil.Rook:
		return Rook, true
	case notnil.Queen:
		return Queen, true
	case notnil.King:
		return King, true
	default:
		return Pawn, false
	}
}

func toNotnilKind(k PieceKind) notnil.PieceType {
	switch k {
	case Knight:
		return notnil.Knight
	case Bishop:
		return notnil.Bishop
	case Rook:
		return notnil.Rook
	case Queen:
		return notnil.Queen
	case King:
		return notnil.King
	default:
		return notnil.Pawn
	}
}

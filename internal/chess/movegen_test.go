package chess

import (
	"strings"
	"testing"
)

func mustFEN(t *testing.T, fen string) *Game {
	t.Helper()
	game, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return game
}

func labels(set SquareSet) string {
	return strings.Join(set.Labels(), ",")
}

func TestStartingPositionMoves(t *testing.T) {
	game := NewGame()

	tests := []struct {
		square string
		want   string
	}{
		{"b1", "a3,c3"},
		{"g1", "f3,h3"},
		{"e2", "e3,e4"},
		{"a2", "a3,a4"},
		{"a1", ""},
		{"c1", ""},
		{"d1", ""},
		{"e1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.square, func(t *testing.T) {
			got := labels(game.LegalMoves(MustParseSquare(tt.square)))
			if got != tt.want {
				t.Errorf("LegalMoves(%s) = %q, want %q", tt.square, got, tt.want)
			}
		})
	}
}

func TestOpponentPiecesHaveNoLegalMoves(t *testing.T) {
	game := NewGame()

	if got := game.LegalMoves(MustParseSquare("b8")); !got.Empty() {
		t.Errorf("black knight should have no legal moves on White's turn, got %s", got)
	}
	if got := game.PseudoLegalMoves(MustParseSquare("b8")); labels(got) != "a6,c6" {
		t.Errorf("black knight pseudo-legal moves = %s, want {a6 c6}", got)
	}
}

func TestPawnPushes(t *testing.T) {
	t.Run("blocked directly in front", func(t *testing.T) {
		game := mustFEN(t, "4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1")
		if got := game.LegalMoves(MustParseSquare("e2")); !got.Empty() {
			t.Errorf("expected no moves, got %s", got)
		}
	})

	t.Run("blocked on the double step square", func(t *testing.T) {
		game := mustFEN(t, "4k3/8/8/8/4n3/8/4P3/4K3 w - - 0 1")
		if got := labels(game.LegalMoves(MustParseSquare("e2"))); got != "e3" {
			t.Errorf("expected only e3, got %s", got)
		}
	})

	t.Run("single step only after moving", func(t *testing.T) {
		game := NewGame()
		for _, mv := range [][2]string{{"e2", "e3"}, {"e7", "e6"}} {
			result, err := game.ApplyMove(mv[0], mv[1])
			if err != nil || !result.Accepted() {
				t.Fatalf("setup move %s-%s failed: %v %+v", mv[0], mv[1], err, result)
			}
		}
		if got := labels(game.LegalMoves(MustParseSquare("e3"))); got != "e4" {
			t.Errorf("expected only e4, got %s", got)
		}
	})

	t.Run("black pawns move down the board", func(t *testing.T) {
		game := mustFEN(t, "4k3/3p4/8/8/8/8/8/4K3 b - - 0 1")
		if got := labels(game.LegalMoves(MustParseSquare("d7"))); got != "d5,d6" {
			t.Errorf("expected d5,d6, got %s", got)
		}
	})

	t.Run("pawn on the last rank is stuck", func(t *testing.T) {
		game := mustFEN(t, "P3k3/8/8/8/8/8/8/4K3 w - - 0 1")
		if got := game.LegalMoves(MustParseSquare("a8")); !got.Empty() {
			t.Errorf("expected no moves, got %s", got)
		}
	})
}

func TestSlidingPiecesStopAtFirstPiece(t *testing.T) {
	game := mustFEN(t, "4k3/8/8/8/R2p4/8/8/4K3 w - - 0 1")

	got := labels(game.LegalMoves(MustParseSquare("a4")))
	want := "a1,a2,a3,b4,c4,d4,a5,a6,a7,a8"
	if got != want {
		t.Errorf("rook moves = %s, want %s", got, want)
	}
	if game.LegalMoves(MustParseSquare("a4")).Has(MustParseSquare("e4")) {
		t.Error("rook must not slide through d4")
	}
}

func TestKnightInCornerStaysOnBoard(t *testing.T) {
	game := mustFEN(t, "4k3/8/8/8/8/8/8/N3K3 w - - 0 1")
	if got := labels(game.LegalMoves(MustParseSquare("a1"))); got != "c2,b3" {
		t.Errorf("knight moves = %s, want c2,b3", got)
	}

	game = mustFEN(t, "4k2n/8/8/8/8/8/8/4K3 b - - 0 1")
	if got := labels(game.LegalMoves(MustParseSquare("h8"))); got != "g6,f7" {
		t.Errorf("knight moves = %s, want g6,f7", got)
	}
}

func TestAttackedSquaresAtStart(t *testing.T) {
	game := NewGame()

	if got := labels(AttackedSquares(&game.reg, White)); got != "a3,c3,f3,h3" {
		t.Errorf("White attacks %s, want a3,c3,f3,h3", got)
	}
	if got := labels(AttackedSquares(&game.reg, Black)); got != "a6,c6,f6,h6" {
		t.Errorf("Black attacks %s, want a6,c6,f6,h6", got)
	}
}

func TestPawnsOnlyAttackOccupiedDiagonals(t *testing.T) {
	game := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")

	attacked := AttackedSquares(&game.reg, White)
	for _, label := range []string{"d3", "f3", "e3", "e4"} {
		if attacked.Has(MustParseSquare(label)) {
			t.Errorf("%s should not be attacked by the e2 pawn", label)
		}
	}

	game = mustFEN(t, "4k3/8/8/8/8/3n4/4P3/K7 w - - 0 1")
	pawn, ok := game.PieceAt(MustParseSquare("e2"))
	if !ok {
		t.Fatal("expected a pawn on e2")
	}
	if labels(pawn.Targets) != "d3" {
		t.Errorf("pawn targets = %s, want {d3}", pawn.Targets)
	}
	if labels(pawn.LegalMoves) != "d3,e3,e4" {
		t.Errorf("pawn moves = %s, want {d3 e3 e4}", pawn.LegalMoves)
	}
}

func TestKingCannotStepNextToPawnDiagonal(t *testing.T) {
	// The empty diagonal is not an attacked square, but once the king stands
	// there the pawn can capture it.
	game := mustFEN(t, "8/8/8/8/3k4/8/4P3/K7 b - - 0 1")

	result, err := game.ApplyMove("d4", "d3")
	if err != nil {
		t.Fatalf("ApplyMove returned error: %v", err)
	}
	if result.Accepted() {
		t.Fatal("king should not be allowed next to the pawn diagonal")
	}
	if result.Reason != ReasonLeavesInCheck {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonLeavesInCheck)
	}
}

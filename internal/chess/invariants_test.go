package chess

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestMoveResultJSONSerializationAlwaysIncludesRequiredFields ensures that
// MoveResult structs always serialize to JSON with the expected field names
func TestMoveResultJSONSerializationAlwaysIncludesRequiredFields(t *testing.T) {
	captured := Pawn
	moveResult := &MoveResult{
		Outcome:  Accepted,
		From:     "e4",
		To:       "d5",
		Captured: &captured,
		State:    StateUnfinished,
		Turn:     3,
	}

	jsonData, err := json.Marshal(moveResult)
	if err != nil {
		t.Fatalf("Failed to marshal MoveResult: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	expectedFields := []string{"outcome", "from", "to", "captured", "state", "turn"}
	for _, field := range expectedFields {
		if _, exists := parsed[field]; !exists {
			t.Errorf("Missing field in JSON: %s", field)
		}
	}

	if parsed["captured"] != "pawn" {
		t.Errorf("Expected captured=pawn, got %v", parsed["captured"])
	}
	if parsed["outcome"] != "accepted" {
		t.Errorf("Expected outcome=accepted, got %v", parsed["outcome"])
	}
	if _, exists := parsed["reason"]; exists {
		t.Error("Expected reason to be omitted for accepted moves")
	}
}

// TestSnapshotJSONUsesLabelsAndNames ensures collaborators only ever see
// square labels and piece names, never registry internals
func TestSnapshotJSONUsesLabelsAndNames(t *testing.T) {
	game := NewGame()
	jsonData, err := json.Marshal(game.Snapshot())
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if len(parsed) != 32 {
		t.Fatalf("Expected 32 pieces, got %d", len(parsed))
	}

	first := parsed[0]
	if first["kind"] != "pawn" || first["color"] != "white" || first["square"] != "a2" {
		t.Errorf("Unexpected first piece: %v", first)
	}

	var decoded Snapshot
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if decoded[len(decoded)-1].Kind != Rook || decoded[len(decoded)-1].Color != Black {
		t.Errorf("Expected last piece to be the black h-rook, got %+v", decoded[len(decoded)-1])
	}
}

// TestFENValidationRejectsInvalidInput ensures that the engine properly
// validates FEN strings and rejects invalid input
func TestFENValidationRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name     string
		fen      string
		expected bool
	}{
		{
			name:     "Empty FEN should be rejected",
			fen:      "",
			expected: false,
		},
		{
			name:     "Valid starting position should be accepted",
			fen:      "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			expected: true,
		},
		{
			name:     "Valid mid-game position should be accepted",
			fen:      "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
			expected: true,
		},
		{
			name:     "Invalid board configuration should be rejected",
			fen:      "invalid/board/config/here w KQkq - 0 1",
			expected: false,
		},
		{
			name:     "Position without a black king should be rejected",
			fen:      "8/8/8/8/8/8/8/4K3 w - - 0 1",
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromFEN(tc.fen)

			if tc.expected && err != nil {
				t.Errorf("Expected valid FEN, got error: %v", err)
			}
			if !tc.expected && err == nil {
				t.Errorf("Expected invalid FEN to return error, got nil")
			}
		})
	}
}

// TestMoveValidationEnforcesChessRules ensures that the engine properly
// validates moves according to chess rules
func TestMoveValidationEnforcesChessRules(t *testing.T) {
	testCases := []struct {
		name     string
		from     string
		to       string
		expected bool
		reason   string
	}{
		{name: "Valid pawn move should be accepted", from: "e2", to: "e4", expected: true},
		{name: "Invalid pawn move should be rejected", from: "e2", to: "e5", reason: ReasonUnreachable},
		{name: "Valid knight move should be accepted", from: "g1", to: "f3", expected: true},
		{name: "Knight onto own pawn should be rejected", from: "g1", to: "e2", reason: ReasonOwnPiece},
		{name: "Move to occupied square by same color should be rejected", from: "e2", to: "d1", reason: ReasonOwnPiece},
		{name: "Moving the opponent's piece should be rejected", from: "e7", to: "e5", reason: ReasonNotYourTurn},
		{name: "Moving from an empty square should be rejected", from: "e4", to: "e5", reason: ReasonEmptySquare},
		{name: "Null move should be rejected", from: "e2", to: "e2", reason: ReasonNullMove},
		{name: "Blocked bishop should be rejected", from: "f1", to: "c4", reason: ReasonUnreachable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			game := NewGame()
			result, err := game.ApplyMove(tc.from, tc.to)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			if tc.expected && !result.Accepted() {
				t.Errorf("Expected valid move, got %s (%s)", result.Outcome, result.Reason)
			}
			if !tc.expected {
				if result.Accepted() {
					t.Fatalf("Expected invalid move to be rejected")
				}
				if result.Reason != tc.reason {
					t.Errorf("Expected reason %q, got %q", tc.reason, result.Reason)
				}
			}
		})
	}
}

func TestMalformedSquaresAreErrorsNotOutcomes(t *testing.T) {
	game := NewGame()

	for _, pair := range [][2]string{{"z9", "e4"}, {"e2", "e9"}, {"", "e4"}, {"e2", "E4"}} {
		result, err := game.ApplyMove(pair[0], pair[1])
		if !errors.Is(err, ErrInvalidSquare) {
			t.Errorf("ApplyMove(%q, %q): expected ErrInvalidSquare, got %v", pair[0], pair[1], err)
		}
		if result != nil {
			t.Errorf("ApplyMove(%q, %q): expected nil result, got %+v", pair[0], pair[1], result)
		}
	}

	if _, err := game.LegalDestinations("j1"); !errors.Is(err, ErrInvalidSquare) {
		t.Errorf("Expected ErrInvalidSquare from LegalDestinations, got %v", err)
	}
}

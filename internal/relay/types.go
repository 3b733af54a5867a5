package relay

import (
	"time"

	"github.com/justinabrahms/chesspvp/internal/chess"
)

// Update types pushed over the websocket.
const (
	UpdateState = "state"
	UpdateMove  = "move"
	UpdateReset = "reset"
)

// GameUpdate is one message on a game's websocket channel.
type GameUpdate struct {
	GameID string      `json:"gameId"`
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
}

// State is the relay view of a game: enough for a peer to tell whether it is
// behind and which move to replay.
type State struct {
	ID          string              `json:"id"`
	CreatedAt   time.Time           `json:"createdAt"`
	Turn        int                 `json:"turn"`
	From        string              `json:"from,omitempty"`
	To          string              `json:"to,omitempty"`
	State       chess.GameState     `json:"state"`
	ActiveColor chess.Color         `json:"activeColor"`
	FEN         string              `json:"fen"`
	Material    chess.MaterialCount `json:"material"`
}

// NewState describes game under id.
func NewState(id string, game *chess.Game) State {
	st := State{
		ID:          id,
		CreatedAt:   game.CreatedAt(),
		Turn:        game.TurnCount(),
		State:       game.State(),
		ActiveColor: game.ActiveColor(),
		FEN:         game.FEN(),
		Material:    game.Snapshot().Material(),
	}
	if last := game.LastMove(); last != nil {
		st.From = last.From
		st.To = last.To
	}
	return st
}

// Snapshot carries the full piece registry so a peer can rebuild a game it
// has fallen too far behind on.
type Snapshot struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Turn      int            `json:"turn"`
	LastMove  *chess.Move    `json:"lastMove,omitempty"`
	Pieces    chess.Snapshot `json:"pieces"`
}

func NewSnapshot(id string, game *chess.Game) Snapshot {
	return Snapshot{
		ID:        id,
		CreatedAt: game.CreatedAt(),
		Turn:      game.TurnCount(),
		LastMove:  game.LastMove(),
		Pieces:    game.Snapshot(),
	}
}

// Game rebuilds the snapshot into a playable game.
func (s Snapshot) Game(opts ...chess.Option) (*chess.Game, error) {
	opts = append([]chess.Option{
		chess.WithCreatedAt(s.CreatedAt),
		chess.WithLastMove(s.LastMove),
	}, opts...)
	return chess.Restore(s.Pieces, s.Turn, opts...)
}

type CreateGameRequest struct {
	FEN string `json:"fen,omitempty"`
}

type CreateGameResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	WhiteToken string    `json:"whiteToken,omitempty"`
	BlackToken string    `json:"blackToken,omitempty"`
	State      State     `json:"state"`
}

// MoveRequest submits a move. Turn, when set, must equal the server's current
// turn count or the move is refused as stale.
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Turn *int   `json:"turn,omitempty"`
}

type DestinationsResponse struct {
	Square       string   `json:"square"`
	Destinations []string `json:"destinations"`
}

type GameList struct {
	Games []GameSummary `json:"games"`
	Total int           `json:"total"`
}

// GameSummary is a listed game with its current watcher count.
type GameSummary struct {
	State
	SpectatorCount int `json:"spectatorCount"`
}

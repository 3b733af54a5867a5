package web

import (
	"errors"
	"net/http"

	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/rs/zerolog/log"
)

// GetActiveGamesHandler returns every hosted game with its spectator count.
// Finished games are included; pass ?active=true to hide them.
func (s *Service) GetActiveGamesHandler(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	ids, err := s.games.IDs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list games")
		http.Error(w, "Failed to list games", http.StatusInternalServerError)
		return
	}

	games := make([]relay.GameSummary, 0, len(ids))
	for _, id := range ids {
		var summary relay.GameSummary
		err := s.games.View(id, func(g *chess.Game) error {
			summary.State = relay.NewState(id, g)
			return nil
		})
		if errors.Is(err, ErrGameNotFound) {
			continue
		}
		if err != nil {
			// A record that no longer restores should not hide the rest
			log.Error().Err(err).Str("gameID", id).Msg("Skipping unreadable game")
			continue
		}
		if activeOnly && summary.State.State.Over() {
			continue
		}
		summary.SpectatorCount = s.hub.ClientCount(id)
		games = append(games, summary)
	}

	writeJSON(w, http.StatusOK, relay.GameList{
		Games: games,
		Total: len(games),
	})
}

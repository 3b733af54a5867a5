package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinabrahms/chesspvp/internal/auth"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/rs/zerolog/log"
)

var (
	errStaleTurn = errors.New("turn does not match the game")
	errWrongSeat = errors.New("token does not hold the seat to move")
)

type Service struct {
	games *GameManager
	hub   *Hub
	seats *auth.Issuer
}

// NewService wires the relay handlers. seats may be nil or disabled, in which
// case anyone may move for the side to move.
func NewService(games *GameManager, hub *Hub, seats *auth.Issuer) *Service {
	return &Service{
		games: games,
		hub:   hub,
		seats: seats,
	}
}

// RegisterRoutes mounts the relay API and websocket endpoint on router.
func (s *Service) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	// Preflight requests must match a route for router middleware to run
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(PreflightHandler)
	api.HandleFunc("/health", s.HealthHandler).Methods("GET")
	api.HandleFunc("/games", s.CreateGameHandler).Methods("POST")
	api.HandleFunc("/games", s.GetActiveGamesHandler).Methods("GET")
	api.HandleFunc("/games/{id}", s.GetGameHandler).Methods("GET")
	api.HandleFunc("/games/{id}/snapshot", s.GetSnapshotHandler).Methods("GET")
	api.HandleFunc("/games/{id}/moves/{square}", s.GetDestinationsHandler).Methods("GET")
	api.HandleFunc("/games/{id}/moves", s.MakeMoveHandler).Methods("POST")
	api.HandleFunc("/games/{id}/reset", s.ResetGameHandler).Methods("POST")
	router.HandleFunc("/ws", s.WebSocketHandler(s.hub)).Methods("GET")
}

// CORSMiddleware lets browser spectators call the API from any origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// PreflightHandler answers OPTIONS requests on any API path.
func PreflightHandler(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"seats":  s.seats.Enabled(),
	})
}

func (s *Service) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req relay.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var game *chess.Game
	if req.FEN != "" {
		var err error
		game, err = chess.FromFEN(req.FEN)
		if err != nil {
			log.Error().Err(err).Str("fen", req.FEN).Msg("Invalid FEN")
			http.Error(w, fmt.Sprintf("Invalid FEN: %s", err), http.StatusBadRequest)
			return
		}
	} else {
		game = chess.NewGame()
	}

	id, err := s.games.Create(game)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create game")
		http.Error(w, "Failed to create game", http.StatusInternalServerError)
		return
	}

	resp := relay.CreateGameResponse{
		ID:        id,
		CreatedAt: game.CreatedAt(),
		State:     relay.NewState(id, game),
	}
	if s.seats.Enabled() {
		if resp.WhiteToken, err = s.seats.IssueSeat(id, chess.White); err == nil {
			resp.BlackToken, err = s.seats.IssueSeat(id, chess.Black)
		}
		if err != nil {
			log.Error().Err(err).Str("gameID", id).Msg("Failed to issue seat tokens")
			http.Error(w, "Failed to issue seat tokens", http.StatusInternalServerError)
			return
		}
	}

	log.Info().Str("gameID", id).Bool("fromFEN", req.FEN != "").Msg("Game created")
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var state relay.State
	err := s.games.View(gameID, func(g *chess.Game) error {
		state = relay.NewState(gameID, g)
		return nil
	})
	if err != nil {
		s.writeLookupError(w, gameID, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (s *Service) GetSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var snap relay.Snapshot
	err := s.games.View(gameID, func(g *chess.Game) error {
		snap = relay.NewSnapshot(gameID, g)
		return nil
	})
	if err != nil {
		s.writeLookupError(w, gameID, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Service) GetDestinationsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]
	square := vars["square"]

	var dests []string
	var badSquare error
	err := s.games.View(gameID, func(g *chess.Game) error {
		dests, badSquare = g.LegalDestinations(square)
		return nil
	})
	if err != nil {
		s.writeLookupError(w, gameID, err)
		return
	}
	if badSquare != nil {
		http.Error(w, badSquare.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, relay.DestinationsResponse{
		Square:       square,
		Destinations: dests,
	})
}

func (s *Service) MakeMoveHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req relay.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	seat, ok := s.authorize(w, r, gameID)
	if !ok {
		return
	}

	log.Info().Str("gameID", gameID).Str("from", req.From).Str("to", req.To).Msg("MakeMoveHandler called")

	var result *chess.MoveResult
	var state relay.State
	err := s.games.Update(gameID, func(g *chess.Game) (*chess.Game, error) {
		if req.Turn != nil && *req.Turn != g.TurnCount() {
			return nil, errStaleTurn
		}
		if seat != nil && *seat != g.ActiveColor() {
			return nil, errWrongSeat
		}

		var err error
		result, err = g.ApplyMove(req.From, req.To)
		if err != nil {
			return nil, err
		}
		if !result.Accepted() {
			return nil, nil
		}
		state = relay.NewState(gameID, g)
		return g, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errStaleTurn):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, errWrongSeat):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, chess.ErrInvalidSquare):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		s.writeLookupError(w, gameID, err)
		return
	}

	if !result.Accepted() {
		log.Info().Str("gameID", gameID).Str("from", result.From).Str("to", result.To).Str("reason", result.Reason).Msg("Move rejected")
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	log.Info().Str("gameID", gameID).Int("turn", result.Turn).Str("state", string(result.State)).Msg("Move executed successfully")
	s.hub.BroadcastGameUpdate(GameUpdate{GameID: gameID, Type: relay.UpdateMove, Data: state})
	writeJSON(w, http.StatusOK, result)
}

// ResetGameHandler starts the game over with a new creation time so that
// peers notice they are looking at a different game.
func (s *Service) ResetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	if _, ok := s.authorize(w, r, gameID); !ok {
		return
	}

	var state relay.State
	err := s.games.Update(gameID, func(*chess.Game) (*chess.Game, error) {
		next := chess.NewGame(chess.WithCreatedAt(time.Now()))
		state = relay.NewState(gameID, next)
		return next, nil
	})
	if err != nil {
		s.writeLookupError(w, gameID, err)
		return
	}

	log.Info().Str("gameID", gameID).Msg("Game reset")
	s.hub.BroadcastGameUpdate(GameUpdate{GameID: gameID, Type: relay.UpdateReset, Data: state})
	writeJSON(w, http.StatusOK, state)
}

// authorize checks the bearer seat token when seats are enabled. It returns
// the seat's color, or nil when seats are disabled.
func (s *Service) authorize(w http.ResponseWriter, r *http.Request, gameID string) (*chess.Color, bool) {
	if !s.seats.Enabled() {
		return nil, true
	}

	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		http.Error(w, "Missing seat token", http.StatusUnauthorized)
		return nil, false
	}

	color, err := s.seats.VerifySeat(token, gameID)
	if errors.Is(err, auth.ErrWrongGame) {
		http.Error(w, err.Error(), http.StatusForbidden)
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("gameID", gameID).Msg("Rejected seat token")
		http.Error(w, "Invalid seat token", http.StatusUnauthorized)
		return nil, false
	}
	return &color, true
}

func (s *Service) writeLookupError(w http.ResponseWriter, gameID string, err error) {
	if errors.Is(err, ErrGameNotFound) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Str("gameID", gameID).Msg("Failed to access game")
	http.Error(w, "Failed to access game", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

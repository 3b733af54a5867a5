package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinabrahms/chesspvp/internal/auth"
	"github.com/justinabrahms/chesspvp/internal/config"
	"github.com/justinabrahms/chesspvp/internal/store"
	"github.com/justinabrahms/chesspvp/internal/web"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line flags
	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	// Setup logging
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Development.Level())

	// Open game storage
	var st *store.Store
	if cfg.Storage.InMemory {
		st, err = store.OpenInMemory()
	} else {
		st, err = store.Open(filepath.Join(cfg.Storage.Path, "relay"))
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open game storage")
	}
	defer st.Close()

	seats := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if !seats.Enabled() {
		log.Warn().Msg("auth.secret is empty, anyone may move for either side")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := web.NewHub()
	go hub.Run(ctx)

	games := web.NewGameManager(web.WithStore(st), web.WithManagerLogger(log.Logger))
	service := web.NewService(games, hub, seats)

	// Setup routes
	router := mux.NewRouter()
	router.Use(web.CORSMiddleware)
	service.RegisterRoutes(router)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("seats", seats.Enabled()).Msg("Starting relay server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	cancel()

	log.Info().Msg("Server exited")
}

func showHelpMessage() {
	fmt.Println(`chesspvp relay

DESCRIPTION:
    Relay server for two-player chess. Holds each game, validates every
    move with the chess engine and pushes accepted moves to everyone
    watching the game over a websocket. Games survive restarts.

USAGE:
    chess-relay [OPTIONS]

OPTIONS:
    -h, --help    Show this help message

CONFIGURATION:
    The relay is configured via config.yaml in the current directory or
    ./config, or CHESSPVP_* environment variables (e.g. CHESSPVP_SERVER_PORT).

    Example config.yaml:
        server:
          host: localhost
          port: 8080

        storage:
          path: ./data      # games are kept in ./data/relay
          in_memory: false

        auth:
          secret: "change-me"   # empty disables seat tokens
          token_ttl: 24h

        development:
          debug: false
          log_level: info

API ENDPOINTS:
    GET  /api/health                   - Service health check
    POST /api/games                    - Create a game, optionally from {"fen": ...}
    GET  /api/games[?active=true]      - List games with spectator counts
    GET  /api/games/{id}               - Relay state: turn, last move, FEN
    GET  /api/games/{id}/snapshot      - Full piece registry for resyncing
    GET  /api/games/{id}/moves/{sq}    - Legal destinations of a piece
    POST /api/games/{id}/moves         - Submit {"from","to","turn"}
    POST /api/games/{id}/reset         - Start the game over
    GET  /ws?gameId={id}               - Websocket stream of game updates

BEHAVIOR:
    - Illegal moves are answered with 422 and the reason
    - A move made at a stale turn is answered with 409
    - With seats enabled, moves need the mover's bearer token
    - Graceful shutdown on SIGINT/SIGTERM

EXAMPLES:
    # Start with default configuration
    chess-relay

    # Create a game via API
    curl -X POST http://localhost:8080/api/games

    # Move a pawn
    curl -X POST http://localhost:8080/api/games/{id}/moves \
      -H "Content-Type: application/json" \
      -d '{"from": "e2", "to": "e4", "turn": 0}'

SEE ALSO:
    chess-play(1), config.yaml(5)`)
}

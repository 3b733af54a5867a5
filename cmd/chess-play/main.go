package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/config"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/justinabrahms/chesspvp/internal/session"
	"github.com/justinabrahms/chesspvp/internal/store"
	"github.com/justinabrahms/chesspvp/internal/tui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var showHelp bool
	var relayURL, gameID string
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&showHelp, "h", false, "Show help information")
	flag.StringVar(&relayURL, "relay", "", "Relay server URL, overrides relay.url")
	flag.StringVar(&gameID, "game", "", "Relayed game id, overrides relay.game_id")
	flag.Parse()

	if showHelp {
		showHelpMessage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if relayURL != "" {
		cfg.Relay.URL = relayURL
	}
	if gameID != "" {
		cfg.Relay.GameID = gameID
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.Storage.Path, err)
	}

	// The terminal belongs to the board, so logs go to a file
	logFile, err := os.OpenFile(filepath.Join(cfg.Storage.Path, "chess-play.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(cfg.Development.Level())

	var st *store.Store
	if cfg.Storage.InMemory {
		st, err = store.OpenInMemory()
	} else {
		st, err = store.Open(filepath.Join(cfg.Storage.Path, "play"))
	}
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []session.Option{
		session.WithLogger(log.Logger),
		session.WithPollInterval(cfg.Relay.PollInterval),
	}

	if cfg.Relay.URL != "" {
		syncer, err := joinRelay(ctx, &cfg.Relay)
		if err != nil {
			return err
		}
		opts = append(opts,
			session.WithSyncer(syncer),
			session.WithStore(st, "relay:"+cfg.Relay.GameID))
	} else {
		opts = append(opts, session.WithStore(st, session.DefaultSaveKey))
	}

	sess, err := session.New(opts...)
	if err != nil {
		return err
	}

	if cfg.Relay.URL != "" && cfg.Relay.UseWebSocket {
		token := cfg.Relay.WhiteToken
		if token == "" {
			token = cfg.Relay.BlackToken
		}
		wsURL, err := relay.WebSocketURL(cfg.Relay.URL, cfg.Relay.GameID, token)
		if err != nil {
			return err
		}
		subscriber := relay.NewSubscriber(wsURL, func(relay.GameUpdate) error {
			sess.Notify()
			return nil
		}, relay.WithLogger(log.Logger))
		subscriber.Start()
		defer subscriber.Stop()
	}

	go sess.Run(ctx)

	greeting()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	app := tui.NewApp(screen, sess, tui.WithLogger(log.Logger))
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	// Interrupted rather than quit with Esc
	if ctx.Err() != nil {
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Msg("Failed to save game")
		}
	}
	return nil
}

// joinRelay connects to the configured relay game, creating one when no game
// id is configured. The creator of a game takes White's seat; Black's token
// is printed for the opponent.
func joinRelay(ctx context.Context, rc *config.RelayConfig) (*relay.Syncer, error) {
	client := relay.NewClient(rc.URL)

	if rc.GameID == "" {
		created, err := client.CreateGame(ctx, "")
		if err != nil {
			return nil, err
		}
		rc.GameID = created.ID
		rc.WhiteToken = created.WhiteToken
		rc.BlackToken = ""

		fmt.Printf("Created game %s on %s\n", created.ID, rc.URL)
		if created.BlackToken != "" {
			fmt.Printf("Black's seat token: %s\n", created.BlackToken)
		}
		log.Info().Str("gameID", created.ID).Msg("Created relayed game")
	}

	return relay.NewSyncer(client, rc.GameID,
		relay.WithSeatToken(chess.White, rc.WhiteToken),
		relay.WithSeatToken(chess.Black, rc.BlackToken),
		relay.WithGameOptions(chess.WithLogger(log.Logger)),
		relay.WithSyncLogger(log.Logger.With().Str("gameID", rc.GameID).Logger()),
	), nil
}

func greeting() {
	fmt.Println("Welcome to Chess!")
	fmt.Println("Game data will persist upon exit.")
	fmt.Println("Press 'esc' to quit, or 'c' to start a new game.")
}

func showHelpMessage() {
	fmt.Println(`chesspvp play

DESCRIPTION:
    Terminal chess board for two players. Played alone it is a hot-seat
    game on one board; pointed at a relay it keeps the board in step with
    the other player's. The game is saved when you quit and resumed on the
    next start.

USAGE:
    chess-play [OPTIONS]

OPTIONS:
    -h, --help       Show this help message
    -relay URL       Relay server, e.g. http://localhost:8080
    -game ID         Join an existing relayed game

CONTROLS:
    drag a piece, or click it and then its destination, to move
    esc              Save and quit
    c                Start a new game

CONFIGURATION:
    config.yaml in the current directory or ./config, or CHESSPVP_*
    environment variables.

    Example config.yaml:
        relay:
          url: http://localhost:8080
          game_id: ""          # empty creates a new game
          poll_interval: 2s
          use_websocket: true
          white_token: ""
          black_token: ""

        storage:
          path: ./data         # save games and chess-play.log

SEE ALSO:
    chess-relay(1)`)
}

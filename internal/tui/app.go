package tui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/session"
	"github.com/rs/zerolog"
)

// App is the interactive board. A move is made by dragging a piece to its
// destination, or by clicking the piece and then the destination.
type App struct {
	screen  tcell.Screen
	session *session.Session
	layout  Layout
	logger  zerolog.Logger
	ctx     context.Context

	selected     chess.Square
	destinations []string
	pressed      bool
	pressedOn    chess.Square
	message      string
}

// AppOption configures the app
type AppOption func(*App)

func WithLayout(l Layout) AppOption {
	return func(a *App) {
		a.layout = l
	}
}

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp draws sess on screen. The screen must already be initialized.
func NewApp(screen tcell.Screen, sess *session.Session, opts ...AppOption) *App {
	a := &App{
		screen:    screen,
		session:   sess,
		layout:    DefaultLayout,
		logger:    zerolog.Nop(),
		ctx:       context.Background(),
		selected:  chess.NoSquare,
		pressedOn: chess.NoSquare,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run handles input until the player quits or ctx is done. Quitting with Esc
// saves the game.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx
	a.screen.EnableMouse()
	defer a.screen.DisableMouse()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				a.screen.PostEvent(tcell.NewEventInterrupt(nil))
				return
			case <-a.session.Changes():
				a.screen.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok && ctx.Err() != nil {
			return ctx.Err()
		}
		if a.handle(ev) {
			if err := a.session.Save(); err != nil {
				return fmt.Errorf("failed to save game: %w", err)
			}
			a.logger.Info().Msg("Game saved, quitting")
			return nil
		}
		a.draw()
	}
}

// handle applies one event and reports whether the player asked to quit.
func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return true
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'c' || ev.Rune() == 'C'):
			a.clearSelection()
			if err := a.session.Reset(a.ctx); err != nil {
				a.logger.Error().Err(err).Msg("Failed to start a new game")
				a.message = "Could not start a new game: " + err.Error()
			} else {
				a.message = "New game"
			}
		}
	case *tcell.EventMouse:
		a.handleMouse(ev)
	}
	return false
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	sq, onBoard := a.layout.SquareAt(x, y)

	if ev.Buttons()&tcell.Button1 != 0 {
		if a.pressed {
			// Drag in progress
			return
		}
		a.pressed = true
		a.pressedOn = chess.NoSquare
		if !onBoard {
			a.clearSelection()
			return
		}
		a.pressedOn = sq

		if a.selected != chess.NoSquare && a.isDestination(sq) {
			a.move(a.selected, sq)
			a.pressedOn = chess.NoSquare
			return
		}
		a.selectSquare(sq)
		return
	}

	if !a.pressed {
		return
	}
	a.pressed = false
	if !onBoard || a.selected == chess.NoSquare || a.pressedOn != a.selected || sq == a.pressedOn {
		return
	}
	a.move(a.selected, sq)
}

func (a *App) selectSquare(sq chess.Square) {
	view := a.session.View()
	p, ok := view.PieceOn(sq)
	if !ok || p.Color != view.ActiveColor {
		a.clearSelection()
		return
	}
	if !a.session.CanMove(p.Color) {
		a.clearSelection()
		a.message = fmt.Sprintf("Waiting for %s to move", p.Color)
		return
	}

	dests, err := a.session.LegalDestinations(sq.String())
	if err != nil {
		a.logger.Error().Err(err).Str("square", sq.String()).Msg("Failed to list destinations")
		a.clearSelection()
		return
	}
	a.selected = sq
	a.destinations = dests
	a.message = ""
}

func (a *App) move(from, to chess.Square) {
	defer a.clearSelection()

	result, err := a.session.Move(from.String(), to.String())
	if err != nil {
		a.message = err.Error()
		return
	}
	if !result.Accepted() {
		a.message = fmt.Sprintf("%s-%s: %s", result.From, result.To, result.Reason)
		return
	}
	a.message = ""
	if result.Captured != nil {
		a.message = fmt.Sprintf("%s-%s takes %s", result.From, result.To, *result.Captured)
	}
}

func (a *App) isDestination(sq chess.Square) bool {
	label := sq.String()
	for _, d := range a.destinations {
		if d == label {
			return true
		}
	}
	return false
}

func (a *App) clearSelection() {
	a.selected = chess.NoSquare
	a.destinations = nil
}

func (a *App) draw() {
	a.layout.Render(a.screen, a.session.View(), a.selected, a.destinations, a.message)
}

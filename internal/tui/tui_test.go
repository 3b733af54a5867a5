package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/mux"
	"github.com/justinabrahms/chesspvp/internal/auth"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/justinabrahms/chesspvp/internal/session"
	"github.com/justinabrahms/chesspvp/internal/store"
	"github.com/justinabrahms/chesspvp/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(60, 16)
	t.Cleanup(screen.Fini)
	return screen
}

func newApp(t *testing.T, opts ...session.Option) (*App, *session.Session, tcell.SimulationScreen) {
	t.Helper()
	sess, err := session.New(opts...)
	require.NoError(t, err)
	screen := newScreen(t)
	return NewApp(screen, sess), sess, screen
}

// runeAt reads back the character drawn at x, y.
func runeAt(screen tcell.SimulationScreen, x, y int) rune {
	cells, width, _ := screen.GetContents()
	cell := cells[y*width+x]
	if len(cell.Runes) == 0 {
		return ' '
	}
	return cell.Runes[0]
}

func line(screen tcell.SimulationScreen, y int) string {
	_, width, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < width; x++ {
		b.WriteRune(runeAt(screen, x, y))
	}
	return strings.TrimRight(b.String(), " ")
}

func sq(label string) chess.Square {
	return chess.MustParseSquare(label)
}

// click presses and releases the mouse on label.
func click(a *App, label string) {
	press(a, label)
	release(a, label)
}

func press(a *App, label string) {
	x, y := a.layout.CellOf(sq(label))
	a.handle(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
}

func release(a *App, label string) {
	x, y := a.layout.CellOf(sq(label))
	a.handle(tcell.NewEventMouse(x+1, y, tcell.ButtonNone, tcell.ModNone))
}

func TestLayoutMapsSquares(t *testing.T) {
	l := DefaultLayout

	x, y := l.CellOf(sq("a8"))
	assert.Equal(t, l.OriginX, x)
	assert.Equal(t, l.OriginY, y)

	x, y = l.CellOf(sq("h1"))
	assert.Equal(t, l.OriginX+7*l.CellWidth, x)
	assert.Equal(t, l.OriginY+7, y)

	for i := 0; i < 64; i++ {
		want := chess.Square(i)
		x, y := l.CellOf(want)
		for dx := 0; dx < l.CellWidth; dx++ {
			got, ok := l.SquareAt(x+dx, y)
			require.True(t, ok)
			require.Equal(t, want, got, "cell %d,%d", x+dx, y)
		}
	}

	outside := [][2]int{
		{l.OriginX - 1, l.OriginY},
		{l.OriginX, l.OriginY - 1},
		{l.OriginX + 8*l.CellWidth, l.OriginY},
		{l.OriginX, l.OriginY + 8},
	}
	for _, c := range outside {
		_, ok := l.SquareAt(c[0], c[1])
		assert.False(t, ok, "cell %v should be off the board", c)
	}

	_, ok := Layout{}.SquareAt(0, 0)
	assert.False(t, ok, "zero-width cells cover nothing")
}

func TestRenderStartPosition(t *testing.T) {
	a, _, screen := newApp(t)
	a.draw()

	x, y := a.layout.CellOf(sq("e1"))
	assert.Equal(t, '♚', runeAt(screen, x+1, y))
	x, y = a.layout.CellOf(sq("d8"))
	assert.Equal(t, '♛', runeAt(screen, x+1, y))
	x, y = a.layout.CellOf(sq("e4"))
	assert.Equal(t, ' ', runeAt(screen, x+1, y))

	assert.Equal(t, '8', runeAt(screen, a.layout.OriginX-2, a.layout.OriginY))
	assert.Contains(t, line(screen, a.layout.OriginY+8), "a  b  c  d  e  f  g  h")
	assert.Equal(t, "   Turn 0  white to move", line(screen, a.layout.Bottom()))
}

func TestRenderSelectionAndTargets(t *testing.T) {
	a, _, screen := newApp(t)

	click(a, "g1")
	assert.Equal(t, sq("g1"), a.selected)
	assert.Equal(t, []string{"f3", "h3"}, a.destinations)
	a.draw()

	x, y := a.layout.CellOf(sq("f3"))
	assert.Equal(t, '·', runeAt(screen, x+1, y))
	cells, width, _ := screen.GetContents()
	_, bg, _ := cells[y*width+x].Style.Decompose()
	assert.Equal(t, tcell.ColorDarkSeaGreen, bg)
}

func TestDragMovesPiece(t *testing.T) {
	a, sess, _ := newApp(t)

	press(a, "e2")
	// Motion while held is ignored
	x, y := a.layout.CellOf(sq("e3"))
	a.handle(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	release(a, "e4")

	view := sess.View()
	assert.Equal(t, 1, view.Turn)
	assert.Equal(t, &chess.Move{From: "e2", To: "e4"}, view.LastMove)
	assert.Equal(t, chess.NoSquare, a.selected)
}

func TestClickClickMovesPiece(t *testing.T) {
	a, sess, _ := newApp(t)

	click(a, "b1")
	click(a, "c3")

	assert.Equal(t, &chess.Move{From: "b1", To: "c3"}, sess.View().LastMove)
	assert.Empty(t, a.message)
}

func TestIllegalDragShowsReason(t *testing.T) {
	a, sess, screen := newApp(t)

	press(a, "e2")
	release(a, "e5")

	assert.Equal(t, 0, sess.View().Turn)
	assert.Equal(t, "e2-e5: "+chess.ReasonUnreachable, a.message)

	a.draw()
	assert.Contains(t, line(screen, a.layout.Bottom()+2), chess.ReasonUnreachable)
}

func TestOpponentPieceCannotBeSelected(t *testing.T) {
	a, _, _ := newApp(t)

	click(a, "e7")
	assert.Equal(t, chess.NoSquare, a.selected)

	click(a, "e4")
	assert.Equal(t, chess.NoSquare, a.selected)
}

func TestOtherSeatCannotBeSelected(t *testing.T) {
	hub := web.NewHub()
	router := mux.NewRouter()
	web.NewService(web.NewGameManager(), hub, auth.NewIssuer("secret", time.Hour)).RegisterRoutes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	client := relay.NewClient(server.URL)
	created, err := client.CreateGame(context.Background(), "")
	require.NoError(t, err)

	syncer := relay.NewSyncer(client, created.ID, relay.WithSeatToken(chess.Black, created.BlackToken))
	a, _, _ := newApp(t, session.WithSyncer(syncer))

	click(a, "e2")
	assert.Equal(t, chess.NoSquare, a.selected)
	assert.Equal(t, "Waiting for white to move", a.message)
}

func TestNewGameKey(t *testing.T) {
	a, sess, _ := newApp(t)

	click(a, "e2")
	click(a, "e4")
	require.Equal(t, 1, sess.View().Turn)

	quit := a.handle(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone))
	assert.False(t, quit)
	assert.Equal(t, 0, sess.View().Turn)
	assert.Equal(t, "New game", a.message)
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		view session.View
		want string
	}{
		{session.View{Turn: 4, ActiveColor: chess.White, State: chess.StateUnfinished}, "Turn 4  white to move"},
		{session.View{Turn: 5, ActiveColor: chess.Black, State: chess.StateCheck}, "Turn 5  black to move, in check"},
		{session.View{Turn: 4, ActiveColor: chess.White, State: chess.StateCheckmate}, "Turn 4  Checkmate, black wins"},
		{session.View{Turn: 9, ActiveColor: chess.Black, State: chess.StateStalemate}, "Turn 9  Stalemate"},
		{session.View{ActiveColor: chess.White, State: chess.StateUnfinished, Relayed: true}, "Turn 0  white to move  [relay offline]"},
		{session.View{ActiveColor: chess.White, State: chess.StateUnfinished, Relayed: true, Online: true, Pending: 2}, "Turn 0  white to move  [2 unsent]"},
		{session.View{ActiveColor: chess.White, State: chess.StateUnfinished, Relayed: true, Online: true}, "Turn 0  white to move  [relay ok]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.view))
	}
}

func TestRunSavesOnEscape(t *testing.T) {
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	a, sess, screen := newApp(t, session.WithStore(st, "tui"))
	_, err = sess.Move("d2", "d4")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after escape")
	}

	game, err := st.LoadGame("tui")
	require.NoError(t, err)
	assert.Equal(t, 1, game.TurnCount())
}

func TestRunStopsWithContext(t *testing.T) {
	a, _, _ := newApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

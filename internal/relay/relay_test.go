package relay_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinabrahms/chesspvp/internal/auth"
	"github.com/justinabrahms/chesspvp/internal/chess"
	"github.com/justinabrahms/chesspvp/internal/relay"
	"github.com/justinabrahms/chesspvp/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRelayServer runs the real relay handlers behind an httptest server.
func newRelayServer(t *testing.T, seats *auth.Issuer) *httptest.Server {
	t.Helper()

	hub := web.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := mux.NewRouter()
	router.Use(web.CORSMiddleware)
	web.NewService(web.NewGameManager(), hub, seats).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server
}

func TestClientRoundTrip(t *testing.T) {
	server := newRelayServer(t, nil)
	client := relay.NewClient(server.URL + "/")
	ctx := context.Background()

	created, err := client.CreateGame(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 0, created.State.Turn)

	result, err := client.MakeMove(ctx, created.ID, "", "e2", "e4", 0)
	require.NoError(t, err)
	assert.True(t, result.Accepted())
	assert.Equal(t, 1, result.Turn)

	state, err := client.GetGame(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Turn)
	assert.Equal(t, "e2", state.From)
	assert.Equal(t, "e4", state.To)
	assert.Equal(t, chess.Black, state.ActiveColor)
	assert.True(t, state.CreatedAt.Equal(created.CreatedAt))

	snap, err := client.GetSnapshot(ctx, created.ID)
	require.NoError(t, err)
	game, err := snap.Game()
	require.NoError(t, err)
	assert.Equal(t, state.FEN, game.FEN())
}

func TestClientMakeMoveOutcomes(t *testing.T) {
	server := newRelayServer(t, nil)
	client := relay.NewClient(server.URL)
	ctx := context.Background()

	created, err := client.CreateGame(ctx, "")
	require.NoError(t, err)

	// Illegal moves come back as results
	result, err := client.MakeMove(ctx, created.ID, "", "e2", "e5", 0)
	require.NoError(t, err)
	assert.Equal(t, chess.Illegal, result.Outcome)
	assert.Equal(t, chess.ReasonUnreachable, result.Reason)

	_, err = client.MakeMove(ctx, created.ID, "", "e2", "e4", 3)
	assert.ErrorIs(t, err, relay.ErrStaleTurn)

	_, err = client.GetGame(ctx, "missing")
	assert.ErrorIs(t, err, relay.ErrNotFound)
}

func TestClientSeatErrors(t *testing.T) {
	server := newRelayServer(t, auth.NewIssuer("secret", time.Hour))
	client := relay.NewClient(server.URL)
	ctx := context.Background()

	created, err := client.CreateGame(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, created.WhiteToken)

	_, err = client.MakeMove(ctx, created.ID, "", "e2", "e4", 0)
	assert.ErrorIs(t, err, relay.ErrUnauthorized)

	_, err = client.MakeMove(ctx, created.ID, created.BlackToken, "e2", "e4", 0)
	assert.ErrorIs(t, err, relay.ErrForbidden)

	result, err := client.MakeMove(ctx, created.ID, created.WhiteToken, "e2", "e4", 0)
	require.NoError(t, err)
	assert.True(t, result.Accepted())
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		token   string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "", "ws://localhost:8080/ws?gameId=g1", false},
		{"https://relay.example.com/", "tok", "wss://relay.example.com/ws?gameId=g1&token=tok", false},
		{"ws://host:1/base", "", "ws://host:1/base/ws?gameId=g1", false},
		{"ftp://host", "", "", true},
	}

	for _, tt := range tests {
		got, err := relay.WebSocketURL(tt.base, "g1", tt.token)
		if tt.wantErr {
			assert.Error(t, err, tt.base)
			continue
		}
		require.NoError(t, err, tt.base)
		assert.Equal(t, tt.want, got)
	}
}

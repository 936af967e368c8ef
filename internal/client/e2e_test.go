package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/promptparty/internal/bootstrap"
	"github.com/DoyleJ11/promptparty/internal/engine"
	"github.com/DoyleJ11/promptparty/internal/httpapi"
	"github.com/DoyleJ11/promptparty/internal/hub"
	"github.com/DoyleJ11/promptparty/internal/lobby"
	"github.com/DoyleJ11/promptparty/internal/session"
	"github.com/DoyleJ11/promptparty/internal/transport"
)

func TestEndToEnd_AgainstDevServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := zaptest.NewLogger(t)

	h := hub.NewHub(ctx, hub.Config{
		Rules: engine.DefaultRules(),
		Room: lobby.Options{
			Clock:      clockwork.NewFakeClock(),
			Logger:     log,
			PickPrompt: func() string { return "A paper airplane" },
		},
	})
	srv := httptest.NewServer(httpapi.SetupRoutes(h, log))
	defer srv.Close()

	obs := newRecorder()
	c := New(ctx, Options{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game",
		Dialer:   transport.WebsocketDialer{},
		Rooms:    bootstrap.New(srv.URL+"/api/rooms", srv.Client(), log),
		Clock:    clockwork.NewFakeClock(),
		Logger:   log,
		Observer: obs,
	})
	defer c.Close()

	room, err := c.CreateAndConnect(ctx, "Ava")
	require.NoError(t, err)
	assert.Equal(t, session.RouteLobby, recvRoute(t, obs.routes, within))

	s := waitState(t, obs.states, within, func(s session.State) bool { return len(s.Players) == 1 })
	assert.Equal(t, room, s.RoomID)
	assert.True(t, s.IsHost())

	c.StartGame()
	assert.Equal(t, session.RouteGame, recvRoute(t, obs.routes, within))
	s = waitState(t, obs.states, within, func(s session.State) bool { return s.Round == 1 })
	assert.Equal(t, session.PhaseInGame, s.Phase)
	assert.Equal(t, "3 words", s.PromptHint)
	assert.Equal(t, 30, s.TimeLeft)

	c.Guess("a paper boat")
	s = waitState(t, obs.states, within, func(s session.State) bool { return s.LastSimilarity > 0 })
	assert.InDelta(t, 66.67, s.LastSimilarity, 0.001)
	assert.Equal(t, []session.GuessRecord{{Player: "Ava", Message: "a paper boat"}}, s.ChatLog)

	c.Guess("A paper airplane")
	s = waitState(t, obs.states, within, func(s session.State) bool { return s.Phase == session.PhasePostRound })
	assert.Equal(t, "A paper airplane", s.CorrectPrompt)
	assert.Equal(t, "Ava", s.RoundWinner)
	assert.Equal(t, "guessed", s.RoundEndReason)

	c.Disconnect()
	assert.Equal(t, session.RouteHome, recvRoute(t, obs.routes, within))
	assert.False(t, c.Ready())
}

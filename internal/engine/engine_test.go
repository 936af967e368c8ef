package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomWith(t *testing.T, names ...string) State {
	t.Helper()
	s := NewRoom("abc123", Rules{MaxPlayers: 3, TotalRounds: 2, RoundDuration: 30 * time.Second})
	for _, n := range names {
		var err error
		_, s, err = Apply(s, Command{Type: CmdJoin, Player: n})
		require.NoError(t, err)
	}
	return s
}

func inRound(t *testing.T, prompt string, names ...string) State {
	t.Helper()
	s := roomWith(t, names...)
	_, s, err := Apply(s, Command{Type: CmdStartGame, Player: names[0], Prompt: prompt})
	require.NoError(t, err)
	return s
}

func TestJoin(t *testing.T) {
	cases := []struct {
		name    string
		setup   State
		player  string
		wantErr error
	}{
		{name: "first player", setup: NewRoom("r", DefaultRules()), player: "Ava"},
		{name: "missing name", setup: NewRoom("r", DefaultRules()), player: "", wantErr: ErrMissingName},
		{name: "duplicate name", setup: roomWith(t, "Ava"), player: "Ava", wantErr: ErrNameTaken},
		{name: "room full", setup: roomWith(t, "Ava", "Bo", "Cy"), player: "Di", wantErr: ErrRoomFull},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, next, err := Apply(tc.setup, Command{Type: CmdJoin, Player: tc.player})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.setup, next)
				return
			}
			require.NoError(t, err)
			assert.True(t, ContainsEvent(events, EvtPlayerJoined))
		})
	}
}

func TestJoin_FirstPlayerIsHost(t *testing.T) {
	s := roomWith(t, "Ava", "Bo")
	assert.Equal(t, []Player{{Name: "Ava", IsHost: true}, {Name: "Bo"}}, s.Players)
}

func TestLeave_HandsHostToNextPlayer(t *testing.T) {
	s := roomWith(t, "Ava", "Bo", "Cy")

	events, next, err := Apply(s, Command{Type: CmdLeave, Player: "Ava"})
	require.NoError(t, err)

	assert.Equal(t, []Event{
		{Type: EvtPlayerLeft, Player: "Ava"},
		{Type: EvtHostChanged, Player: "Bo"},
	}, events)
	assert.Equal(t, []Player{{Name: "Bo", IsHost: true}, {Name: "Cy"}}, next.Players)
	// the input state is untouched
	assert.Len(t, s.Players, 3)
}

func TestLeave_LastPlayerResetsRoom(t *testing.T) {
	s := inRound(t, "a stack of books", "Ava")

	_, next, err := Apply(s, Command{Type: CmdLeave, Player: "Ava"})
	require.NoError(t, err)
	assert.Equal(t, PhaseLobby, next.Phase)
	assert.Zero(t, next.Round)
	assert.Empty(t, next.Players)
}

func TestStartGame(t *testing.T) {
	cases := []struct {
		name    string
		setup   State
		player  string
		wantErr error
	}{
		{name: "host starts", setup: roomWith(t, "Ava", "Bo"), player: "Ava"},
		{name: "non host", setup: roomWith(t, "Ava", "Bo"), player: "Bo", wantErr: ErrNotHost},
		{name: "stranger", setup: roomWith(t, "Ava"), player: "Zed", wantErr: ErrUnknownPlayer},
		{name: "already running", setup: inRound(t, "x", "Ava"), player: "Ava", wantErr: ErrWrongPhase},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, next, err := Apply(tc.setup, Command{Type: CmdStartGame, Player: tc.player, Prompt: "A paper airplane"})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []Event{{Type: EvtGameStarted}, {Type: EvtRoundStarted, Round: 1}}, events)
			assert.Equal(t, PhaseInGame, next.Phase)
			assert.Equal(t, 1, next.Round)
			assert.Equal(t, "A paper airplane", next.Prompt)
		})
	}
}

func TestGuess_ScoresBestPerRound(t *testing.T) {
	s := inRound(t, "A blue coffee cup", "Ava", "Bo")

	events, s, err := Apply(s, Command{Type: CmdGuess, Player: "Bo", Text: "a red cup"})
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Type: EvtGuessMade, Player: "Bo", Text: "a red cup", Similarity: 50},
		{Type: EvtScoreChanged, Player: "Bo"},
	}, events)
	assert.Equal(t, 500, s.Players[1].Score)

	// a worse guess changes nothing
	events, s, err = Apply(s, Command{Type: CmdGuess, Player: "Bo", Text: "a mug"})
	require.NoError(t, err)
	assert.False(t, ContainsEvent(events, EvtScoreChanged))
	assert.Equal(t, 500, s.Players[1].Score)

	// a better one only adds the difference
	_, s, err = Apply(s, Command{Type: CmdGuess, Player: "Bo", Text: "a blue cup"})
	require.NoError(t, err)
	assert.Equal(t, 750, s.Players[1].Score)
	assert.Equal(t, PhaseInGame, s.Phase)
}

func TestGuess_ExactMatchEndsRound(t *testing.T) {
	s := inRound(t, "A blue coffee cup", "Ava", "Bo")

	events, s, err := Apply(s, Command{Type: CmdGuess, Player: "Ava", Text: "a BLUE coffee cup!"})
	require.NoError(t, err)

	assert.True(t, ContainsEvent(events, EvtRoundEnded))
	assert.Equal(t, PhasePostRound, s.Phase)
	assert.Equal(t, "Ava", s.Winner)
	assert.Equal(t, ReasonGuessed, s.EndReason)
	assert.Equal(t, 1000, s.Players[0].Score)
}

func TestGuess_Rejected(t *testing.T) {
	lobby := roomWith(t, "Ava")
	round := inRound(t, "x", "Ava")

	_, _, err := Apply(lobby, Command{Type: CmdGuess, Player: "Ava", Text: "x"})
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, _, err = Apply(round, Command{Type: CmdGuess, Player: "Ava", Text: ""})
	assert.ErrorIs(t, err, ErrEmptyGuess)

	_, _, err = Apply(round, Command{Type: CmdGuess, Player: "Zed", Text: "x"})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestRoundTimeout(t *testing.T) {
	s := inRound(t, "A vintage car", "Ava", "Bo")
	_, s, err := Apply(s, Command{Type: CmdGuess, Player: "Bo", Text: "old car"})
	require.NoError(t, err)

	_, _, err = Apply(s, Command{Type: CmdRoundTimeout, Round: 7})
	assert.ErrorIs(t, err, ErrStaleRound)

	events, s, err := Apply(s, Command{Type: CmdRoundTimeout, Round: 1})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Type: EvtRoundEnded, Player: "Bo", Round: 1}}, events)
	assert.Equal(t, ReasonTimeout, s.EndReason)

	// a second timeout for the same round is late
	_, _, err = Apply(s, Command{Type: CmdRoundTimeout, Round: 1})
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestNextRound_ThenGameCompletes(t *testing.T) {
	s := inRound(t, "A vintage car", "Ava")
	_, s, err := Apply(s, Command{Type: CmdRoundTimeout, Round: 1})
	require.NoError(t, err)

	events, s, err := Apply(s, Command{Type: CmdNextRound, Round: 1, Prompt: "A paper airplane"})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Type: EvtRoundStarted, Round: 2}}, events)
	assert.Equal(t, "A paper airplane", s.Prompt)
	assert.Empty(t, s.Winner)

	_, s, err = Apply(s, Command{Type: CmdRoundTimeout, Round: 2})
	require.NoError(t, err)
	events, s, err = Apply(s, Command{Type: CmdNextRound, Round: 2})
	require.NoError(t, err)
	assert.Equal(t, []Event{{Type: EvtGameCompleted, Round: 2}}, events)
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.Zero(t, s.Round)
}

func TestSetImage(t *testing.T) {
	s := inRound(t, "x", "Ava")

	_, next, err := Apply(s, Command{Type: CmdSetImage, Round: 1, Text: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", next.Image)

	_, _, err = Apply(s, Command{Type: CmdSetImage, Round: 3, Text: "late"})
	assert.ErrorIs(t, err, ErrStaleRound)
}

func TestUnsupportedCommand(t *testing.T) {
	_, _, err := Apply(NewRoom("r", DefaultRules()), Command{Type: "Teleport"})
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		prompt, guess string
		want          float64
	}{
		{"A blue coffee cup", "a blue coffee cup", 100},
		{"A blue coffee cup", "A BLUE cup", 75},
		{"A stack of books", "books", 25},
		{"A stack of books", "nothing alike", 0},
		{"", "anything", 0},
		{"The the cat", "cat", 50},
		{"Straße sign", "STRASSE sign", 100},
		{"one two three", "two", 33.33},
	}
	for _, tc := range cases {
		t.Run(tc.prompt+"/"+tc.guess, func(t *testing.T) {
			assert.InDelta(t, tc.want, Similarity(tc.prompt, tc.guess), 0.001)
		})
	}
}

func TestPoints(t *testing.T) {
	d := 30 * time.Second
	assert.Equal(t, 1000, Points(100, 0, d))
	assert.Equal(t, 500, Points(50, 10*time.Second, d))
	assert.Equal(t, 0, Points(-1, 0, d))
	// at 90% of the round the modifier is 0.6
	assert.Equal(t, 600, Points(100, 27*time.Second, d))
	// past the end it bottoms out at 0.5
	assert.Equal(t, 500, Points(100, time.Minute, d))
}

func TestHint(t *testing.T) {
	assert.Equal(t, "4 words", Hint("A blue coffee cup"))
	assert.Equal(t, "1 word", Hint("minecraft"))
	assert.Equal(t, "", Hint(""))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/DoyleJ11/promptparty/internal/client"
	"github.com/DoyleJ11/promptparty/internal/session"
)

var errQuit = errors.New("quit")

// terminal prints what the client reports. It only remembers enough to
// print changes instead of every state.
type terminal struct {
	mu   sync.Mutex
	out  io.Writer
	last session.State
}

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *terminal) OnState(s session.State) {
	t.mu.Lock()
	prev := t.last
	t.last = s
	t.mu.Unlock()

	if s.Phase != prev.Phase {
		t.printf("phase: %s", s.Phase)
	}
	if s.Round != prev.Round && s.Round > 0 {
		t.printf("round %d/%d, %ds, hint: %s", s.Round, s.TotalRounds, s.TimeLeft, s.PromptHint)
	}
	if s.CurrentImage != prev.CurrentImage && s.CurrentImage != "" {
		t.printf("image updated (%d bytes)", len(s.CurrentImage))
	}
	if len(s.ChatLog) > len(prev.ChatLog) {
		for _, g := range s.ChatLog[len(prev.ChatLog):] {
			t.printf("%s: %s", g.Player, g.Message)
		}
	}
	if s.LastSimilarity != prev.LastSimilarity && s.LastSimilarity > 0 {
		t.printf("your last guess: %.2f%%", s.LastSimilarity)
	}
	if s.Countdown != prev.Countdown && s.Countdown > 0 && s.Countdown%10 == 0 {
		t.printf("%ds left", s.Countdown)
	}
	if s.Phase == session.PhasePostRound && prev.Phase != session.PhasePostRound {
		t.printf("answer: %q, winner: %s", s.CorrectPrompt, orNone(s.RoundWinner))
		t.printScores(s)
	}
}

func (t *terminal) OnNavigate(r session.Route) {
	t.printf("-> %s", r)
}

func (t *terminal) OnAlert(message string) {
	t.printf("!! %s", message)
}

func (t *terminal) printScores(s session.State) {
	for _, p := range s.Players {
		host := ""
		if p.IsHost {
			host = " (host)"
		}
		t.printf("  %-16s %6d%s", p.Name, p.Score, host)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func handleLine(ctx context.Context, c *client.Client, ui *terminal, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		c.Guess(line)
		return nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/create":
		if len(fields) != 2 {
			ui.printf("usage: /create NAME")
			return nil
		}
		room, err := c.CreateAndConnect(ctx, fields[1])
		if err != nil {
			ui.printf("!! could not create room: %v", err)
			return nil
		}
		ui.printf("room %s", room)
	case "/join":
		if len(fields) != 3 {
			ui.printf("usage: /join ROOM NAME")
			return nil
		}
		c.Connect(fields[1], fields[2])
	case "/start":
		if v, err := c.View(); err == nil && !v.State.IsHost() {
			ui.printf("only the host can start the game")
			return nil
		}
		c.StartGame()
	case "/leave":
		c.Disconnect()
	case "/state":
		v, err := c.View()
		if err != nil {
			return err
		}
		s := v.State
		ui.printf("conn=%s room=%s player=%s phase=%s round=%d/%d left=%ds", v.Conn, orNone(s.RoomID), s.PlayerName, s.Phase, s.Round, s.TotalRounds, s.Countdown)
		ui.printScores(s)
	case "/quit":
		return errQuit
	default:
		ui.printf("unknown command %s", fields[0])
	}
	return nil
}

package lobby

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"math"

	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/engine"
	"github.com/DoyleJ11/promptparty/pkg/types"
)

// emit turns engine events into frames and schedules the timers they imply.
func (l *Lobby) emit(events []engine.Event) {
	rosterChanged := false
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPlayerJoined:
			l.send(ev.Player, l.frame(types.KindJoinSuccess, l.snapshot()))
			rosterChanged = true

		case engine.EvtPlayerLeft, engine.EvtHostChanged, engine.EvtScoreChanged:
			rosterChanged = true

		case engine.EvtGameStarted:
			l.broadcast(l.frame(types.KindGameStarting, types.Snapshot{RoomID: &l.state.RoomID}))

		case engine.EvtRoundStarted:
			l.stopTimers()
			l.roundStart = l.clock.Now()
			l.broadcast(l.frame(types.KindNewTurn, types.NewTurnPayload{
				Round:       l.state.Round,
				TotalRounds: l.state.Rules.TotalRounds,
				TimeLeft:    l.timeLeft(),
				PromptHint:  engine.Hint(l.state.Prompt),
			}))
			rosterChanged = true
			l.after(l.state.Rules.RoundDuration, roundTimeout{round: l.state.Round})
			l.after(l.opts.ImageDelay, imageReady{round: l.state.Round})

		case engine.EvtImageChanged:
			img := l.state.Image
			l.broadcast(l.frame(types.KindImageUpdate, types.ImageUpdatePayload{ImageBase64: &img}))

		case engine.EvtGuessMade:
			l.broadcast(l.frame(types.KindNewGuess, types.GuessPayload{Player: ev.Player, Message: ev.Text}))
			l.send(ev.Player, l.frame(types.KindGuessFeedback, types.GuessFeedbackPayload{Similarity: ev.Similarity}))

		case engine.EvtRoundEnded:
			l.stopTimers()
			p := types.RoundEndPayload{
				CorrectPrompt:  l.state.Prompt,
				RoundEndReason: &l.state.EndReason,
				Scores:         make([]types.ScoreEntry, 0, len(l.state.Players)),
			}
			if l.state.Winner != "" {
				p.RoundWinner = &l.state.Winner
			}
			for _, pl := range l.state.Players {
				p.Scores = append(p.Scores, types.ScoreEntry{Name: pl.Name, Score: pl.Score})
			}
			l.broadcast(l.frame(types.KindRoundEnd, p))
			l.after(l.opts.PostRoundDelay, nextRound{round: l.state.Round})

		case engine.EvtGameCompleted:
			l.stopTimers()
			l.log.Info("game completed")
			l.broadcast(l.frame(types.KindGameStateUpdate, l.snapshot()))
		}
	}
	if rosterChanged {
		l.broadcast(l.frame(types.KindPlayerUpdate, types.PlayerUpdatePayload{Players: l.players()}))
	}
}

func (l *Lobby) frame(kind types.Kind, payload any) []byte {
	b, err := types.Encode(kind, payload)
	if err != nil {
		l.log.Error("encode frame", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}
	return b
}

func (l *Lobby) players() []types.Player {
	out := make([]types.Player, 0, len(l.state.Players))
	for _, p := range l.state.Players {
		out = append(out, types.Player{Name: p.Name, Score: p.Score, IsHost: p.IsHost})
	}
	return out
}

// snapshot is the full room view sent on join and when a game completes.
func (l *Lobby) snapshot() types.Snapshot {
	s := l.state
	players := l.players()
	phase := string(s.Phase)
	round, total, left := s.Round, s.Rules.TotalRounds, l.timeLeft()
	hint, image := engine.Hint(s.Prompt), s.Image

	snap := types.Snapshot{
		RoomID:          &s.RoomID,
		Players:         &players,
		GameState:       &phase,
		CurrentRound:    &round,
		TotalRounds:     &total,
		TimeLeft:        &left,
		PromptHint:      &hint,
		CurrentImageB64: &image,
	}
	if s.Phase == engine.PhasePostRound {
		prompt := s.Prompt
		snap.CorrectPrompt = &prompt
	}
	return snap
}

// timeLeft is the whole seconds remaining in the current round.
func (l *Lobby) timeLeft() int {
	if l.state.Phase != engine.PhaseInGame {
		return 0
	}
	left := l.state.Rules.RoundDuration - l.clock.Since(l.roundStart)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// placeholderImage stands in for a generated picture: a flat SVG whose
// colour is derived from the prompt.
func placeholderImage(prompt string, round int) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	sum := h.Sum32()
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="256" height="256">`+
			`<rect width="256" height="256" fill="#%06x"/>`+
			`<text x="128" y="140" font-size="48" text-anchor="middle" fill="#fff">%d</text></svg>`,
		sum&0xffffff, round)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}


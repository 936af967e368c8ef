package router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/promptparty/internal/session"
	"github.com/DoyleJ11/promptparty/pkg/types"
)

var ErrMalformedFrame = errors.New("malformed frame")
var ErrUnknownKind = errors.New("unknown message kind")

// Decode parses one text frame into a session message.
func Decode(frame []byte) (session.Message, error) {
	var env types.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	switch env.Type {
	case types.KindJoinSuccess:
		var p types.Snapshot
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		patch := fromSnapshot(p)
		room := ""
		if patch.RoomID != nil {
			room = *patch.RoomID
		}
		return session.JoinAccepted{RoomID: room, Snapshot: patch}, nil

	case types.KindGameStateUpdate:
		var p types.Snapshot
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.StateSynced{Snapshot: fromSnapshot(p)}, nil

	case types.KindPlayerUpdate:
		var p types.PlayerUpdatePayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.RosterUpdated{Players: fromPlayers(p.Players)}, nil

	case types.KindGameStarting, types.KindGameStarted:
		var p types.Snapshot
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.GameStarting{Snapshot: fromSnapshot(p)}, nil

	case types.KindNewTurn:
		var p types.NewTurnPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.RoundStarted{
			Round:       p.Round,
			TotalRounds: p.TotalRounds,
			TimeLeft:    p.TimeLeft,
			PromptHint:  p.PromptHint,
			Image:       deref(p.ImageBase64),
		}, nil

	case types.KindImageUpdate:
		var p types.ImageUpdatePayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.ImageUpdated{Image: deref(p.ImageBase64)}, nil

	case types.KindNewGuess:
		var p types.GuessPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.GuessReceived{Record: session.GuessRecord{Player: p.Player, Message: p.Message}}, nil

	case types.KindRoundEnd:
		var p types.RoundEndPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		scores := make([]session.Player, 0, len(p.Scores))
		for _, sc := range p.Scores {
			scores = append(scores, session.Player{Name: sc.Name, Score: sc.Score})
		}
		return session.RoundEnded{
			CorrectPrompt: p.CorrectPrompt,
			Winner:        deref(p.RoundWinner),
			Reason:        deref(p.RoundEndReason),
			Scores:        scores,
		}, nil

	case types.KindGuessFeedback:
		var p types.GuessFeedbackPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return session.GuessFeedback{Similarity: p.Similarity}, nil

	case types.KindError:
		var p types.ErrorPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		msg := p.Message
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "unknown server error"
		}
		return session.ServerError{Message: msg}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

func unmarshalPayload(env types.Envelope, into any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Payload, into); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
	}
	return nil
}

func fromSnapshot(s types.Snapshot) session.Patch {
	p := session.Patch{
		RoomID:        s.RoomID,
		Round:         s.CurrentRound,
		TotalRounds:   s.TotalRounds,
		TimeLeft:      s.TimeLeft,
		PromptHint:    s.PromptHint,
		CurrentImage:  s.CurrentImageB64,
		CorrectPrompt: s.CorrectPrompt,
	}
	if s.Players != nil {
		players := fromPlayers(*s.Players)
		p.Players = &players
	}
	if s.GameState != nil {
		if phase, ok := session.ParsePhase(*s.GameState); ok {
			p.Phase = &phase
		}
	}
	return p
}

func fromPlayers(in []types.Player) []session.Player {
	out := make([]session.Player, 0, len(in))
	for _, p := range in {
		out = append(out, session.Player{Name: p.Name, Score: max(p.Score, 0), IsHost: p.IsHost})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func kindOf(frame []byte) string {
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(frame, &env)
	return env.Type
}

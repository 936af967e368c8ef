package engine

import (
	"errors"
	"slices"
	"time"
)

var ErrRoomFull = errors.New("room_full")
var ErrNameTaken = errors.New("name_taken")
var ErrMissingName = errors.New("missing player name")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrNotHost = errors.New("only the host can start the game")
var ErrWrongPhase = errors.New("command not allowed in this phase")
var ErrEmptyGuess = errors.New("empty guess")
var ErrStaleRound = errors.New("stale round")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseInGame    Phase = "IN_GAME"
	PhasePostRound Phase = "POST_ROUND"
)

const (
	ReasonGuessed = "guessed"
	ReasonTimeout = "timeout"
)

type Player struct {
	Name   string
	Score  int
	IsHost bool

	// best result this round
	RoundBest   float64
	RoundPoints int
}

type Rules struct {
	MaxPlayers    int
	TotalRounds   int
	RoundDuration time.Duration
}

type State struct {
	RoomID  string
	Phase   Phase
	Players []Player
	Round   int
	Prompt  string
	Image   string

	Winner    string
	EndReason string

	Rules Rules
}

type CommandType string

const (
	CmdJoin         CommandType = "Join"
	CmdLeave        CommandType = "Leave"
	CmdStartGame    CommandType = "StartGame"
	CmdGuess        CommandType = "Guess"
	CmdSetImage     CommandType = "SetImage"
	CmdRoundTimeout CommandType = "RoundTimeout"
	CmdNextRound    CommandType = "NextRound"
)

/*
	CmdJoin         -> EvtPlayerJoined
	CmdLeave        -> EvtPlayerLeft [-> EvtHostChanged]
	CmdStartGame    -> EvtGameStarted -> EvtRoundStarted
	CmdGuess        -> EvtGuessMade [-> EvtScoreChanged] [-> EvtRoundEnded]
	CmdSetImage     -> EvtImageChanged
	CmdRoundTimeout -> EvtRoundEnded
	CmdNextRound    -> EvtRoundStarted or EvtGameCompleted
*/

// Command is one input to a room. Prompt is chosen by the caller so Apply
// stays deterministic; Elapsed is the time since the round started.
type Command struct {
	Type    CommandType
	Player  string
	Text    string
	Prompt  string
	Round   int
	Elapsed time.Duration
}

type EventType string

const (
	EvtPlayerJoined  EventType = "PlayerJoined"
	EvtPlayerLeft    EventType = "PlayerLeft"
	EvtHostChanged   EventType = "HostChanged"
	EvtGameStarted   EventType = "GameStarted"
	EvtRoundStarted  EventType = "RoundStarted"
	EvtImageChanged  EventType = "ImageChanged"
	EvtGuessMade     EventType = "GuessMade"
	EvtScoreChanged  EventType = "ScoreChanged"
	EvtRoundEnded    EventType = "RoundEnded"
	EvtGameCompleted EventType = "GameCompleted"
)

type Event struct {
	Type       EventType
	Player     string
	Text       string
	Similarity float64
	Round      int
}

// Apply validates cmd against s and returns the resulting events and state.
// On error the returned state is s.
func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s
	newState.Players = slices.Clone(s.Players)

	switch cmd.Type {
	case CmdJoin:
		if cmd.Player == "" {
			return nil, s, ErrMissingName
		}
		if len(s.Players) >= s.Rules.MaxPlayers {
			return nil, s, ErrRoomFull
		}
		if playerIndex(s, cmd.Player) >= 0 {
			return nil, s, ErrNameTaken
		}
		newState.Players = append(newState.Players, Player{
			Name:   cmd.Player,
			IsHost: len(s.Players) == 0,
		})
		return []Event{{Type: EvtPlayerJoined, Player: cmd.Player}}, newState, nil

	case CmdLeave:
		i := playerIndex(s, cmd.Player)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		wasHost := newState.Players[i].IsHost
		newState.Players = slices.Delete(newState.Players, i, i+1)

		events := []Event{{Type: EvtPlayerLeft, Player: cmd.Player}}
		if wasHost && len(newState.Players) > 0 {
			newState.Players[0].IsHost = true
			events = append(events, Event{Type: EvtHostChanged, Player: newState.Players[0].Name})
		}
		if len(newState.Players) == 0 {
			newState = resetToLobby(newState)
		}
		return events, newState, nil

	case CmdStartGame:
		i := playerIndex(s, cmd.Player)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Players[i].IsHost {
			return nil, s, ErrNotHost
		}
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		for j := range newState.Players {
			newState.Players[j].Score = 0
		}
		newState.Round = 0
		newState = startRound(newState, cmd.Prompt)
		return []Event{
			{Type: EvtGameStarted},
			{Type: EvtRoundStarted, Round: newState.Round},
		}, newState, nil

	case CmdSetImage:
		if s.Phase != PhaseInGame {
			return nil, s, ErrWrongPhase
		}
		if cmd.Round != s.Round {
			return nil, s, ErrStaleRound
		}
		newState.Image = cmd.Text
		return []Event{{Type: EvtImageChanged, Round: s.Round}}, newState, nil

	case CmdGuess:
		i := playerIndex(s, cmd.Player)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		if s.Phase != PhaseInGame {
			return nil, s, ErrWrongPhase
		}
		if cmd.Text == "" {
			return nil, s, ErrEmptyGuess
		}

		sim := Similarity(s.Prompt, cmd.Text)
		events := []Event{{Type: EvtGuessMade, Player: cmd.Player, Text: cmd.Text, Similarity: sim}}

		p := &newState.Players[i]
		improved := false
		if sim > p.RoundBest {
			p.RoundBest = sim
			improved = true
		}
		if pts := Points(sim, cmd.Elapsed, s.Rules.RoundDuration); pts > p.RoundPoints {
			p.Score += pts - p.RoundPoints
			p.RoundPoints = pts
			improved = true
		}
		if improved {
			events = append(events, Event{Type: EvtScoreChanged, Player: cmd.Player})
		}

		if sim >= 100 {
			newState = endRound(newState, cmd.Player, ReasonGuessed)
			events = append(events, Event{Type: EvtRoundEnded, Player: cmd.Player, Round: s.Round})
		}
		return events, newState, nil

	case CmdRoundTimeout:
		if s.Phase != PhaseInGame {
			return nil, s, ErrWrongPhase
		}
		if cmd.Round != s.Round {
			return nil, s, ErrStaleRound
		}
		winner := leader(newState.Players)
		newState = endRound(newState, winner, ReasonTimeout)
		return []Event{{Type: EvtRoundEnded, Player: winner, Round: s.Round}}, newState, nil

	case CmdNextRound:
		if s.Phase != PhasePostRound {
			return nil, s, ErrWrongPhase
		}
		if cmd.Round != s.Round {
			return nil, s, ErrStaleRound
		}
		if s.Round >= s.Rules.TotalRounds {
			newState = resetToLobby(newState)
			return []Event{{Type: EvtGameCompleted, Round: s.Round}}, newState, nil
		}
		newState = startRound(newState, cmd.Prompt)
		return []Event{{Type: EvtRoundStarted, Round: newState.Round}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func startRound(s State, prompt string) State {
	s.Phase = PhaseInGame
	s.Round++
	s.Prompt = prompt
	s.Image = ""
	s.Winner = ""
	s.EndReason = ""
	for i := range s.Players {
		s.Players[i].RoundBest = 0
		s.Players[i].RoundPoints = 0
	}
	return s
}

func endRound(s State, winner, reason string) State {
	s.Phase = PhasePostRound
	s.Winner = winner
	s.EndReason = reason
	return s
}

func resetToLobby(s State) State {
	s.Phase = PhaseLobby
	s.Round = 0
	s.Prompt = ""
	s.Image = ""
	s.Winner = ""
	s.EndReason = ""
	return s
}

func playerIndex(s State, name string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.Name == name })
}

// leader is the player with the best similarity this round, or "" when
// nobody scored.
func leader(players []Player) string {
	best, name := 0.0, ""
	for _, p := range players {
		if p.RoundBest > best {
			best, name = p.RoundBest, p.Name
		}
	}
	return name
}

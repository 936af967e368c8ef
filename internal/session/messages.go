package session

import (
	"slices"

	"github.com/DoyleJ11/promptparty/pkg/types"
)

// Route is a navigation intent for the UI layer.
type Route string

const (
	RouteNone  Route = ""
	RouteHome  Route = "home"
	RouteLobby Route = "lobby"
	RouteGame  Route = "game"
)

type TimerAction int

const (
	TimerKeep TimerAction = iota
	TimerArm
	TimerStop
)

// Effects are the side effects a reducer asks the owner of the state to perform.
type Effects struct {
	Navigate   Route
	Alert      string // user-visible error text
	Disconnect bool
	Timer      TimerAction
	Ignored    string // why the message was dropped, if it was
}

// Message is one decoded server frame. The set is closed: every kind is a
// type in this package and carries its own reducer.
type Message interface {
	Kind() types.Kind
	apply(State) (State, Effects)
}

// Apply runs the reducer for m against s.
func Apply(s State, m Message) (State, Effects) {
	return m.apply(s)
}

// JoinAccepted acknowledges join_room with a room snapshot.
type JoinAccepted struct {
	RoomID   string
	Snapshot Patch
}

// StateSynced is a full snapshot used for resync.
type StateSynced struct {
	Snapshot Patch
}

type RosterUpdated struct {
	Players []Player
}

type GameStarting struct {
	Snapshot Patch
}

type RoundStarted struct {
	Round       int
	TotalRounds int
	TimeLeft    int
	PromptHint  string
	Image       string
}

type ImageUpdated struct {
	Image string
}

type GuessReceived struct {
	Record GuessRecord
}

type RoundEnded struct {
	CorrectPrompt string
	Winner        string
	Reason        string
	Scores        []Player // only Name and Score are meaningful
}

type GuessFeedback struct {
	Similarity float64
}

type ServerError struct {
	Message string
}

func (JoinAccepted) Kind() types.Kind  { return types.KindJoinSuccess }
func (StateSynced) Kind() types.Kind   { return types.KindGameStateUpdate }
func (RosterUpdated) Kind() types.Kind { return types.KindPlayerUpdate }
func (GameStarting) Kind() types.Kind  { return types.KindGameStarting }
func (RoundStarted) Kind() types.Kind  { return types.KindNewTurn }
func (ImageUpdated) Kind() types.Kind  { return types.KindImageUpdate }
func (GuessReceived) Kind() types.Kind { return types.KindNewGuess }
func (RoundEnded) Kind() types.Kind    { return types.KindRoundEnd }
func (GuessFeedback) Kind() types.Kind { return types.KindGuessFeedback }
func (ServerError) Kind() types.Kind   { return types.KindError }

func (m JoinAccepted) apply(s State) (State, Effects) {
	p := m.Snapshot
	p.PlayerName = nil
	p.RoomID = Ptr(m.RoomID)
	next := Reconcile(s, p)
	eff := timerAfterSnapshot(s, next, p)
	eff.Navigate = RouteLobby
	return next, eff
}

func (m StateSynced) apply(s State) (State, Effects) {
	p := m.Snapshot
	p.PlayerName = nil
	next := Reconcile(s, p)
	return next, timerAfterSnapshot(s, next, p)
}

func (m RosterUpdated) apply(s State) (State, Effects) {
	return Reconcile(s, Patch{Players: &m.Players}), Effects{}
}

func (m GameStarting) apply(s State) (State, Effects) {
	p := m.Snapshot
	p.PlayerName = nil
	p.Phase = Ptr(PhaseInGame)
	p.ChatLog = &[]GuessRecord{}
	p.RoundWinner = Ptr("")
	p.CorrectPrompt = Ptr("")
	p.RoundEndReason = Ptr("")
	next := Reconcile(s, p)
	eff := timerAfterSnapshot(s, next, p)
	eff.Navigate = RouteGame
	return next, eff
}

func (m RoundStarted) apply(s State) (State, Effects) {
	next := Reconcile(s, Patch{
		Phase:          Ptr(PhaseInGame),
		Round:          Ptr(m.Round),
		TotalRounds:    Ptr(m.TotalRounds),
		TimeLeft:       Ptr(m.TimeLeft),
		PromptHint:     Ptr(m.PromptHint),
		CurrentImage:   Ptr(m.Image),
		ChatLog:        &[]GuessRecord{},
		RoundWinner:    Ptr(""),
		CorrectPrompt:  Ptr(""),
		RoundEndReason: Ptr(""),
		LastSimilarity: Ptr(0.0),
	})
	return next, Effects{Timer: TimerArm}
}

func (m ImageUpdated) apply(s State) (State, Effects) {
	s.CurrentImage = m.Image
	return s, Effects{}
}

func (m GuessReceived) apply(s State) (State, Effects) {
	s.ChatLog = append(slices.Clip(s.ChatLog), m.Record)
	return s, Effects{}
}

func (m RoundEnded) apply(s State) (State, Effects) {
	if s.Phase == PhaseLobby {
		return s, Effects{Ignored: "round_end outside a round"}
	}
	p := Patch{
		Phase:          Ptr(PhasePostRound),
		CorrectPrompt:  Ptr(m.CorrectPrompt),
		RoundWinner:    Ptr(m.Winner),
		RoundEndReason: Ptr(m.Reason),
	}
	if len(m.Scores) > 0 {
		merged := mergeScores(s.Players, m.Scores)
		p.Players = &merged
	}
	return Reconcile(s, p), Effects{Timer: TimerStop}
}

func (m GuessFeedback) apply(s State) (State, Effects) {
	return Reconcile(s, Patch{LastSimilarity: Ptr(m.Similarity)}), Effects{}
}

func (m ServerError) apply(s State) (State, Effects) {
	return s, Effects{Alert: m.Message, Disconnect: true}
}

// timerAfterSnapshot re-arms the countdown when a snapshot carries a fresh
// timeLeft during a round, and stops it when the phase leaves IN_GAME.
func timerAfterSnapshot(prev, next State, p Patch) Effects {
	switch {
	case next.Phase != PhaseInGame && prev.Phase == PhaseInGame:
		return Effects{Timer: TimerStop}
	case next.Phase == PhaseInGame && p.TimeLeft != nil && *p.TimeLeft > 0:
		return Effects{Timer: TimerArm}
	default:
		return Effects{}
	}
}

// mergeScores applies round scores onto the roster by name. Host flags and
// arrival order are kept; unknown names are appended.
func mergeScores(players, scores []Player) []Player {
	out := slices.Clone(players)
	for _, sc := range scores {
		i := slices.IndexFunc(out, func(p Player) bool { return p.Name == sc.Name })
		if i < 0 {
			out = append(out, Player{Name: sc.Name, Score: max(sc.Score, 0)})
			continue
		}
		out[i].Score = max(sc.Score, 0)
	}
	return out
}

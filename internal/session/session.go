package session

import "slices"

type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseInGame    Phase = "IN_GAME"
	PhasePostRound Phase = "POST_ROUND"
)

// ParsePhase maps a wire phase name to a Phase.
func ParsePhase(s string) (Phase, bool) {
	switch Phase(s) {
	case PhaseLobby, PhaseInGame, PhasePostRound:
		return Phase(s), true
	default:
		return "", false
	}
}

type Player struct {
	Name   string
	Score  int
	IsHost bool
}

type GuessRecord struct {
	Player  string
	Message string
}

// State is the client's view of one room session. Empty strings stand for
// absent values (RoomID before the join is acknowledged, CurrentImage before
// the first frame of a round, and the round resolution fields outside
// POST_ROUND).
type State struct {
	PlayerName string
	RoomID     string
	Players    []Player
	Phase      Phase

	Round       int
	TotalRounds int
	TimeLeft    int // last authoritative value, seconds
	Countdown   int // local display value, never above TimeLeft

	PromptHint   string
	CurrentImage string

	ChatLog []GuessRecord

	RoundWinner    string
	CorrectPrompt  string
	RoundEndReason string

	LastSimilarity float64
}

// Unconnected is the shape of a session with no room.
func Unconnected() State {
	return State{Phase: PhaseLobby}
}

// New returns the unconnected shape carrying the local player name.
func New(playerName string) State {
	s := Unconnected()
	s.PlayerName = playerName
	return s
}

// Joined reports whether the server has acknowledged a join.
func (s State) Joined() bool { return s.RoomID != "" }

// Self returns the local player's roster entry.
func (s State) Self() (Player, bool) {
	i := slices.IndexFunc(s.Players, func(p Player) bool { return p.Name == s.PlayerName })
	if i < 0 {
		return Player{}, false
	}
	return s.Players[i], true
}

// IsHost reports whether the local player may start the game.
func (s State) IsHost() bool {
	p, ok := s.Self()
	return ok && p.IsHost
}

// Tick advances the local countdown by one second, clamped at zero.
func (s State) Tick() State {
	if s.Countdown > s.TimeLeft {
		s.Countdown = s.TimeLeft
	}
	if s.Countdown > 0 {
		s.Countdown--
	}
	return s
}

package types

import "encoding/json"

// Kind is the "type" tag of a protocol frame.
type Kind string

// Client -> Server
const (
	KindJoinRoom  Kind = "join_room"
	KindStartGame Kind = "start_game"
	KindNewGuess  Kind = "new_guess"
)

// Server -> Client
//
// new_guess is shared: the client sends {guess}, the server broadcasts {player, message}.
const (
	KindJoinSuccess     Kind = "join_success"
	KindGameStateUpdate Kind = "game_state_update"
	KindPlayerUpdate    Kind = "player_update"
	KindGameStarting    Kind = "game_starting"
	KindGameStarted     Kind = "game_started" // older servers
	KindNewTurn         Kind = "new_turn"
	KindImageUpdate     Kind = "image_update"
	KindRoundEnd        Kind = "round_end"
	KindGuessFeedback   Kind = "guess_feedback"
	KindError           Kind = "error"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// Message is only set by servers that put error text at the top level.
	Message string `json:"message,omitempty"`
}

// Encode builds a frame for kind with payload. A nil payload encodes as {}.
func Encode(kind Kind, payload any) ([]byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: kind, Payload: raw})
}

type JoinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type StartGamePayload struct{}

type NewGuessPayload struct {
	Guess string `json:"guess"`
}

type Player struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

type PlayerUpdatePayload struct {
	Players []Player `json:"players"`
}

type NewTurnPayload struct {
	Round       int     `json:"round"`
	TotalRounds int     `json:"totalRounds"`
	TimeLeft    int     `json:"timeLeft"`
	PromptHint  string  `json:"promptHint"`
	ImageBase64 *string `json:"imageBase64"`
}

type ImageUpdatePayload struct {
	ImageBase64 *string `json:"imageBase64"`
}

type GuessPayload struct {
	Player  string `json:"player"`
	Message string `json:"message"`
}

type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoundEndPayload struct {
	CorrectPrompt  string       `json:"correctPrompt"`
	RoundWinner    *string      `json:"roundWinner,omitempty"`
	RoundEndReason *string      `json:"roundEndReason,omitempty"`
	Scores         []ScoreEntry `json:"scores,omitempty"`
}

type GuessFeedbackPayload struct {
	Similarity float64 `json:"similarity"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// CreateRoomResponse is the body of POST /api/rooms.
type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
}

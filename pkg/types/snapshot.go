package types

// Snapshot is the room state sent on join_success and game_state_update,
// and optionally on game_starting. Every field is optional so that a
// partial snapshot only touches what it carries.
type Snapshot struct {
	RoomID          *string   `json:"roomId,omitempty"`
	Players         *[]Player `json:"players,omitempty"`
	GameState       *string   `json:"gameState,omitempty"` // "LOBBY" | "IN_GAME" | "POST_ROUND"
	CurrentRound    *int      `json:"currentRound,omitempty"`
	TotalRounds     *int      `json:"totalRounds,omitempty"`
	TimeLeft        *int      `json:"timeLeft,omitempty"`
	PromptHint      *string   `json:"promptHint,omitempty"`
	CurrentImageB64 *string   `json:"currentImageB64,omitempty"`
	CorrectPrompt   *string   `json:"correctPrompt,omitempty"`
}

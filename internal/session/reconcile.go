package session

import "slices"

// Patch is a partial update. Nil fields leave the previous value in place.
type Patch struct {
	PlayerName *string
	RoomID     *string
	Players    *[]Player
	Phase      *Phase

	Round       *int
	TotalRounds *int
	TimeLeft    *int

	PromptHint   *string
	CurrentImage *string

	ChatLog *[]GuessRecord

	RoundWinner    *string
	CorrectPrompt  *string
	RoundEndReason *string

	LastSimilarity *float64
}

// Reconcile merges patch into prev and returns the next state. An empty
// player name never replaces a set one; slices are copied so the result
// never aliases the patch.
func Reconcile(prev State, patch Patch) State {
	next := prev

	if patch.PlayerName != nil && *patch.PlayerName != "" {
		next.PlayerName = *patch.PlayerName
	}
	if patch.RoomID != nil && *patch.RoomID != "" {
		next.RoomID = *patch.RoomID
	}
	if patch.Players != nil {
		next.Players = slices.Clone(*patch.Players)
	}
	if patch.Phase != nil {
		next.Phase = *patch.Phase
	}
	if patch.Round != nil {
		next.Round = nonNegative(*patch.Round)
	}
	if patch.TotalRounds != nil {
		next.TotalRounds = nonNegative(*patch.TotalRounds)
	}
	if patch.TimeLeft != nil {
		next.TimeLeft = nonNegative(*patch.TimeLeft)
		next.Countdown = next.TimeLeft
	}
	if patch.PromptHint != nil {
		next.PromptHint = *patch.PromptHint
	}
	if patch.CurrentImage != nil {
		next.CurrentImage = *patch.CurrentImage
	}
	if patch.ChatLog != nil {
		next.ChatLog = slices.Clone(*patch.ChatLog)
	}
	if patch.RoundWinner != nil {
		next.RoundWinner = *patch.RoundWinner
	}
	if patch.CorrectPrompt != nil {
		next.CorrectPrompt = *patch.CorrectPrompt
	}
	if patch.RoundEndReason != nil {
		next.RoundEndReason = *patch.RoundEndReason
	}
	if patch.LastSimilarity != nil {
		next.LastSimilarity = clampSimilarity(*patch.LastSimilarity)
	}
	return next
}

func nonNegative(n int) int {
	return max(n, 0)
}

func clampSimilarity(v float64) float64 {
	return min(max(v, 0), 100)
}

// Ptr is a convenience for building patches.
func Ptr[T any](v T) *T { return &v }

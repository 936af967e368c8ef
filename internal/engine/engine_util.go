package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
)

const PointsForCorrectGuess = 1000

func NewRoom(roomID string, rules Rules) State {
	return State{
		RoomID: roomID,
		Phase:  PhaseLobby,
		Rules:  rules,
	}
}

func DefaultRules() Rules {
	return Rules{MaxPlayers: 12, TotalRounds: 10, RoundDuration: 30 * time.Second}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Hint describes a prompt without giving it away.
func Hint(prompt string) string {
	n := len(strings.Fields(prompt))
	if n == 0 {
		return ""
	}
	if n == 1 {
		return "1 word"
	}
	return fmt.Sprintf("%d words", n)
}

// Similarity is the share of distinct prompt words present in guess, as a
// percentage rounded to two decimals. Comparison is case-folded.
func Similarity(prompt, guess string) float64 {
	want := words(prompt)
	if len(want) == 0 {
		return 0
	}
	got := make(map[string]bool)
	for _, w := range words(guess) {
		got[w] = true
	}

	seen := make(map[string]bool, len(want))
	hit, total := 0, 0
	for _, w := range want {
		if seen[w] {
			continue
		}
		seen[w] = true
		total++
		if got[w] {
			hit++
		}
	}
	return math.Round(float64(hit)/float64(total)*10000) / 100
}

func words(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Points scores a guess. Full marks scale with similarity; guesses in the
// last fifth of the round are worth progressively less.
func Points(similarity float64, elapsed, roundDuration time.Duration) int {
	if similarity <= 0 {
		return 0
	}
	base := int(PointsForCorrectGuess * similarity / 100)
	if roundDuration <= 0 {
		return base
	}
	progress := min(1.0, float64(elapsed)/float64(roundDuration))
	modifier := 1.0
	if progress > 0.8 {
		modifier = 1.5 - progress
	}
	return int(float64(base) * modifier)
}

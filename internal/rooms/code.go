package rooms

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// Alphabet omits characters that are easily confused when typed from a
	// shared screen (I, O, 0, 1).
	Alphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 6
)

// NewCode draws a room code from rng.
func NewCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(Alphabet[rng.Intn(len(Alphabet))])
	}
	return b.String()
}

// Normalize upper-cases and trims a user supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the fixed length and only alphabet characters.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// ChannelName maps a game and room code to the pub/sub channel name.
func ChannelName(game, code string) string {
	return fmt.Sprintf("%s-%s", game, Normalize(code))
}

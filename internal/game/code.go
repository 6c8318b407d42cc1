package game

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	RoomCodeLength = 8
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	MinNameLength  = 2
	MaxNameLength  = 20
	MaxChatLength  = 200
	maxCodeRetries = 100
)

var (
	roomCodeRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	nameRe     = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
	spacesRe   = regexp.MustCompile(`\s+`)
)

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// NormalizeRoomCode upper-cases and validates a client supplied code.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !roomCodeRe.MatchString(code) {
		return "", ErrInvalidRoomCode
	}
	return code, nil
}

// NormalizeName trims and collapses whitespace, then checks length and
// charset.
func NormalizeName(name string) (string, error) {
	name = spacesRe.ReplaceAllString(strings.TrimSpace(name), " ")
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return "", fmt.Errorf("%w: must be %d-%d characters", ErrInvalidName, MinNameLength, MaxNameLength)
	}
	if !nameRe.MatchString(name) {
		return "", fmt.Errorf("%w: only letters, digits and spaces are allowed", ErrInvalidName)
	}
	return name, nil
}

// SanitizeChat trims the message and cuts it to MaxChatLength runes.
func SanitizeChat(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxChatLength {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:MaxChatLength]))
}

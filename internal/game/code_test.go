package game

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRandomCode(t *testing.T) {
	seen := map[string]bool{}
	for range 200 {
		code := randomCode(RoomCodeLength)
		if _, err := NormalizeRoomCode(code); err != nil {
			t.Fatalf("generated code %q should be valid: %v", code, err)
		}
		if strings.ContainsAny(code, "IO01") {
			t.Fatalf("code %q contains an ambiguous character", code)
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("codes should rarely collide, got %d unique of 200", len(seen))
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	got, err := NormalizeRoomCode(" abcd2345 ")
	if err != nil || got != "ABCD2345" {
		t.Fatalf("expected ABCD2345, got %q %v", got, err)
	}
	for _, bad := range []string{"", "ABC", "ABCD23456", "ABCD-234"} {
		if _, err := NormalizeRoomCode(bad); !errors.Is(err, ErrInvalidRoomCode) {
			t.Fatalf("%q: expected ErrInvalidRoomCode, got %v", bad, err)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	got, err := NormalizeName("  Big   Tony ")
	if err != nil || got != "Big Tony" {
		t.Fatalf("expected %q, got %q %v", "Big Tony", got, err)
	}
	for _, bad := range []string{"", "a", strings.Repeat("x", 21), "Tony_", "Zoë"} {
		if _, err := NormalizeName(bad); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("%q: expected ErrInvalidName, got %v", bad, err)
		}
	}
}

func TestSanitizeChat(t *testing.T) {
	if got := SanitizeChat("  hi  "); got != "hi" {
		t.Fatalf("expected trimmed message, got %q", got)
	}
	long := strings.Repeat("é", 300)
	if got := SanitizeChat(long); utf8.RuneCountInString(got) != MaxChatLength {
		t.Fatalf("expected %d runes, got %d", MaxChatLength, utf8.RuneCountInString(got))
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(ErrNameTaken); got != "name_taken" {
		t.Fatalf("expected name_taken, got %s", got)
	}
	wrapped := NewErrorMessage(errors.Join(errors.New("context"), ErrRoomClosed))
	if wrapped.Code != "room_not_found" {
		t.Fatalf("closed rooms should look missing, got %s", wrapped.Code)
	}
	if got := ErrorCode(errors.New("boom")); got != "internal" {
		t.Fatalf("expected internal, got %s", got)
	}
}

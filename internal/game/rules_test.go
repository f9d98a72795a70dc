package game

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidScoreBounds(t *testing.T) {
	for _, s := range []int{0, 1, 50, 100} {
		if !ValidScore(s) {
			t.Fatalf("ValidScore(%d) = false, want true", s)
		}
	}
	for _, s := range []int{-1, 101, 1000} {
		if ValidScore(s) {
			t.Fatalf("ValidScore(%d) = true, want false", s)
		}
	}
	if ClampScore(-5) != 0 || ClampScore(101) != 100 || ClampScore(42) != 42 {
		t.Fatal("ClampScore did not clamp into [0,100]")
	}
}

func TestValidUsername(t *testing.T) {
	good := []string{"abc", "player_01", strings.Repeat("a", 20)}
	bad := []string{"ab", strings.Repeat("a", 21), "bad name", "semi;colon", ""}
	for _, n := range good {
		if !ValidUsername(n) {
			t.Fatalf("ValidUsername(%q) = false", n)
		}
	}
	for _, n := range bad {
		if ValidUsername(n) {
			t.Fatalf("ValidUsername(%q) = true", n)
		}
	}
}

func TestValidCredential(t *testing.T) {
	if !ValidCredential(strings.Repeat("ab", 32)) {
		t.Fatal("expected 64 hex chars to be accepted")
	}
	if ValidCredential("plaintext") || ValidCredential(strings.Repeat("z", 64)) {
		t.Fatal("expected non-digest credential to be rejected")
	}
}

func TestNormalizeChat(t *testing.T) {
	if got := NormalizeChat("   "); got != "" {
		t.Fatalf("blank chat = %q, want empty", got)
	}
	long := strings.Repeat("稻", 600)
	got := NormalizeChat(long)
	if n := utf8.RuneCountInString(got); n != MaxChatRunes {
		t.Fatalf("truncated chat has %d runes, want %d", n, MaxChatRunes)
	}
}

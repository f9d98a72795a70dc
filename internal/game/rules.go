package game

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinScore = 0
	MaxScore = 100

	MaxChatRunes = 500
)

var (
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	credentialPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// ValidScore reports whether a reported score may be stored as-is.
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// ClampScore forces a score into the accepted range.
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// ValidCredential accepts the hex SHA-256 digest clients send instead of the
// raw password.
func ValidCredential(credential string) bool {
	return credentialPattern.MatchString(credential)
}

// NormalizeChat trims a chat line and cuts it to MaxChatRunes. An empty
// result means the message should be dropped.
func NormalizeChat(msg string) string {
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) <= MaxChatRunes {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxChatRunes])
}

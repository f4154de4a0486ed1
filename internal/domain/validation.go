package domain

import (
	"regexp"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)
	// Почта: без RFC-фанатизма, ловим очевидный мусор; остальное решает БД (unique)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

func ValidEmail(s string) bool {
	return len(s) <= 254 && emailRe.MatchString(s)
}

func ValidPassword(s string) bool {
	return len(s) >= 8
}

// ValidTitle — заголовок фида обязателен и непуст после trim.
func ValidTitle(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ValidCommentBody — тело комментария непусто после trim.
func ValidCommentBody(s string) bool {
	return strings.TrimSpace(s) != ""
}

// NormalizeUsername приводит логин к канонической форме хранения.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

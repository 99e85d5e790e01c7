package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// trivialPasswords are rejected outright when RejectVeryWeak is set.
var trivialPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"qwerty":      {},
	"qwerty123":   {},
	"letmein":     {},
	"welcome1":    {},
	"realestate":  {},
	"realestate1": {},
	"estate123":   {},
	"property1":   {},
}

// Validate applies the policy to a newly chosen password. Length counts runes.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	case c.Policy.RejectVeryWeak && looksVeryWeak(password):
		return ErrWeakPassword
	}
	return nil
}

// looksVeryWeak catches only the obvious cases: a single repeated character,
// short all-digit PINs, keyboard-order runs and a small blocklist.
func looksVeryWeak(pw string) bool {
	s := strings.ToLower(strings.TrimSpace(pw))
	if s == "" {
		return true
	}
	if _, ok := trivialPasswords[s]; ok {
		return true
	}

	runes := []rune(s)
	if len(runes) < 12 && allRunes(runes, unicode.IsDigit) {
		return true
	}
	return repeatsOneRune(runes) || isStraightRun(runes)
}

func allRunes(rs []rune, pred func(rune) bool) bool {
	for _, r := range rs {
		if !pred(r) {
			return false
		}
	}
	return true
}

func repeatsOneRune(rs []rune) bool {
	for _, r := range rs[1:] {
		if r != rs[0] {
			return false
		}
	}
	return true
}

// isStraightRun matches ascending or descending sequences such as
// "12345678" or "hgfedcba".
func isStraightRun(rs []rune) bool {
	if len(rs) < 3 {
		return false
	}
	step := rs[1] - rs[0]
	if step != 1 && step != -1 {
		return false
	}
	for i := 2; i < len(rs); i++ {
		if rs[i]-rs[i-1] != step {
			return false
		}
	}
	return true
}

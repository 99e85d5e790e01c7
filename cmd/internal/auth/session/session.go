package session

import (
	"fmt"
	"time"

	"estate/cmd/identity"
)

// Via records which path authenticated a session.
type Via uint8

const (
	ViaUnknown Via = iota
	// ViaCredential is an email + password login.
	ViaCredential
	// ViaToken is a silent resume from a remember-me secret.
	ViaToken
)

func (v Via) String() string {
	switch v {
	case ViaCredential:
		return "credential"
	case ViaToken:
		return "token"
	default:
		return "unknown"
	}
}

// ParseVia is the inverse of Via.String.
func ParseVia(s string) (Via, error) {
	switch s {
	case "credential":
		return ViaCredential, nil
	case "token":
		return ViaToken, nil
	default:
		return ViaUnknown, fmt.Errorf("session: unknown via %q", s)
	}
}

// Session is the authenticated identity visible to the rest of the application.
// Callers branch on Role; it never carries secrets.
type Session struct {
	AccountID     string
	Email         string
	DisplayName   string
	Role          identity.Role
	Via           Via
	EstablishedAt time.Time
}

func newSession(acc identity.Account, via Via, now time.Time) Session {
	return Session{
		AccountID:     acc.ID,
		Email:         acc.Email,
		DisplayName:   acc.DisplayName,
		Role:          acc.Role,
		Via:           via,
		EstablishedAt: now,
	}
}

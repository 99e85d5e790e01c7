package authapi

import (
	"time"

	"estate/cmd/internal/auth/session"
)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// accountResponse is the public view of a session. Callers route on Role.
type accountResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type loginResponse struct {
	Account  accountResponse `json:"account"`
	Via      string          `json:"via"`
	Remember bool            `json:"remember"`
}

type meResponse struct {
	Account       accountResponse `json:"account"`
	Via           string          `json:"via"`
	EstablishedAt time.Time       `json:"established_at"`
}

func toAccountResponse(s session.Session) accountResponse {
	return accountResponse{
		ID:          s.AccountID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Role:        s.Role.String(),
	}
}

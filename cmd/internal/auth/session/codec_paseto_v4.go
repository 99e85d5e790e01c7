package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"estate/cmd/identity"
)

// sessionFooter binds tokens to this purpose so a v4.local token minted for
// anything else under the same key does not decode as a session.
const sessionFooter = "estate.session.v1"

// Codec seals Session records into PASETO v4.local tokens.
// Tokens are encrypted and authenticated; the client only stores them.
type Codec struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

// NewCodec builds a Codec from a hex-encoded 32-byte key.
func NewCodec(keyHex string, ttl time.Duration) (*Codec, error) {
	if ttl <= 0 {
		return nil, ErrConfig
	}
	key, err := paseto.V4SymmetricKeyFromHex(keyHex)
	if err != nil {
		return nil, ErrConfig
	}
	return &Codec{key: key, ttl: ttl}, nil
}

// NewSessionKeyHex generates a fresh key for ESTATE_SESSION_KEY_HEX.
func NewSessionKeyHex() string {
	return paseto.NewV4SymmetricKey().ExportHex()
}

// TTL returns how long encoded sessions stay valid.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode seals s. The record expires EstablishedAt + TTL.
func (c *Codec) Encode(s Session) (string, time.Time, error) {
	if !identity.ValidAccountID(s.AccountID) || !s.Role.Valid() {
		return "", time.Time{}, ErrInvalidSession
	}

	iat := s.EstablishedAt
	if iat.IsZero() {
		iat = time.Now().UTC()
	}
	exp := iat.Add(c.ttl)

	tok := paseto.NewToken()
	tok.SetIssuedAt(iat)
	tok.SetNotBefore(iat)
	tok.SetExpiration(exp)
	tok.SetSubject(s.AccountID)

	_ = tok.Set("email", s.Email)
	_ = tok.Set("name", s.DisplayName)
	_ = tok.Set("role", s.Role.String())
	_ = tok.Set("via", s.Via.String())
	tok.SetFooter([]byte(sessionFooter))

	return tok.V4Encrypt(c.key, nil), exp, nil
}

// Decode opens a token produced by Encode and checks it is valid at now.
// Any failure is ErrInvalidSession.
func (c *Codec) Decode(raw string, now time.Time) (Session, error) {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.ValidAt(now))

	parsed, err := p.ParseV4Local(c.key, raw, nil)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	if string(parsed.Footer()) != sessionFooter {
		return Session{}, ErrInvalidSession
	}

	sub, err := parsed.GetSubject()
	if err != nil || !identity.ValidAccountID(sub) {
		return Session{}, ErrInvalidSession
	}
	roleTag, err := parsed.GetString("role")
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	role, err := identity.ParseRole(roleTag)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	viaTag, err := parsed.GetString("via")
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	via, err := ParseVia(viaTag)
	if err != nil {
		return Session{}, ErrInvalidSession
	}

	email, _ := parsed.GetString("email")
	name, _ := parsed.GetString("name")
	iat, _ := parsed.GetIssuedAt()

	return Session{
		AccountID:     sub,
		Email:         email,
		DisplayName:   name,
		Role:          role,
		Via:           via,
		EstablishedAt: iat,
	}, nil
}

// Package session implements Estate's authentication core.
//
// An Authenticator turns either (email, password) or a remember-me secret
// into a Session and hands it to a Carrier, which owns transport (cookies in
// the HTTP layer). Credential and token failures collapse into a single
// ErrInvalidCredentials; store failures surface as ErrStoreUnavailable and
// are never reported as bad credentials.
//
// Session records are carried as PASETO v4.local tokens (see Codec), so a
// client can neither read nor forge them.
package session

// Package identity implements estate's account model and credential store.
//
// It owns the Account record (email, password hash, role, last-login time),
// the closed Role enum, email normalization, and the persistence boundary
// consumed by the authentication core. Stores never expose plaintext
// passwords and never log password hashes.
package identity

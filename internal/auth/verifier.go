// Package auth verifies username/password credentials presented with
// HTTP Basic authentication.
//
// Credentials are checked against a Verifier. StaticVerifier holds a
// single fixed pair; CredentialStore loads a set of pairs from a file or
// from the MEMORIA_CREDENTIALS environment variable.
package auth

import "crypto/subtle"

// Verifier reports whether a username/password pair is authorized.
type Verifier interface {
	Verify(username, password string) bool
}

// StaticVerifier accepts exactly one username/password pair.
type StaticVerifier struct {
	username string
	password string
}

// NewStaticVerifier returns a Verifier for the given pair.
func NewStaticVerifier(username, password string) *StaticVerifier {
	return &StaticVerifier{username: username, password: password}
}

// Verify compares both fields exactly and case-sensitively.
func (v *StaticVerifier) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.password))
	return userOK&passOK == 1
}

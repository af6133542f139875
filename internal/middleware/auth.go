package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/menezmethod/memoria/internal/auth"
	"github.com/menezmethod/memoria/internal/chain"
)

// DefaultRealm is the Basic auth realm announced in challenges.
const DefaultRealm = "user_pages"

// BasicAuth returns the chain member that gates protected routes.
// Valid credentials continue the chain and write nothing. Anything else,
// including a missing or undecodable header, ends the chain with a 401
// challenge for realm.
func BasicAuth(v auth.Verifier, realm string) chain.Handler {
	if realm == "" {
		realm = DefaultRealm
	}
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return chain.HandlerFunc(func(w http.ResponseWriter, r *http.Request, next chain.Next) {
		header := r.Header.Get("Authorization")
		username, password, ok := auth.DecodeCredentials(header)
		if ok && v.Verify(username, password) {
			next()
			return
		}

		AuthFailures.WithLabelValues(failureReason(header, ok)).Inc()
		w.Header().Set("WWW-Authenticate", challenge)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "Authentication required.")
	})
}

func failureReason(header string, decoded bool) string {
	switch {
	case header == "":
		return "missing"
	case !decoded:
		return "malformed"
	default:
		return "invalid"
	}
}

package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"roomchat/contract"
	"roomchat/domain"
)

// Middleware gates REST calls on the same credential verification as the
// realtime handshake. Failures are a bare 401 with no body, never a reason.
type Middleware struct {
	log      *slog.Logger
	verifier contract.TokenVerifier
}

func NewMiddleware(log *slog.Logger, verifier contract.TokenVerifier) *Middleware {
	return &Middleware{log: log, verifier: verifier}
}

// Require wraps a handler that needs the caller's verified identity.
func (m *Middleware) Require(next func(http.ResponseWriter, *http.Request, domain.Identity)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		identity, err := m.verifier.Verify(parts[1])
		if err != nil {
			m.log.Debug("REST credential rejected", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r, identity)
	})
}

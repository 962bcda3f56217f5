// Package auth validates bearer credentials against a remote JWKS key set.
// Verification happens before any realtime upgrade or protected REST call,
// so an unauthenticated party never reaches the registry or the stores.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"roomchat/domain"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Reason classifies why a credential was rejected.
type Reason int

const (
	// ReasonMalformed: the credential could not be parsed into its structural parts.
	ReasonMalformed Reason = iota
	// ReasonSignatureInvalid: no key in the remote key set validates the signature.
	ReasonSignatureInvalid
	// ReasonClaimRejected: issuer, audience or expiry checks failed.
	ReasonClaimRejected
)

func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonSignatureInvalid:
		return "signature invalid"
	case ReasonClaimRejected:
		return "claim rejected"
	default:
		return "unknown"
	}
}

// AuthError is the verifier's whole failure taxonomy. The boundary only ever
// surfaces it as a binary unauthorized signal; the reason stays server-side.
type AuthError struct {
	Reason Reason
	cause  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("credential rejected (%s): %v", e.Reason, e.cause)
}

func (e *AuthError) Unwrap() error { return e.cause }

// Verifier checks credentials against a JWKS endpoint. The key set is fetched
// lazily on first use and cached for the process lifetime; when a token names
// a key id absent from the cache, one refresh-and-retry is attempted before
// the credential is rejected.
type Verifier struct {
	log      *slog.Logger
	jwksURL  string
	issuer   string
	audience string

	once     sync.Once
	jwks     *keyfunc.JWKS
	fetchErr error
}

func NewVerifier(log *slog.Logger, jwksURL, issuer, audience string) *Verifier {
	return &Verifier{log: log, jwksURL: jwksURL, issuer: issuer, audience: audience}
}

// keySet resolves the cached JWKS, fetching it on the first call only.
func (v *Verifier) keySet() (*keyfunc.JWKS, error) {
	v.once.Do(func() {
		v.log.Info("Fetching JWKS key set", "url", v.jwksURL)
		v.jwks, v.fetchErr = keyfunc.Get(v.jwksURL, keyfunc.Options{
			Ctx:               context.Background(),
			RefreshUnknownKID: true,
			RefreshRateLimit:  time.Second,
			RefreshErrorHandler: func(err error) {
				v.log.Error("JWKS refresh failed", "error", err)
			},
		})
	})
	return v.jwks, v.fetchErr
}

// Verify validates a bearer credential and returns the decoded identity.
// Every failure is an *AuthError carrying one of the three reasons.
func (v *Verifier) Verify(credential string) (domain.Identity, error) {
	jwks, err := v.keySet()
	if err != nil {
		// Without a key set no signature can be validated.
		return domain.Identity{}, &AuthError{Reason: ReasonSignatureInvalid, cause: err}
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Identity{}, classify(err)
	}
	if !token.Valid {
		return domain.Identity{}, &AuthError{Reason: ReasonSignatureInvalid, cause: jwt.ErrSignatureInvalid}
	}

	identity := domain.Identity{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// Close stops the JWKS background refresh goroutine, if one was started.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &AuthError{Reason: ReasonMalformed, cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		// Unverifiable covers the key-id-not-found path after the one-shot
		// refresh already ran.
		return &AuthError{Reason: ReasonSignatureInvalid, cause: err}
	default:
		return &AuthError{Reason: ReasonClaimRejected, cause: err}
	}
}

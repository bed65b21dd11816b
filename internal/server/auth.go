package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnonymousUser is the identity assigned to requests carrying no
// credential at all. Tracking must keep working before sign-in.
const AnonymousUser = "anonymous"

// anonymousHeader carries an anonymous session token issued by
// POST /anonymous/token.
const anonymousHeader = "X-Anonymous-Token"

// sessionTTL is the lifetime of an anonymous session.
const sessionTTL = 24 * time.Hour

type trackClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Authenticator resolves the user identity of an ingestion request.
// Identity sources, in order: bearer JWT, anonymous session token,
// nothing (generic anonymous).
type Authenticator struct {
	secret []byte
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time // token -> expiry
}

// NewAuthenticator creates an Authenticator. secret signs and verifies
// HS256 bearer tokens; an empty secret disables JWT verification so
// deployments without auth still ingest anonymously.
func NewAuthenticator(secret string, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{
		secret:   []byte(secret),
		now:      now,
		sessions: make(map[string]time.Time),
	}
}

// Identify returns the user ID for a request. An invalid bearer token is
// an error (the caller presented a credential and it failed); a missing
// credential is not.
func (a *Authenticator) Identify(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return "", fmt.Errorf("malformed Authorization header")
		}
		return a.verifyJWT(raw)
	}

	if tok := r.Header.Get(anonymousHeader); tok != "" {
		if !a.validSession(tok) {
			return "", fmt.Errorf("unknown or expired anonymous session")
		}
		return "anon:" + tok, nil
	}

	return AnonymousUser, nil
}

// IssueSession creates a new anonymous session token.
func (a *Authenticator) IssueSession() string {
	tok := uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[tok] = a.now().Add(sessionTTL)

	// Opportunistic cleanup of expired sessions.
	for t, exp := range a.sessions {
		if a.now().After(exp) {
			delete(a.sessions, t)
		}
	}
	return tok
}

// IssueJWT signs a bearer token for userID, used by tests and the token
// bootstrap of trusted callers.
func (a *Authenticator) IssueJWT(userID string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}
	now := a.now()
	claims := trackClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) verifyJWT(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("bearer token presented but jwt secret not configured")
	}

	var claims trackClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", fmt.Errorf("verify bearer token: %w", err)
	}

	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("bearer token carries no user identity")
}

func (a *Authenticator) validSession(tok string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	exp, ok := a.sessions[tok]
	return ok && a.now().Before(exp)
}

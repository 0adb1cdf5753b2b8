package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cardpoint/onboarding-service/internal/utils"
)

type contextKey string

const (
	ContextKeySessionID = contextKey("sessionID")
	ContextKeyClientKey = contextKey("clientKey")

	// WebSocketTokenParam carries the token on upgrade requests from
	// clients that cannot set headers.
	WebSocketTokenParam = "token"
)

// TokenParser returns the session id a token was issued for.
type TokenParser interface {
	Parse(token string) (string, error)
}

// SessionMiddleware guards the wizard endpoints. A missing or invalid
// token is a 401.
//   - If platform == web  => the token is read from utils.SessionCookieName
//   - If platform != web  => the token is read from Authorization: Bearer ...
//   - WebSocket upgrades may pass it as the ?token= query parameter instead.
func SessionMiddleware(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractSessionToken(r, utils.PlatformOf(r))
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			sid, pErr := tokens.Parse(tokenStr)
			if pErr != nil {
				if errors.Is(pErr, utils.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Session expired", nil, pErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid session", nil, pErr,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySessionID, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientKeyMiddleware tags the request with the caller's identifier
// (IP for web, device id for mobile) for per-client preferences.
func ClientKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyClientKey, utils.ClientKey(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFrom returns the session id stored by SessionMiddleware.
func SessionIDFrom(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(ContextKeySessionID).(string)
	return sid, ok && sid != ""
}

func ClientKeyFrom(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(ContextKeyClientKey).(string)
	return key, ok && key != ""
}

// extractSessionToken reads the cookie for web and the bearer header for
// native clients.
func extractSessionToken(r *http.Request, p utils.Platform) (string, error) {
	if isWebSocketUpgrade(r) {
		if tok := r.URL.Query().Get(WebSocketTokenParam); tok != "" {
			return tok, nil
		}
	}

	if !p.Native() {
		c, err := r.Cookie(utils.SessionCookieName)
		if err != nil || c.Value == "" {
			return "", errors.New("missing session cookie")
		}
		return c.Value, nil
	}

	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

package utils

import (
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName carries the signed session token for web clients.
const SessionCookieName = "cp_session"

// SetSessionCookie writes the session cookie and the security headers
// that accompany every token-bearing response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, sameSiteHighSecurity bool) {
	if token == "" {
		return
	}
	sameSite := "Lax"
	if !sameSiteHighSecurity {
		sameSite = "None"
	}
	partitioned := !sameSiteHighSecurity
	Logger.Debugf("[cookies] SetSessionCookie: sameSite=%s, partitioned=%t", sameSite, partitioned)

	maxAge := int(ttl.Seconds())
	expires := time.Now().Add(ttl).UTC().Format(http.TimeFormat)
	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=%s; Path=/; Max-Age=%d; Expires=%s; SameSite=%s; Secure; HttpOnly%s",
			SessionCookieName, token, maxAge, expires, sameSite, partitionAttr(partitioned)))

	addSecurityHeaders(w)
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, sameSiteHighSecurity bool) {
	expired := time.Now().Add(-1 * time.Hour).UTC().Format(http.TimeFormat)
	sameSite := "Lax"
	if !sameSiteHighSecurity {
		sameSite = "None"
	}
	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=; Path=/; Expires=%s; Max-Age=0; SameSite=%s; Secure; HttpOnly%s",
			SessionCookieName, expired, sameSite, partitionAttr(!sameSiteHighSecurity)))

	addSecurityHeaders(w)
}

func partitionAttr(on bool) string {
	if on {
		return "; Partitioned"
	}
	return ""
}

// addSecurityHeaders applies the transport, caching and framing headers.
func addSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

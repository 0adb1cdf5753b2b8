package utils

import (
	"net"
	"net/http"
	"strings"
)

// Platform is the client surface named by the X-Platform header.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Native reports whether the client is a mobile app. Native clients send
// bearer tokens and a device id instead of relying on cookies.
func (p Platform) Native() bool {
	return p == PlatformAndroid || p == PlatformIOS
}

// PlatformOf reads X-Platform. Anything unrecognised counts as web.
func PlatformOf(r *http.Request) Platform {
	switch p := Platform(strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))); p {
	case PlatformAndroid, PlatformIOS:
		return p
	default:
		return PlatformWeb
	}
}

// ClientKey identifies the caller for per-client preferences such as the
// theme: "device_id:<id>" for native apps that send X-Device-ID, otherwise
// "ip:<addr>".
func ClientKey(r *http.Request) string {
	if PlatformOf(r).Native() {
		if id := strings.TrimSpace(r.Header.Get("X-Device-ID")); id != "" {
			return "device_id:" + id
		}
	}
	return "ip:" + clientIP(r)
}

// clientIP prefers proxy headers, in the order our edge sets them, over
// RemoteAddr.
func clientIP(r *http.Request) string {
	for _, ip := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if ip := r.Header.Get(h); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return ""
}

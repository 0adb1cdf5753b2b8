package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformOf(t *testing.T) {
	cases := map[string]Platform{
		"":        PlatformWeb,
		"web":     PlatformWeb,
		"Android": PlatformAndroid,
		" ios ":   PlatformIOS,
		"tv":      PlatformWeb,
	}
	for header, want := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Platform", header)
		assert.Equal(t, want, PlatformOf(req), "header %q", header)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	assert.Equal(t, "ip:10.0.0.9", ClientKey(req))

	req.Header.Set("X-Forwarded-For", "bogus, 203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.7", ClientKey(req))

	// device ids only count for native clients
	req.Header.Set("X-Device-ID", "dev-42")
	assert.Equal(t, "ip:203.0.113.7", ClientKey(req))
	req.Header.Set("X-Platform", "ios")
	assert.Equal(t, "device_id:dev-42", ClientKey(req))
}

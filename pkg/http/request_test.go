package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/mholloway/pennygate/pkg/http"
	"github.com/stretchr/testify/assert"
)

func newRequest(remoteAddr, xff, xri string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = remoteAddr
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	if xri != "" {
		r.Header.Set("X-Real-IP", xri)
	}
	return r
}

func TestExtractClientIP_UsesRemoteAddrByDefault(t *testing.T) {
	r := newRequest("1.2.3.4:51234", "", "")
	assert.Equal(t, "1.2.3.4", pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{}))
}

func TestExtractClientIP_IgnoresHeadersFromUntrustedPeer(t *testing.T) {
	// A direct client must not be able to pick its own ban key
	r := newRequest("1.2.3.4:51234", "8.8.8.8", "9.9.9.9")
	assert.Equal(t, "1.2.3.4", pkghttp.ExtractClientIP(r, &pkghttp.IPConfig{}))
}

func TestExtractClientIP_HonorsForwardedForFromTrustedProxy(t *testing.T) {
	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := newRequest("10.1.2.3:443", "8.8.8.8, 10.1.2.3", "")
	assert.Equal(t, "8.8.8.8", pkghttp.ExtractClientIP(r, config))
}

func TestExtractClientIP_FallsBackToRealIP(t *testing.T) {
	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := newRequest("10.1.2.3:443", "", "8.8.8.8")
	assert.Equal(t, "8.8.8.8", pkghttp.ExtractClientIP(r, config))
}

func TestExtractClientIP_SkipsInvalidForwardedEntries(t *testing.T) {
	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}

	r := newRequest("10.1.2.3:443", "not-an-ip, 8.8.8.8", "")
	assert.Equal(t, "8.8.8.8", pkghttp.ExtractClientIP(r, config))
}

func TestExtractClientIP_NilConfig(t *testing.T) {
	r := newRequest("1.2.3.4:51234", "8.8.8.8", "")
	assert.Equal(t, "1.2.3.4", pkghttp.ExtractClientIP(r, nil))
}

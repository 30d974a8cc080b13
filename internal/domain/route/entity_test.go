package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_Target(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		want  string
	}{
		{"http", Route{IP: "10.0.0.5", Port: 8080, Protocol: ProtocolHTTP}, "http://10.0.0.5:8080"},
		{"https", Route{IP: "10.0.0.5", Port: 443, Protocol: ProtocolHTTPS}, "https://10.0.0.5:443"},
		{"tcp", Route{IP: "10.0.0.5", Port: 5432, Protocol: ProtocolTCP}, "10.0.0.5:5432"},
		{"ipv6", Route{IP: "fd00::1", Port: 80, Protocol: ProtocolHTTP}, "http://[fd00::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.route.Target())
		})
	}
}

func TestRoute_EffectiveTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, (&Route{}).EffectiveTTL())
	assert.Equal(t, 30, (&Route{TTL: 30}).EffectiveTTL())
}

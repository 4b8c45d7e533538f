package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/buckets", "/buckets"},
		{"newline injection", "/buckets\n level=ERROR", "/buckets level=ERROR"},
		{"null byte", "/param\x00eter", "/parameter"},
		{"encoded slash kept", "/parameter%2Fx", "/parameter%2Fx"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizePath(tc.in))
		})
	}

	long := "/" + strings.Repeat("a", MaxPathLength+10)
	assert.Len(t, SanitizePath(long), MaxPathLength+3)
}

func TestSanitizeIp(t *testing.T) {

	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:54321", "127.0.0.1"},
		{"[::1]:8000", "::1"},
		{"10.0.0.7", "10.0.0.7"},
		{"not-an-ip", "invalid"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeIp(tc.in))
		})
	}
}

func TestTraceparentFields(t *testing.T) {

	assert.True(t, IsValidTraceId("4bf92f3577b34da6a3ce929d0e0e4736"))
	assert.False(t, IsValidTraceId("00000000000000000000000000000000"))
	assert.False(t, IsValidTraceId("4bf92f3577b34da6"))
	assert.True(t, IsValidSpanId("00f067aa0ba902b7"))
	assert.False(t, IsValidSpanId("zzf067aa0ba902b7"))
	assert.True(t, IsValidTraceFlags("01"))
	assert.False(t, IsValidTraceFlags("1"))
}

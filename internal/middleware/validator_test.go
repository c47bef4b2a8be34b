package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	ok := []string{
		"https://cdn.example.com/room.jpg",
		"http://images.example.org/a/b.png?x=1",
		"https://172.32.0.1/img.png",
		"https://[2001:db8::1a]/sala.jpg",
		"https://fotos.mylocalhost.com.br/sala.jpg",
		"https://localhost-fotos.example.com/sala.jpg",
	}
	for _, u := range ok {
		require.NoError(t, ValidateURL(u), u)
	}

	bad := []string{
		"",
		"ftp://example.com/a.png",
		"data:image/png;base64,AAAA",
		"http://localhost:8080/a.png",
		"http://127.0.0.1/a.png",
		"http://10.0.0.4/a.png",
		"http://192.168.1.1/a.png",
		"http://172.20.1.1/a.png",
		"http://169.254.169.254/latest/meta-data",
		"http://LOCALHOST./a.png",
		"http://api.localhost/a.png",
		"http://[::1]/a.png",
		"http://[fd00::5]/a.png",
		"http://0.0.0.0/a.png",
		"https:///nohost.png",
	}
	for _, u := range bad {
		require.Error(t, ValidateURL(u), u)
	}
}

func TestValidateTenantID(t *testing.T) {
	require.NoError(t, ValidateTenantID("0b6f2c1e-3d4a-4c8e-9f10-1a2b3c4d5e6f"))
	require.Error(t, ValidateTenantID(""))
	require.Error(t, ValidateTenantID("../etc"))
	require.Error(t, ValidateTenantID(strings.Repeat("a", 65)))
}

func TestSanitizePreferences(t *testing.T) {
	require.Equal(t, "tons claros\nmadeira", SanitizePreferences("  tons claros\x00\x07\nmadeira  "))

	long := strings.Repeat("á", MaxPreferencesLength+10)
	got := SanitizePreferences(long)
	require.Equal(t, MaxPreferencesLength, len([]rune(got)))
}

func TestValidateLimit(t *testing.T) {
	require.Equal(t, 20, ValidateLimit(0))
	require.Equal(t, 100, ValidateLimit(500))
	require.Equal(t, 15, ValidateLimit(15))
}

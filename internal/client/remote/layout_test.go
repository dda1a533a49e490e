package remote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	require.Equal(t, "measurements/abc.json", MeasurementPath("abc"))
	require.Equal(t, "photos/abc.jpg", PhotoPath("abc"))
}

func TestClientIDFromName(t *testing.T) {
	tests := []struct {
		name   string
		wantID string
		wantOK bool
	}{
		{"abc.json", "abc", true},
		{"measurements/abc.json", "abc", true},
		{".json", "", false},
		{".abc.json.icloud", "", false},
		{".abc.json.tmp-123", "", false},
		{"abc.jpg", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ClientIDFromName(tt.name)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantID, id)
		})
	}
}

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", ".", "..", "../x", "/etc/passwd", `a\b`} {
		_, err := cleanKey(bad)
		require.ErrorIs(t, err, ErrInvalidKey, "key %q", bad)
	}

	k, err := cleanKey("measurements//a.json")
	require.NoError(t, err)
	require.Equal(t, "measurements/a.json", k)
}

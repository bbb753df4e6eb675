package fastimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModeRecognized(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"100644", ModeFile},
		{"644", ModeFile},
		{"100755", ModeExe},
		{"755", ModeExe},
		{"120000", ModeSymLink},
		{"160000", ModeGitLink},
		{"040000", ModeDir},
	}
	for _, tc := range cases {
		m, err := ParseMode([]byte(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, m, tc.in)
	}
}

func TestParseModeInvalid(t *testing.T) {
	_, err := ParseMode([]byte("100600"))
	assert.IsType(t, ErrInvalidModeValue{}, err)

	_, err = ParseMode([]byte("abc"))
	assert.IsType(t, ErrInvalidMode{}, err)

	_, err = ParseMode([]byte(""))
	assert.IsType(t, ErrInvalidMode{}, err)
}

func TestModeStringCanonical(t *testing.T) {
	assert.Equal(t, "100644", ModeFile.String())
	assert.Equal(t, "120000", ModeSymLink.String())
}

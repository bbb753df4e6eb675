package fastimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileSize(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"512", 512},
		{"4k", 4 << 10},
		{"4K", 4 << 10},
		{"2m", 2 << 20},
		{"1g", 1 << 30},
	}
	for _, tc := range cases {
		fs, err := ParseFileSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, fs.Bytes(), tc.in)
	}
}

func TestParseFileSizeInvalid(t *testing.T) {
	_, err := ParseFileSize("")
	assert.Error(t, err)
	_, err = ParseFileSize("abc")
	assert.Error(t, err)
}

func TestFileSizeStringLowercasesUnit(t *testing.T) {
	fs, err := ParseFileSize("4K")
	require.NoError(t, err)
	assert.Equal(t, "4k", fs.String())
}

package fastimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquoteCStyleStringZeroCopy(t *testing.T) {
	s := []byte(`"hello world" rest`)
	got, rest, err := unquoteCStyleString(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
	assert.Equal(t, " rest", string(rest))
	// Zero-copy: the returned slice aliases the input.
	assert.Same(t, &s[1], &got[0])
}

func TestUnquoteCStyleStringEscapes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"\a\b\f\n\r\t\v"`, "\a\b\f\n\r\t\v"},
		{`"\\\""`, "\\\""},
		{`"\101\102"`, "AB"},
	}
	for _, tc := range cases {
		got, rest, err := unquoteCStyleString([]byte(tc.in), nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got))
		assert.Empty(t, rest)
	}
}

func TestUnquoteCStyleStringErrors(t *testing.T) {
	_, _, err := unquoteCStyleString([]byte(`"unterminated`), nil)
	assert.Equal(t, ErrUnterminatedString{}, err)

	_, _, err = unquoteCStyleString([]byte(`"\q"`), nil)
	assert.Equal(t, ErrInvalidEscape{Escape: 'q'}, err)

	_, _, err = unquoteCStyleString([]byte(`"\498"`), nil)
	assert.Equal(t, ErrOctalOverflow{}, err)

	_, _, err = unquoteCStyleString([]byte(`"\08"`), nil)
	assert.Equal(t, ErrInvalidOctalDigit{}, err)
}

func TestUnquoteCStyleStringUsesDst(t *testing.T) {
	dst := make([]byte, 0, 16)
	got, _, err := unquoteCStyleString([]byte(`"a\nb"`), dst)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(got))
}

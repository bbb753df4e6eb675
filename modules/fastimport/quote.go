package fastimport

import "bytes"

// ErrUnterminatedString is returned when a quoted string literal has no
// closing '"'.
type ErrUnterminatedString struct{}

func (ErrUnterminatedString) Error() string { return "string not terminated" }

// ErrInvalidEscape is returned for an unrecognized '\' escape.
type ErrInvalidEscape struct{ Escape byte }

func (e ErrInvalidEscape) Error() string { return "invalid escape sequence" }

// ErrInvalidOctalDigit is returned when an octal escape's second or third
// digit is not in 0..=7.
type ErrInvalidOctalDigit struct{}

func (ErrInvalidOctalDigit) Error() string { return "invalid digit in octal escape sequence" }

// ErrOctalOverflow is returned when an octal escape's leading digit is 4..=7,
// which would overflow a byte.
type ErrOctalOverflow struct{}

func (ErrOctalOverflow) Error() string { return "octal escape sequence overflows" }

// unquoteCStyleString unquotes a C-style string literal beginning with '"'
// at s[0]. It returns the unquoted bytes and the remainder of s following
// the closing quote. When the literal contains no escapes, the returned
// bytes are a zero-copy subslice of s; otherwise they are freshly allocated
// into dst (which is reset before use) and returned as dst's backing array.
//
// Corresponds to git's quote.c:unquote_c_style.
func unquoteCStyleString(s []byte, dst []byte) ([]byte, []byte, error) {
	if len(s) == 0 || s[0] != '"' {
		panic("unquoteCStyleString: not a string")
	}
	i := 1
	j := indexQuoteOrBackslash(s, i)
	if j < 0 {
		return nil, nil, ErrUnterminatedString{}
	}
	if s[j] == '"' {
		// Zero-copy fast path: no escapes present.
		return s[i:j], s[j+1:], nil
	}
	buf := dst[:0]
	for {
		buf = append(buf, s[i:j]...)
		switch s[j] {
		case '"':
			return buf, s[j+1:], nil
		case '\\':
			j++
			if j >= len(s) {
				return nil, nil, ErrUnterminatedString{}
			}
			var ch byte
			switch c := s[j]; c {
			case 'a':
				ch = 0x07
			case 'b':
				ch = 0x08
			case 'f':
				ch = 0x0c
			case 'n':
				ch = '\n'
			case 'r':
				ch = '\r'
			case 't':
				ch = '\t'
			case 'v':
				ch = 0x0b
			case '\\', '"':
				ch = c
			case '0', '1', '2', '3':
				j += 2
				if j >= len(s) {
					return nil, nil, ErrUnterminatedString{}
				}
				o2, o3 := s[j-1], s[j]
				if !isOctalDigit(o2) || !isOctalDigit(o3) {
					return nil, nil, ErrInvalidOctalDigit{}
				}
				ch = (c-'0')<<6 | (o2-'0')<<3 | (o3 - '0')
			case '4', '5', '6', '7':
				return nil, nil, ErrOctalOverflow{}
			default:
				return nil, nil, ErrInvalidEscape{Escape: c}
			}
			buf = append(buf, ch)
		}
		i = j + 1
		j = indexQuoteOrBackslash(s, i)
		if j < 0 {
			return nil, nil, ErrUnterminatedString{}
		}
	}
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

// indexQuoteOrBackslash returns the index, at or after from, of the first
// '"' or '\\' byte in s, or -1 if neither occurs.
func indexQuoteOrBackslash(s []byte, from int) int {
	rest := s[from:]
	i := bytes.IndexAny(rest, "\"\\")
	if i < 0 {
		return -1
	}
	return from + i
}

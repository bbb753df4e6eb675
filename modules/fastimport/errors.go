package fastimport

import "fmt"

// ParseErrorKind identifies the specific contract a ParseError violated.
type ParseErrorKind int

const (
	// Framing errors.
	ErrExpectedDataCommand ParseErrorKind = iota + 1
	ErrExpectedCommitCommitter
	ErrExpectedCommitMessage
	ErrExpectedTagFrom
	ErrExpectedTagMessage
	ErrExpectedAliasMark
	ErrExpectedAliasTo
	ErrUnrecognizedCommand
	ErrUnexpectedBlank

	// Content errors.
	ErrBranchContainsNul
	ErrTagContainsNul
	ErrIdentContainsNul
	ErrEncodingContainsNul
	ErrPathContainsNul
	ErrRewriteSubmodulesContainsNul
	ErrRewriteSubmodulesNoColon
	ErrIdentMissingLt
	ErrIdentMissingGt
	ErrIdentMissingSpace
	ErrInvalidModeKind
	ErrInvalidModeInt
	ErrNoSpaceAfterMode
	ErrNoSpaceAfterDataRef
	ErrNoSpaceAfterSource
	ErrMissingDest
	ErrJunkAfterPath

	// Mark errors.
	ErrMarkMissingColon
	ErrInvalidMark
	ErrZeroMark

	// Data-section errors.
	ErrInvalidDataLength
	ErrEmptyDelim
	ErrDataDelimContainsNul
	ErrDataUnexpectedEof
	ErrUnterminatedData
	ErrAlreadyOpenedKind
	ErrUnfinishedData
	ErrClosedData

	// String-quote errors.
	ErrUnterminatedStringKind
	ErrInvalidEscapeKind
	ErrInvalidOctalDigitKind
	ErrOctalOverflowKind

	// Option errors.
	ErrUnsupportedGitOption
	ErrInvalidOptionInt
	ErrInvalidOptionFileSize
	ErrInvalidDateFormat
)

var parseErrorMessages = map[ParseErrorKind]string{
	ErrExpectedDataCommand:          "expected 'data' command",
	ErrExpectedCommitCommitter:      "expected 'committer' command",
	ErrExpectedCommitMessage:        "expected commit message",
	ErrExpectedTagFrom:              "expected 'from' command",
	ErrExpectedTagMessage:           "expected tag message",
	ErrExpectedAliasMark:            "expected 'mark' command",
	ErrExpectedAliasTo:              "expected 'to' command",
	ErrUnrecognizedCommand:          "unsupported command",
	ErrUnexpectedBlank:              "unexpected blank line",
	ErrBranchContainsNul:            "branch name contains NUL ('\\0')",
	ErrTagContainsNul:               "tag name contains NUL ('\\0')",
	ErrIdentContainsNul:             "identity contains NUL ('\\0')",
	ErrEncodingContainsNul:          "encoding contains NUL ('\\0')",
	ErrPathContainsNul:              "path contains NUL ('\\0')",
	ErrRewriteSubmodulesContainsNul: "rewrite-submodules value contains NUL ('\\0')",
	ErrRewriteSubmodulesNoColon:     "rewrite-submodules value has no ':'",
	ErrIdentMissingLt:               "person identifier does not have '<'",
	ErrIdentMissingGt:               "person identifier does not have '>'",
	ErrIdentMissingSpace:            "person identifier does not have ' ' before '<'",
	ErrInvalidModeKind:              "invalid mode",
	ErrInvalidModeInt:               "invalid mode: not an octal integer",
	ErrNoSpaceAfterMode:             "missing space after mode",
	ErrNoSpaceAfterDataRef:         "missing space after data reference",
	ErrNoSpaceAfterSource:           "missing space after rename/copy source",
	ErrMissingDest:                  "missing rename/copy destination",
	ErrJunkAfterPath:                "junk after path",
	ErrMarkMissingColon:             "mark is missing leading ':'",
	ErrInvalidMark:                  "invalid mark",
	ErrZeroMark:                     "cannot use :0 as a mark",
	ErrInvalidDataLength:            "invalid data length",
	ErrEmptyDelim:                   "data delimiter is empty",
	ErrDataDelimContainsNul:         "data delimiter contains NUL ('\\0')",
	ErrDataUnexpectedEof:            "unexpected EOF in data stream",
	ErrUnterminatedData:             "unterminated delimited data stream",
	ErrAlreadyOpenedKind:            "data stream already opened for reading",
	ErrUnfinishedData:               "data stream was not read to the end",
	ErrClosedData:                   "data reader is closed",
	ErrUnterminatedStringKind:       "string not terminated",
	ErrInvalidEscapeKind:            "invalid escape sequence",
	ErrInvalidOctalDigitKind:        "invalid digit in octal escape sequence",
	ErrOctalOverflowKind:            "octal escape sequence overflows",
	ErrUnsupportedGitOption:         "unsupported git option",
	ErrInvalidOptionInt:             "invalid option integer",
	ErrInvalidOptionFileSize:        "invalid option file size",
	ErrInvalidDateFormat:            "invalid date-format value",
}

func (k ParseErrorKind) String() string {
	if msg, ok := parseErrorMessages[k]; ok {
		return msg
	}
	return "parse error"
}

// dataStreamContext is placeholder text for ParseError.Line while a
// data-stream sub-reader is open, since the offending line at that point is
// the payload, not a directive. Nothing in this package assigns it: errors
// raised by the data-stream reader carry an empty Line.
const dataStreamContext = "<<parsing data stream>>"

// ParseError reports a violation of the fast-import wire grammar, naming
// the specific kind and the directive line it occurred on.
type ParseError struct {
	Kind ParseErrorKind
	Line []byte
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", err.Kind, err.Line)
}

// IsParseError reports whether err is a *ParseError, optionally narrowing to
// a specific kind when kind is non-zero.
func IsParseError(err error, kind ParseErrorKind) bool {
	pe, ok := err.(*ParseError)
	if !ok {
		return false
	}
	return kind == 0 || pe.Kind == kind
}

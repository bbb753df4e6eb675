// Package plumbing holds reference-name validation: well-formedness is
// checked here exactly as git's own check-ref-format does it. cmd/fidump
// uses it for lint warnings; the fast-import parser and emitter do not call
// it.
package plumbing

import (
	"bytes"
	"fmt"
)

// RefFormatFlags selects which relaxations of the strict check-ref-format
// rules are permitted.
type RefFormatFlags uint8

const (
	// AllowOneLevel permits a refname with no "/" in it, such as a bare
	// branch or tag name as carried on the fast-import wire, rather than
	// requiring a fully qualified "refs/heads/..." path.
	AllowOneLevel RefFormatFlags = 1 << iota
	// RefspecPattern permits exactly one "*" anywhere in the refname.
	RefspecPattern
)

// RefFormatErrorKind enumerates the specific check-ref-format rule violated.
type RefFormatErrorKind int

const (
	RefFormatEmpty RefFormatErrorKind = iota + 1
	RefFormatOnlyOneLevel
	RefFormatBadCharacter
	RefFormatConsecutiveDots
	RefFormatAtBrace
	RefFormatSoloAt
	RefFormatAsterisk
	RefFormatMultipleAsterisks
	RefFormatEmptyComponent
	RefFormatLeadingDot
	RefFormatLockSuffix
	RefFormatTrailingDot
)

func (k RefFormatErrorKind) String() string {
	switch k {
	case RefFormatEmpty:
		return "empty refname"
	case RefFormatOnlyOneLevel:
		return "refname has only one component"
	case RefFormatBadCharacter:
		return "refname contains a forbidden character"
	case RefFormatConsecutiveDots:
		return "refname contains '..'"
	case RefFormatAtBrace:
		return "refname contains '@{'"
	case RefFormatSoloAt:
		return "refname is '@'"
	case RefFormatAsterisk:
		return "refname contains '*'"
	case RefFormatMultipleAsterisks:
		return "refname contains more than one '*'"
	case RefFormatEmptyComponent:
		return "refname has an empty component"
	case RefFormatLeadingDot:
		return "refname component starts with '.'"
	case RefFormatLockSuffix:
		return "refname component ends with '.lock'"
	case RefFormatTrailingDot:
		return "refname ends with '.'"
	}
	return "bad refname"
}

// ErrBadReferenceName is returned by CheckRefFormat when refname violates
// check-ref-format.
type ErrBadReferenceName struct {
	Name string
	Kind RefFormatErrorKind
}

func (err *ErrBadReferenceName) Error() string {
	return fmt.Sprintf("bad revision name: '%s': %s", err.Name, err.Kind)
}

func IsErrBadReferenceName(err error) bool {
	_, ok := err.(*ErrBadReferenceName)
	return ok
}

// https://github.com/git/git/blob/ae73b2c8f1da39c39335ee76a0f95857712c22a7/refs.c#L41-L290
//
// Here golang's logic is different from C's, golang's strings are not NULL-terminated, so byte(0) is a forbidden character.
var refnameDisposition = [256]byte{
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 0, 0, 0, 2, 1,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4, 0, 0, 0, 0, 4,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4, 4, 0, 4, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 4, 4,
}

/*
 * How to handle various characters in refnames:
 * 0: An acceptable character for refs
 * 1: End-of-component
 * 2: ., look for a preceding . to reject .. in refs
 * 3: {, look for a preceding @ to reject @{ in refs
 * 4: A bad character: ASCII control characters, and
 *    ":", "?", "[", "\", "^", "~", SP, or TAB
 * 5: *, reject unless RefspecPattern is set and it is the only one
 */
func checkReferenceNameComponent(refname []byte, flags RefFormatFlags, sawAsterisk *bool) (int, RefFormatErrorKind) {
	last := byte(0)
	var i int
	for ; i < len(refname); i++ {
		ch := refname[i] & 255
		disp := refnameDisposition[ch]
		switch disp {
		case 1:
			goto OUT // Do not use range, which causes extra processing for goto statements.
		case 2:
			if last == '.' {
				return 0, RefFormatConsecutiveDots
			}
		case 3:
			if last == '@' {
				return 0, RefFormatAtBrace
			}
		case 4:
			return 0, RefFormatBadCharacter
		case 5:
			if flags&RefspecPattern == 0 {
				return 0, RefFormatAsterisk
			}
			if *sawAsterisk {
				return 0, RefFormatMultipleAsterisks
			}
			*sawAsterisk = true
		}
		last = ch
	}
OUT:
	if i == 0 {
		return 0, RefFormatEmptyComponent
	}
	if refname[0] == '.' {
		return 0, RefFormatLeadingDot
	}
	if bytes.HasSuffix(refname[:i], []byte(".lock")) {
		return 0, RefFormatLockSuffix
	}
	return i, 0
}

/*
 * Try to read one refname component from the front of refname.
 * It is legal if it is something reasonable to have under "refs/"; we do
 * not like it if:
 *
 * - it begins with ".", or
 * - it has double dots "..", or
 * - it has ASCII control characters, or
 * - it has ":", "?", "[", "\", "^", "~", SP, or TAB anywhere, or
 * - it has "*" anywhere unless RefspecPattern is set, or
 * - it ends with a "/", or
 * - it ends with ".lock", or
 * - it contains a "@{" portion
 */
func CheckRefFormat(refname []byte, flags RefFormatFlags) error {
	if len(refname) == 0 {
		return &ErrBadReferenceName{Name: string(refname), Kind: RefFormatEmpty}
	}
	if bytes.Equal(refname, []byte("@")) {
		return &ErrBadReferenceName{Name: string(refname), Kind: RefFormatSoloAt}
	}
	var sawAsterisk bool
	components := 0
	rest := refname
	var lastComponentLen int
	for {
		/* We are at the start of a path component. */
		n, kind := checkReferenceNameComponent(rest, flags, &sawAsterisk)
		if kind != 0 {
			return &ErrBadReferenceName{Name: string(refname), Kind: kind}
		}
		components++
		lastComponentLen = n
		if len(rest) == n {
			break
		}
		rest = rest[n+1:]
	}
	if components < 2 && flags&AllowOneLevel == 0 {
		return &ErrBadReferenceName{Name: string(refname), Kind: RefFormatOnlyOneLevel}
	}
	if rest[lastComponentLen-1] == '.' {
		return &ErrBadReferenceName{Name: string(refname), Kind: RefFormatTrailingDot}
	}
	return nil
}

// ValidateReferenceName reports whether refname is well-formed, allowing
// one-level names such as the branch/tag names carried on the fast-import
// wire (rather than requiring a fully qualified "refs/heads/..." path).
func ValidateReferenceName(refname []byte) bool {
	return CheckRefFormat(refname, AllowOneLevel) == nil
}

// ValidateBranchName: creating branches starting with - is not supported
func ValidateBranchName(branch []byte) bool {
	if len(branch) == 0 || branch[0] == '-' {
		return false
	}
	return ValidateReferenceName(branch)
}

// ValidateTagName: creating tags starting with - is not supported
func ValidateTagName(tag []byte) bool {
	if len(tag) == 0 || tag[0] == '-' {
		return false
	}
	return ValidateReferenceName(tag)
}

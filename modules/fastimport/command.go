package fastimport

import (
	"bytes"
	"math"
)

// Command is the closed set of fast-import directives the parser produces.
// Every field of a Command borrows from the parser's buffer pool and is
// only valid until the next call to Parser.Next; copy a field to retain it
// (Ref and Identity provide Clone for this; []byte fields are copied by the
// caller).
type Command interface {
	isCommand()
}

// DataHeader is the framing of a data section: either a counted length or a
// delimiter line. Delimited reports Delim != nil.
type DataHeader struct {
	Len   uint64
	Delim []byte
}

func (h DataHeader) Delimited() bool { return h.Delim != nil }

// Mark is a positive integer identifier assigned with `:N` on the wire.
// Zero is never a valid Mark value; it is used as the zero value to mean
// "absent" in optional fields.
type Mark uint64

// ParseMark parses the digits following the leading ':' of a mark
// reference (e.g. the "42" in ":42"). A mark of zero is rejected.
func ParseMark(digits []byte) (Mark, error) {
	v, ok := parseUint64(digits)
	if !ok {
		return 0, &ParseError{Kind: ErrInvalidMark, Line: digits}
	}
	if v == 0 {
		return 0, &ParseError{Kind: ErrZeroMark, Line: digits}
	}
	return Mark(v), nil
}

// Ref is an object/commit/blob/tree reference: either a Mark (leading ':')
// or a raw branch name / object id. The specific aliases below exist only
// to document intent at each use site; all four share this representation.
type Ref struct {
	mark Mark
	raw  []byte
}

type (
	ObjectRef = Ref
	CommitRef = Ref
	BlobRef   = Ref
	TreeRef   = Ref
)

// IsMark reports whether the reference is a mark rather than a raw name.
func (r Ref) IsMark() bool { return r.mark != 0 }

// MarkValue returns the mark value; valid only when IsMark is true.
func (r Ref) MarkValue() Mark { return r.mark }

// Raw returns the raw name/oid bytes; valid only when IsMark is false.
func (r Ref) Raw() []byte { return r.raw }

// Clone deep-copies the reference's borrowed bytes, if any.
func (r Ref) Clone() Ref {
	if r.raw == nil {
		return r
	}
	return Ref{raw: append([]byte(nil), r.raw...)}
}

// ParseRef parses a ref operand: a mark if it begins with ':', else a raw
// name or object id.
func ParseRef(b []byte) (Ref, error) {
	if len(b) > 0 && b[0] == ':' {
		m, err := ParseMark(b[1:])
		if err != nil {
			return Ref{}, err
		}
		return Ref{mark: m}, nil
	}
	return Ref{raw: b}, nil
}

// Identity is a person identity: name, email, and the raw (unparsed) date.
// Date-format dispatch is a higher-layer concern; this layer only carries
// the bytes as written.
type Identity struct {
	Name  []byte
	Email []byte
	Date  []byte
}

// Clone deep-copies an Identity's borrowed bytes.
func (id Identity) Clone() Identity {
	return Identity{
		Name:  append([]byte(nil), id.Name...),
		Email: append([]byte(nil), id.Email...),
		Date:  append([]byte(nil), id.Date...),
	}
}

// parseIdentity parses "NAME <EMAIL> DATE". '<' may be at the start of the
// string (empty name); otherwise it must be preceded by a space. A space
// after '>' is dropped from the date when present, but its absence is not
// rejected.
//
// Corresponds to split_ident_line in ident.c.
func parseIdentity(b []byte) (Identity, error) {
	if bytes.IndexByte(b, 0) >= 0 {
		return Identity{}, &ParseError{Kind: ErrIdentContainsNul, Line: b}
	}
	lt := bytes.IndexByte(b, '<')
	if lt < 0 {
		return Identity{}, &ParseError{Kind: ErrIdentMissingLt, Line: b}
	}
	if lt > 0 && b[lt-1] != ' ' {
		return Identity{}, &ParseError{Kind: ErrIdentMissingSpace, Line: b}
	}
	gt := bytes.IndexByte(b[lt:], '>')
	if gt < 0 {
		return Identity{}, &ParseError{Kind: ErrIdentMissingGt, Line: b}
	}
	gt += lt
	name := b[:lt]
	if len(name) > 0 {
		name = name[:len(name)-1] // drop the space before '<'
	}
	email := b[lt+1 : gt]
	date := b[gt+1:]
	if len(date) > 0 && date[0] == ' ' {
		date = date[1:]
	}
	return Identity{Name: name, Email: email, Date: date}, nil
}

// --- Commands ---

type Blob struct {
	Mark        Mark
	OriginalOid []byte
	Data        DataStream
}

func (*Blob) isCommand() {}

type Commit struct {
	Branch      []byte
	Mark        Mark
	OriginalOid []byte
	Author      *Identity
	Committer   Identity
	Encoding    []byte
	Message     []byte
	From        *CommitRef
	Merge       []CommitRef

	parser *Parser
}

func (*Commit) isCommand() {}

// Changes returns the sub-iterator over this commit's file-change records.
// It must be fully drained (until it returns nil, nil) before the next call
// to Parser.Next.
func (c *Commit) Changes() *ChangeIter {
	return &ChangeIter{parser: c.parser}
}

type Tag struct {
	Name        []byte
	Mark        Mark
	From        ObjectRef
	OriginalOid []byte
	Tagger      *Identity
	Message     []byte
}

func (*Tag) isCommand() {}

type Reset struct {
	Branch []byte
	From   *CommitRef
}

func (*Reset) isCommand() {}

type Ls struct {
	Root TreeRef
	Path []byte
}

func (*Ls) isCommand() {}

type CatBlob struct {
	Blob BlobRef
}

func (*CatBlob) isCommand() {}

type GetMark struct {
	Mark Mark
}

func (*GetMark) isCommand() {}

type Checkpoint struct{}

func (*Checkpoint) isCommand() {}

type DoneReason int

const (
	DoneExplicit DoneReason = iota
	DoneEof
)

type Done struct {
	Reason DoneReason
}

func (*Done) isCommand() {}

type Alias struct {
	Mark Mark
	To   ObjectRef
}

func (*Alias) isCommand() {}

type Progress struct {
	Message []byte
}

func (*Progress) isCommand() {}

// FeatureKind enumerates the closed set of feature tokens from spec.md §6.
type FeatureKind int

const (
	FeatureOther FeatureKind = iota
	FeatureDateFormat
	FeatureImportMarks
	FeatureExportMarks
	FeatureAlias
	FeatureRewriteSubmodulesTo
	FeatureRewriteSubmodulesFrom
	FeatureGetMark
	FeatureCatBlob
	FeatureRelativeMarks
	FeatureNoRelativeMarks
	FeatureDone
	FeatureForce
	FeatureNotes
	FeatureLs
)

type DateFormat int

const (
	DateFormatRaw DateFormat = iota
	DateFormatRawPermissive
	DateFormatRFC2822
	DateFormatNow
)

type Feature struct {
	Kind FeatureKind

	DateFormat    DateFormat
	Path          []byte // ImportMarks / ExportMarks
	IgnoreMissing bool   // ImportMarks: import-marks-if-exists
	SubmoduleName []byte // RewriteSubmodulesTo/From
	SubmodulePath []byte
	Other         []byte // raw token, for FeatureOther
}

func (*Feature) isCommand() {}

// OptionGitKind enumerates the closed set of `option git` operands from
// spec.md §6.
type OptionGitKind int

const (
	OptionMaxPackSize OptionGitKind = iota
	OptionBigFileThreshold
	OptionDepth
	OptionActiveBranches
	OptionExportPackEdges
	OptionQuiet
	OptionStats
	OptionAllowUnsafeFeatures
)

type OptionGit struct {
	Kind OptionGitKind

	Size       FileSize // MaxPackSize / BigFileThreshold
	N          uint32   // Depth / ActiveBranches
	PackEdges  []byte   // ExportPackEdges
}

func (*OptionGit) isCommand() {}

type OptionOther struct {
	Option []byte
}

func (*OptionOther) isCommand() {}

// --- Commit file-change records ---

// FileChange is the closed set of records produced by a commit's change
// sub-iterator.
type FileChange interface {
	isFileChange()
}

// DataRef is the data-source operand of M and N: either literal inline
// data (followed immediately by a nested `data` directive), or a reference
// to previously-seen content.
type DataRef struct {
	Inline bool
	Ref    BlobRef
}

type FileModify struct {
	DataRef DataRef
	Mode    Mode
	Path    []byte
}

func (FileModify) isFileChange() {}

type FileDelete struct {
	Path []byte
}

func (FileDelete) isFileChange() {}

type FileRename struct {
	Source []byte
	Dest   []byte
}

func (FileRename) isFileChange() {}

type FileCopy struct {
	Source []byte
	Dest   []byte
}

func (FileCopy) isFileChange() {}

type FileDeleteAll struct{}

func (FileDeleteAll) isFileChange() {}

type NoteModify struct {
	DataRef DataRef
	Commit  CommitRef
}

func (NoteModify) isFileChange() {}

type CommitLs struct {
	Root TreeRef // IsMark()==false && Raw()==nil means "current commit tree"
	Path []byte
}

func (CommitLs) isFileChange() {}

type CommitCatBlob struct {
	Blob BlobRef
}

func (CommitCatBlob) isFileChange() {}

func parseUint64(b []byte) (uint64, bool) {
	if len(b) == 0 || b[0] == '+' {
		return 0, false
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if v > (math.MaxUint64-d)/10 {
			return 0, false // overflow
		}
		v = v*10 + d
	}
	return v, true
}

// parseUint32 is parseUint64 narrowed to uint32, rejecting values that would
// silently truncate (e.g. `option git depth=4294967296` becoming 0).
func parseUint32(b []byte) (uint32, bool) {
	v, ok := parseUint64(b)
	if !ok || v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

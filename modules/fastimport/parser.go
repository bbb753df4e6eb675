package fastimport

import (
	"bytes"
	"io"
	"sync/atomic"
)

// Parser is a streaming, zero-copy pull parser for the fast-import wire
// format. Callers drive it with repeated calls to Next; every returned
// Command borrows from the parser's internal buffers and is invalidated by
// the next call.
//
// Corresponds to Parser<R> in the reference parser (parse/parser.rs),
// restructured to read directives through a bufInput (pool-backed, §4.3)
// rather than a single growable command buffer, per the buffer-pool design
// in spec.md §4.1.
type Parser struct {
	in         *bufInput
	dataState  dataState
	dataOpened atomic.Bool

	// hasOptionalLF records that the command just parsed permits a
	// trailing blank line, to be consumed at the head of the next call to
	// Next (matching the reference implementation's placement, not the
	// prose documentation's).
	hasOptionalLF bool

	msgBuf    []byte      // scratch for eagerly-read commit/tag messages
	mergeBuf  []CommitRef // scratch for a commit's merge refs
}

// ParserOption configures a Parser constructed by NewParser.
type ParserOption func(*parserConfig)

type parserConfig struct {
	contextLines int
}

// WithContextLines overrides the number of preceding lines retained for
// crash-dump diagnostics (see bufInput.truncateContext). n must be >= 0;
// the default is defaultContextLinesBefore.
func WithContextLines(n int) ParserOption {
	return func(c *parserConfig) { c.contextLines = n }
}

// NewParser creates a Parser reading from r.
func NewParser(r io.Reader, opts ...ParserOption) *Parser {
	cfg := parserConfig{contextLines: defaultContextLinesBefore}
	for _, opt := range opts {
		opt(&cfg)
	}
	// The initial data state is an already-exhausted counted stream of
	// length zero, not its zero value (which would default to the
	// delimited form and make the first call to Next try to skip a
	// nonexistent stream by scanning for an empty-string delimiter).
	return &Parser{in: newBufInput(r, cfg.contextLines), dataState: dataState{counted: true}}
}

// Next parses the next command. It returns a *Done with DoneEof once the
// input is exhausted and DoneEof again on every subsequent call.
//
// Corresponds to the loop in cmd_fast_import in fast-import.c.
func (p *Parser) Next() (Command, error) {
	if !p.dataState.finished {
		if p.dataOpened.Load() {
			return nil, &ParseError{Kind: ErrUnfinishedData}
		}
		if _, err := p.in.skipData(&p.dataState); err != nil {
			return nil, err
		}
	}

	p.in.truncateContext()

	line, err := p.in.nextDirective()
	if err != nil {
		return nil, err
	}

	if p.hasOptionalLF {
		p.hasOptionalLF = false
		if len(line) == 0 {
			line, err = p.in.nextDirective()
			if err != nil {
				return nil, err
			}
		}
	}

	// EOF takes priority over the line's content: the final read before
	// EOF can itself yield an empty line (no trailing delimiter), which
	// must not be mistaken for a blank directive.
	if p.in.atEOF() {
		return &Done{Reason: DoneEof}, nil
	}

	switch {
	case bytes.Equal(line, []byte("blob")):
		return p.parseBlob()
	case bytes.HasPrefix(line, []byte("commit ")):
		return p.parseCommit(line[len("commit "):])
	case bytes.HasPrefix(line, []byte("tag ")):
		return p.parseTag(line[len("tag "):])
	case bytes.HasPrefix(line, []byte("reset ")):
		return p.parseReset(line[len("reset "):])
	case bytes.HasPrefix(line, []byte("ls ")):
		return p.parseLs(line[len("ls "):])
	case bytes.HasPrefix(line, []byte("cat-blob ")):
		return p.parseCatBlob(line[len("cat-blob "):])
	case bytes.HasPrefix(line, []byte("get-mark ")):
		return p.parseGetMark(line[len("get-mark "):])
	case bytes.Equal(line, []byte("checkpoint")):
		p.hasOptionalLF = true
		return &Checkpoint{}, nil
	case bytes.Equal(line, []byte("done")):
		return &Done{Reason: DoneExplicit}, nil
	case bytes.Equal(line, []byte("alias")):
		return p.parseAlias()
	case bytes.HasPrefix(line, []byte("progress ")):
		p.hasOptionalLF = true
		return &Progress{Message: line[len("progress "):]}, nil
	case bytes.HasPrefix(line, []byte("feature ")):
		f, err := parseFeatureToken(line[len("feature "):])
		if err != nil {
			return nil, err
		}
		return &f, nil
	case bytes.HasPrefix(line, []byte("option ")):
		return p.parseOption(line[len("option "):])
	case len(line) == 0:
		return nil, &ParseError{Kind: ErrUnexpectedBlank}
	default:
		return nil, &ParseError{Kind: ErrUnrecognizedCommand, Line: line}
	}
}

// --- sub-directive combinators ---

// parseMarkDirective consumes an optional "mark :N" directive.
//
// Corresponds to parse_mark in fast-import.c.
func (p *Parser) parseMarkDirective() (Mark, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return 0, err
	}
	const prefix = "mark :"
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return 0, nil
	}
	p.in.bumpDirective()
	return ParseMark(line[len(prefix):])
}

// parseOriginalOidDirective consumes an optional "original-oid OID"
// directive.
func (p *Parser) parseOriginalOidDirective() ([]byte, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	const prefix = "original-oid "
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, nil
	}
	p.in.bumpDirective()
	return line[len(prefix):], nil
}

func (p *Parser) parseIdentityDirective(prefix string) (*Identity, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, nil
	}
	p.in.bumpDirective()
	id, err := parseIdentity(line[len(prefix):])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (p *Parser) parseEncodingDirective() ([]byte, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	const prefix = "encoding "
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, nil
	}
	p.in.bumpDirective()
	enc := line[len(prefix):]
	if bytes.IndexByte(enc, 0) >= 0 {
		return nil, &ParseError{Kind: ErrEncodingContainsNul, Line: line}
	}
	return enc, nil
}

func (p *Parser) parseFromDirective() (*CommitRef, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	const prefix = "from "
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, nil
	}
	p.in.bumpDirective()
	ref, err := ParseRef(line[len(prefix):])
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (p *Parser) parseMergeDirectives() ([]CommitRef, error) {
	p.mergeBuf = p.mergeBuf[:0]
	const prefix = "merge "
	for {
		line, err := p.in.peekDirective()
		if err != nil {
			return nil, err
		}
		if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
			return p.mergeBuf, nil
		}
		p.in.bumpDirective()
		ref, err := ParseRef(line[len(prefix):])
		if err != nil {
			return nil, err
		}
		p.mergeBuf = append(p.mergeBuf, ref)
	}
}

// parseDataHeader parses a required "data ..." directive, reporting
// missingKind if it is absent, and initializes the data-stream state.
//
// Corresponds to parse_and_store_blob in fast-import.c.
func (p *Parser) parseDataHeader(missingKind ParseErrorKind) (DataHeader, error) {
	line, err := p.in.peekDirective()
	if err != nil {
		return DataHeader{}, err
	}
	const prefix = "data "
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return DataHeader{}, &ParseError{Kind: missingKind, Line: line}
	}
	p.in.bumpDirective()
	rest := line[len(prefix):]
	var header DataHeader
	if bytes.HasPrefix(rest, []byte("<<")) {
		delim := rest[2:]
		if len(delim) == 0 {
			return DataHeader{}, &ParseError{Kind: ErrEmptyDelim, Line: line}
		}
		if bytes.IndexByte(delim, 0) >= 0 {
			return DataHeader{}, &ParseError{Kind: ErrDataDelimContainsNul, Line: line}
		}
		header = DataHeader{Delim: delim}
	} else {
		n, ok := parseUint64(rest)
		if !ok {
			return DataHeader{}, &ParseError{Kind: ErrInvalidDataLength, Line: line}
		}
		header = DataHeader{Len: n}
	}
	p.dataState.reset(header, &p.dataOpened)
	p.hasOptionalLF = true
	return header, nil
}

// parseMessageEager parses a required data section and reads it entirely
// into the parser's message scratch buffer, returning a slice valid until
// the next call to Next.
func (p *Parser) parseMessageEager(missingKind ParseErrorKind) ([]byte, error) {
	header, err := p.parseDataHeader(missingKind)
	if err != nil {
		return nil, err
	}
	p.msgBuf = p.msgBuf[:0]
	n, err := p.in.readDataToEnd(header, &p.msgBuf)
	if err != nil {
		return nil, err
	}
	p.dataState.lenRead = uint64(n)
	p.dataState.finished = true
	return p.msgBuf, nil
}

// --- command parsers ---

// Corresponds to parse_new_blob in fast-import.c.
func (p *Parser) parseBlob() (Command, error) {
	mark, err := p.parseMarkDirective()
	if err != nil {
		return nil, err
	}
	oid, err := p.parseOriginalOidDirective()
	if err != nil {
		return nil, err
	}
	header, err := p.parseDataHeader(ErrExpectedDataCommand)
	if err != nil {
		return nil, err
	}
	return &Blob{Mark: mark, OriginalOid: oid, Data: DataStream{header: header, parser: p}}, nil
}

// Corresponds to parse_new_commit in fast-import.c.
func (p *Parser) parseCommit(branch []byte) (Command, error) {
	if bytes.IndexByte(branch, 0) >= 0 {
		return nil, &ParseError{Kind: ErrBranchContainsNul, Line: branch}
	}
	mark, err := p.parseMarkDirective()
	if err != nil {
		return nil, err
	}
	oid, err := p.parseOriginalOidDirective()
	if err != nil {
		return nil, err
	}
	author, err := p.parseIdentityDirective("author ")
	if err != nil {
		return nil, err
	}
	committer, err := p.parseIdentityDirective("committer ")
	if err != nil {
		return nil, err
	}
	if committer == nil {
		return nil, &ParseError{Kind: ErrExpectedCommitCommitter}
	}
	encoding, err := p.parseEncodingDirective()
	if err != nil {
		return nil, err
	}
	msg, err := p.parseMessageEager(ErrExpectedCommitMessage)
	if err != nil {
		return nil, err
	}
	from, err := p.parseFromDirective()
	if err != nil {
		return nil, err
	}
	merges, err := p.parseMergeDirectives()
	if err != nil {
		return nil, err
	}
	return &Commit{
		Branch:      branch,
		Mark:        mark,
		OriginalOid: oid,
		Author:      author,
		Committer:   *committer,
		Encoding:    encoding,
		Message:     msg,
		From:        from,
		Merge:       merges,
		parser:      p,
	}, nil
}

// Corresponds to parse_new_tag in fast-import.c.
func (p *Parser) parseTag(name []byte) (Command, error) {
	if bytes.IndexByte(name, 0) >= 0 {
		return nil, &ParseError{Kind: ErrTagContainsNul, Line: name}
	}
	mark, err := p.parseMarkDirective()
	if err != nil {
		return nil, err
	}
	from, err := p.parseFromDirective()
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, &ParseError{Kind: ErrExpectedTagFrom}
	}
	oid, err := p.parseOriginalOidDirective()
	if err != nil {
		return nil, err
	}
	// tagger is optional here, as in the reference implementation, which
	// accepts its absence.
	tagger, err := p.parseIdentityDirective("tagger ")
	if err != nil {
		return nil, err
	}
	msg, err := p.parseMessageEager(ErrExpectedTagMessage)
	if err != nil {
		return nil, err
	}
	return &Tag{Name: name, Mark: mark, From: *from, OriginalOid: oid, Tagger: tagger, Message: msg}, nil
}

// Corresponds to parse_reset_branch in fast-import.c.
func (p *Parser) parseReset(branch []byte) (Command, error) {
	if bytes.IndexByte(branch, 0) >= 0 {
		return nil, &ParseError{Kind: ErrBranchContainsNul, Line: branch}
	}
	from, err := p.parseFromDirective()
	if err != nil {
		return nil, err
	}
	return &Reset{Branch: branch, From: from}, nil
}

// Corresponds to parse_ls in fast-import.c.
func (p *Parser) parseLs(args []byte) (Command, error) {
	root, path, err := parseLsArgs(args, false)
	if err != nil {
		return nil, err
	}
	return &Ls{Root: root, Path: path}, nil
}

// Corresponds to parse_cat_blob in fast-import.c.
func (p *Parser) parseCatBlob(args []byte) (Command, error) {
	ref, err := ParseRef(args)
	if err != nil {
		return nil, err
	}
	return &CatBlob{Blob: ref}, nil
}

// Corresponds to parse_get_mark in fast-import.c.
func (p *Parser) parseGetMark(args []byte) (Command, error) {
	if len(args) == 0 || args[0] != ':' {
		return nil, &ParseError{Kind: ErrMarkMissingColon, Line: args}
	}
	m, err := ParseMark(args[1:])
	if err != nil {
		return nil, err
	}
	return &GetMark{Mark: m}, nil
}

// Corresponds to parse_alias in fast-import.c.
func (p *Parser) parseAlias() (Command, error) {
	mark, err := p.parseMarkDirective()
	if err != nil {
		return nil, err
	}
	if mark == 0 {
		return nil, &ParseError{Kind: ErrExpectedAliasMark}
	}
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	const prefix = "to "
	if line == nil || !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, &ParseError{Kind: ErrExpectedAliasTo}
	}
	p.in.bumpDirective()
	to, err := ParseRef(line[len(prefix):])
	if err != nil {
		return nil, err
	}
	p.hasOptionalLF = true
	return &Alias{Mark: mark, To: to}, nil
}

// Corresponds to parse_option in fast-import.c.
func (p *Parser) parseOption(rest []byte) (Command, error) {
	const gitPrefix = "git "
	if !bytes.HasPrefix(rest, []byte(gitPrefix)) {
		return &OptionOther{Option: rest}, nil
	}
	return parseGitOption(rest[len(gitPrefix):])
}

func parseGitOption(rest []byte) (Command, error) {
	switch {
	case bytes.HasPrefix(rest, []byte("max-pack-size=")):
		size, err := ParseFileSize(string(rest[len("max-pack-size="):]))
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidOptionFileSize, Line: rest}
		}
		return &OptionGit{Kind: OptionMaxPackSize, Size: size}, nil
	case bytes.HasPrefix(rest, []byte("big-file-threshold=")):
		size, err := ParseFileSize(string(rest[len("big-file-threshold="):]))
		if err != nil {
			return nil, &ParseError{Kind: ErrInvalidOptionFileSize, Line: rest}
		}
		return &OptionGit{Kind: OptionBigFileThreshold, Size: size}, nil
	case bytes.HasPrefix(rest, []byte("depth=")):
		n, ok := parseUint32(rest[len("depth="):])
		if !ok {
			return nil, &ParseError{Kind: ErrInvalidOptionInt, Line: rest}
		}
		return &OptionGit{Kind: OptionDepth, N: n}, nil
	case bytes.HasPrefix(rest, []byte("active-branches=")):
		n, ok := parseUint32(rest[len("active-branches="):])
		if !ok {
			return nil, &ParseError{Kind: ErrInvalidOptionInt, Line: rest}
		}
		return &OptionGit{Kind: OptionActiveBranches, N: n}, nil
	case bytes.HasPrefix(rest, []byte("export-pack-edges=")):
		return &OptionGit{Kind: OptionExportPackEdges, PackEdges: rest[len("export-pack-edges="):]}, nil
	case bytes.Equal(rest, []byte("quiet")):
		return &OptionGit{Kind: OptionQuiet}, nil
	case bytes.Equal(rest, []byte("stats")):
		return &OptionGit{Kind: OptionStats}, nil
	case bytes.Equal(rest, []byte("allow-unsafe-features")):
		return &OptionGit{Kind: OptionAllowUnsafeFeatures}, nil
	default:
		return nil, &ParseError{Kind: ErrUnsupportedGitOption, Line: rest}
	}
}

func parseFeatureToken(tok []byte) (Feature, error) {
	switch {
	case bytes.HasPrefix(tok, []byte("date-format=")):
		v := tok[len("date-format="):]
		var df DateFormat
		switch string(v) {
		case "raw":
			df = DateFormatRaw
		case "raw-permissive":
			df = DateFormatRawPermissive
		case "rfc2822":
			df = DateFormatRFC2822
		case "now":
			df = DateFormatNow
		default:
			return Feature{}, &ParseError{Kind: ErrInvalidDateFormat, Line: tok}
		}
		return Feature{Kind: FeatureDateFormat, DateFormat: df}, nil
	case bytes.HasPrefix(tok, []byte("import-marks-if-exists=")):
		return Feature{Kind: FeatureImportMarks, Path: tok[len("import-marks-if-exists="):], IgnoreMissing: true}, nil
	case bytes.HasPrefix(tok, []byte("import-marks=")):
		return Feature{Kind: FeatureImportMarks, Path: tok[len("import-marks="):]}, nil
	case bytes.HasPrefix(tok, []byte("export-marks=")):
		return Feature{Kind: FeatureExportMarks, Path: tok[len("export-marks="):]}, nil
	case bytes.Equal(tok, []byte("alias")):
		return Feature{Kind: FeatureAlias}, nil
	case bytes.HasPrefix(tok, []byte("rewrite-submodules-to=")):
		name, path, err := splitSubmoduleSpec(tok[len("rewrite-submodules-to="):])
		if err != nil {
			return Feature{}, err
		}
		return Feature{Kind: FeatureRewriteSubmodulesTo, SubmoduleName: name, SubmodulePath: path}, nil
	case bytes.HasPrefix(tok, []byte("rewrite-submodules-from=")):
		name, path, err := splitSubmoduleSpec(tok[len("rewrite-submodules-from="):])
		if err != nil {
			return Feature{}, err
		}
		return Feature{Kind: FeatureRewriteSubmodulesFrom, SubmoduleName: name, SubmodulePath: path}, nil
	case bytes.Equal(tok, []byte("get-mark")):
		return Feature{Kind: FeatureGetMark}, nil
	case bytes.Equal(tok, []byte("cat-blob")):
		return Feature{Kind: FeatureCatBlob}, nil
	case bytes.Equal(tok, []byte("relative-marks")):
		return Feature{Kind: FeatureRelativeMarks}, nil
	case bytes.Equal(tok, []byte("no-relative-marks")):
		return Feature{Kind: FeatureNoRelativeMarks}, nil
	case bytes.Equal(tok, []byte("done")):
		return Feature{Kind: FeatureDone}, nil
	case bytes.Equal(tok, []byte("force")):
		return Feature{Kind: FeatureForce}, nil
	case bytes.Equal(tok, []byte("notes")):
		return Feature{Kind: FeatureNotes}, nil
	case bytes.Equal(tok, []byte("ls")):
		return Feature{Kind: FeatureLs}, nil
	default:
		return Feature{Kind: FeatureOther, Other: tok}, nil
	}
}

func splitSubmoduleSpec(spec []byte) (name, path []byte, err error) {
	if bytes.IndexByte(spec, 0) >= 0 {
		return nil, nil, &ParseError{Kind: ErrRewriteSubmodulesContainsNul, Line: spec}
	}
	i := bytes.IndexByte(spec, ':')
	if i < 0 {
		return nil, nil, &ParseError{Kind: ErrRewriteSubmodulesNoColon, Line: spec}
	}
	return spec[:i], spec[i+1:], nil
}

// parseLsArgs parses the operands of an `ls` directive: at top level,
// "<dataref> SP <path>"; within a commit, just "<path>" (relative to the
// commit currently being built, so Root is the zero Ref).
func parseLsArgs(args []byte, withinCommit bool) (TreeRef, []byte, error) {
	if withinCommit {
		path, ok := unquoteEOL(args)
		if !ok {
			return TreeRef{}, nil, &ParseError{Kind: ErrJunkAfterPath, Line: args}
		}
		if bytes.IndexByte(path, 0) >= 0 {
			return TreeRef{}, nil, &ParseError{Kind: ErrPathContainsNul, Line: args}
		}
		return TreeRef{}, path, nil
	}
	root, path, ok := splitAtSpace(args)
	if !ok {
		return TreeRef{}, nil, &ParseError{Kind: ErrNoSpaceAfterDataRef, Line: args}
	}
	ref, err := ParseRef(root)
	if err != nil {
		return TreeRef{}, nil, err
	}
	p, ok := unquoteEOL(path)
	if !ok {
		return TreeRef{}, nil, &ParseError{Kind: ErrJunkAfterPath, Line: args}
	}
	if bytes.IndexByte(p, 0) >= 0 {
		return TreeRef{}, nil, &ParseError{Kind: ErrPathContainsNul, Line: args}
	}
	return ref, p, nil
}

func splitAtSpace(b []byte) (before, after []byte, ok bool) {
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return nil, nil, false
	}
	return b[:i], b[i+1:], true
}

// unquoteSpace parses a possibly-quoted string followed by a single space,
// matching fast-import's bug-compatible precedence: it treats the string as
// quoted only when a quoted parse succeeds, else splits on the first space.
func unquoteSpace(s []byte) (before, after []byte, ok bool) {
	if len(s) > 0 && s[0] == '"' {
		unquoted, rest, err := unquoteCStyleString(s, nil)
		if err == nil {
			if len(rest) == 0 || rest[0] != ' ' {
				return nil, nil, false
			}
			return unquoted, rest[1:], true
		}
	}
	return splitAtSpace(s)
}

// unquoteEOL parses a possibly-quoted string that must span the rest of s.
func unquoteEOL(s []byte) ([]byte, bool) {
	if len(s) > 0 && s[0] == '"' {
		unquoted, rest, err := unquoteCStyleString(s, nil)
		if err == nil {
			if len(rest) != 0 {
				return nil, false
			}
			return unquoted, true
		}
	}
	// BUG-COMPAT: an unquoted path is taken as-is, spaces and all.
	return s, true
}

// --- commit file-change sub-iterator ---

// ChangeIter iterates a commit's file-change records. Call Next repeatedly
// until it returns (nil, nil); the sub-iterator must be fully drained
// before the next call to Parser.Next.
//
// Corresponds to ChangeIter<'a, R> in the reference parser (parse/commit.rs).
type ChangeIter struct {
	parser *Parser
}

// Next parses and returns the next file-change record, or (nil, nil) once
// the commit's change list is exhausted (the directive that ended it is
// left unread for the parser's next top-level call).
func (c *ChangeIter) Next() (FileChange, error) {
	p := c.parser
	line, err := p.in.peekDirective()
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, nil
	}
	switch {
	case bytes.HasPrefix(line, []byte("M ")):
		p.in.bumpDirective()
		return p.parseFileModify(line[len("M "):])
	case bytes.HasPrefix(line, []byte("D ")):
		p.in.bumpDirective()
		path, ok := unquoteEOL(line[len("D "):])
		if !ok {
			return nil, &ParseError{Kind: ErrJunkAfterPath, Line: line}
		}
		if bytes.IndexByte(path, 0) >= 0 {
			return nil, &ParseError{Kind: ErrPathContainsNul, Line: line}
		}
		return FileDelete{Path: path}, nil
	case bytes.HasPrefix(line, []byte("R ")):
		p.in.bumpDirective()
		src, dst, err := parseRenameCopyPair(line[len("R "):])
		if err != nil {
			return nil, err
		}
		return FileRename{Source: src, Dest: dst}, nil
	case bytes.HasPrefix(line, []byte("C ")):
		p.in.bumpDirective()
		src, dst, err := parseRenameCopyPair(line[len("C "):])
		if err != nil {
			return nil, err
		}
		return FileCopy{Source: src, Dest: dst}, nil
	case bytes.Equal(line, []byte("deleteall")):
		p.in.bumpDirective()
		return FileDeleteAll{}, nil
	case bytes.HasPrefix(line, []byte("N ")):
		p.in.bumpDirective()
		return p.parseNoteModify(line[len("N "):])
	case bytes.HasPrefix(line, []byte("ls ")):
		p.in.bumpDirective()
		root, path, err := parseLsArgs(line[len("ls "):], true)
		if err != nil {
			return nil, err
		}
		return CommitLs{Root: root, Path: path}, nil
	case bytes.HasPrefix(line, []byte("cat-blob ")):
		p.in.bumpDirective()
		ref, err := ParseRef(line[len("cat-blob "):])
		if err != nil {
			return nil, err
		}
		return CommitCatBlob{Blob: ref}, nil
	default:
		return nil, nil
	}
}

// Corresponds to file_change_m in fast-import.c.
//
// TODO: an inline DataRef is followed by a nested data section on the wire;
// this does not yet consume it, matching the reference parser's own
// unfinished state here.
func (p *Parser) parseFileModify(args []byte) (FileChange, error) {
	modeText, rest, ok := splitAtSpace(args)
	if !ok {
		return nil, &ParseError{Kind: ErrNoSpaceAfterMode, Line: args}
	}
	mode, err := ParseMode(modeText)
	if err != nil {
		return nil, err
	}
	refText, pathText, ok := splitAtSpace(rest)
	if !ok {
		return nil, &ParseError{Kind: ErrNoSpaceAfterDataRef, Line: args}
	}
	dataRef, err := parseDataRef(refText)
	if err != nil {
		return nil, err
	}
	path, ok := unquoteEOL(pathText)
	if !ok {
		return nil, &ParseError{Kind: ErrJunkAfterPath, Line: args}
	}
	if bytes.IndexByte(path, 0) >= 0 {
		return nil, &ParseError{Kind: ErrPathContainsNul, Line: args}
	}
	return FileModify{DataRef: dataRef, Mode: mode, Path: path}, nil
}

// Corresponds to note_change_n in fast-import.c. Inline note data is not
// yet consumed, for the same reason as parseFileModify above.
func (p *Parser) parseNoteModify(args []byte) (FileChange, error) {
	refText, commitText, ok := splitAtSpace(args)
	if !ok {
		return nil, &ParseError{Kind: ErrNoSpaceAfterDataRef, Line: args}
	}
	dataRef, err := parseDataRef(refText)
	if err != nil {
		return nil, err
	}
	commit, err := ParseRef(commitText)
	if err != nil {
		return nil, err
	}
	return NoteModify{DataRef: dataRef, Commit: commit}, nil
}

func parseDataRef(b []byte) (DataRef, error) {
	if bytes.Equal(b, []byte("inline")) {
		return DataRef{Inline: true}, nil
	}
	ref, err := ParseRef(b)
	if err != nil {
		return DataRef{}, err
	}
	return DataRef{Ref: ref}, nil
}

// Corresponds to file_change_cr in fast-import.c.
func parseRenameCopyPair(paths []byte) (source, dest []byte, err error) {
	src, rest, ok := unquoteSpace(paths)
	if !ok {
		return nil, nil, &ParseError{Kind: ErrNoSpaceAfterSource, Line: paths}
	}
	if bytes.IndexByte(src, 0) >= 0 {
		return nil, nil, &ParseError{Kind: ErrPathContainsNul, Line: paths}
	}
	if len(rest) == 0 {
		return nil, nil, &ParseError{Kind: ErrMissingDest, Line: paths}
	}
	dst, ok := unquoteEOL(rest)
	if !ok {
		return nil, nil, &ParseError{Kind: ErrJunkAfterPath, Line: paths}
	}
	if bytes.IndexByte(dst, 0) >= 0 {
		return nil, nil, &ParseError{Kind: ErrPathContainsNul, Line: paths}
	}
	return src, dst, nil
}

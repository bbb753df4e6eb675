package fastimport

import (
	"bytes"
	"fmt"
	"io"
)

// EmitData is the owned payload of a data section, for use with the
// emitter, which — unlike the parser — works against whole values rather
// than a live byte source. A non-nil Delim requests delimited framing;
// the emitter falls back to counted framing when the payload does not
// satisfy the delimited-form preconditions (§4.8).
//
// Corresponds to Data<'a> in the reference command model (src/command.rs).
type EmitData struct {
	Bytes []byte
	Delim []byte
}

// validate reports whether Bytes/Delim satisfy the delimited-form
// preconditions: the payload ends with LF, contains no NUL, and contains
// no line equal to the delimiter; the delimiter itself is non-empty and
// NUL-free.
//
// Corresponds to Data::validate_delim in src/command.rs.
func (d EmitData) validate() bool {
	if d.Delim == nil || len(d.Delim) == 0 {
		return false
	}
	if bytes.IndexByte(d.Delim, 0) >= 0 {
		return false
	}
	if len(d.Bytes) == 0 || d.Bytes[len(d.Bytes)-1] != '\n' {
		return false
	}
	if bytes.IndexByte(d.Bytes, 0) >= 0 {
		return false
	}
	for _, line := range bytes.Split(d.Bytes[:len(d.Bytes)-1], []byte{'\n'}) {
		if bytes.Equal(line, d.Delim) {
			return false
		}
	}
	return true
}

// writeData writes a `data` directive and its payload, choosing delimited
// framing only when it round-trips; the optional trailing LF (either form)
// is always written.
func writeData(w io.Writer, d EmitData) (int, error) {
	if d.validate() {
		total := 0
		n, err := fmt.Fprintf(w, "data <<%s\n", d.Delim)
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write(d.Bytes)
		total += n
		if err != nil {
			return total, err
		}
		n, err = fmt.Fprintf(w, "%s\n\n", d.Delim)
		return total + n, err
	}
	total := 0
	n, err := fmt.Fprintf(w, "data %d\n", len(d.Bytes))
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(d.Bytes)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// quotePath renders path for use in an M/D/R/C/N/ls line. It is written
// unquoted whenever that round-trips: unquoteEOL accepts a bare remainder
// as-is, so only mustQuoteSpace (rename/copy's space-delimited source
// operand) forces quoting on an embedded space.
func quotePath(path []byte, mustQuoteSpace bool) []byte {
	needsQuote := bytes.IndexByte(path, '"') >= 0 ||
		bytes.IndexByte(path, '\\') >= 0 ||
		bytes.IndexByte(path, 0) >= 0
	for _, b := range path {
		if b < 0x20 || b == 0x7f {
			needsQuote = true
		}
	}
	if mustQuoteSpace && bytes.IndexByte(path, ' ') >= 0 {
		needsQuote = true
	}
	if !needsQuote {
		return path
	}
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, b := range path {
		switch b {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte('"')
	return buf.Bytes()
}

func writeRef(w io.Writer, r Ref) (int, error) {
	if r.IsMark() {
		return fmt.Fprintf(w, ":%d", r.MarkValue())
	}
	return w.Write(r.Raw())
}

func writeIdentity(w io.Writer, prefix string, id Identity) (int, error) {
	total, err := fmt.Fprintf(w, "%s ", prefix)
	if err != nil {
		return total, err
	}
	n, err := w.Write(id.Name)
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, " <")
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(id.Email)
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprintf(w, "> ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(id.Date)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitBlob writes a blob command. Mark of zero omits the `mark` line.
func EmitBlob(w io.Writer, mark Mark, originalOid []byte, data EmitData) (int, error) {
	total, err := fmt.Fprint(w, "blob\n")
	if err != nil {
		return total, err
	}
	if mark != 0 {
		n, err := fmt.Fprintf(w, "mark :%d\n", mark)
		total += n
		if err != nil {
			return total, err
		}
	}
	if originalOid != nil {
		n, err := fmt.Fprintf(w, "original-oid %s\n", originalOid)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := writeData(w, data)
	return total + n, err
}

// EmitChange is the closed set of owned file-change records the emitter
// accepts for a commit body, mirroring FileChange but owning its payload
// directly rather than through a parser-bound DataStream.
type EmitChange interface {
	isEmitChange()
}

// EmitFileModify mirrors FileModify. When Inline is true, InlineData is
// written as a nested data section in place of a dataref.
type EmitFileModify struct {
	Mode       Mode
	Path       []byte
	Inline     bool
	Ref        BlobRef
	InlineData EmitData
}

func (EmitFileModify) isEmitChange() {}

type EmitFileDelete struct{ Path []byte }

func (EmitFileDelete) isEmitChange() {}

type EmitFileRename struct{ Source, Dest []byte }

func (EmitFileRename) isEmitChange() {}

type EmitFileCopy struct{ Source, Dest []byte }

func (EmitFileCopy) isEmitChange() {}

type EmitFileDeleteAll struct{}

func (EmitFileDeleteAll) isEmitChange() {}

type EmitNoteModify struct {
	Inline     bool
	Ref        BlobRef
	InlineData EmitData
	Commit     CommitRef
}

func (EmitNoteModify) isEmitChange() {}

func writeDataRef(w io.Writer, inline bool, ref BlobRef) (int, error) {
	if inline {
		return fmt.Fprint(w, "inline")
	}
	return writeRef(w, ref)
}

func emitChange(w io.Writer, ch EmitChange) (int, error) {
	switch c := ch.(type) {
	case EmitFileModify:
		total, err := fmt.Fprintf(w, "M %s ", c.Mode)
		if err != nil {
			return total, err
		}
		n, err := writeDataRef(w, c.Inline, c.Ref)
		total += n
		if err != nil {
			return total, err
		}
		n, err = fmt.Fprint(w, " ")
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write(quotePath(c.Path, false))
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write([]byte{'\n'})
		total += n
		if err != nil {
			return total, err
		}
		if c.Inline {
			n, err = writeData(w, c.InlineData)
			total += n
		}
		return total, err
	case EmitFileDelete:
		total, err := fmt.Fprint(w, "D ")
		if err != nil {
			return total, err
		}
		n, err := w.Write(quotePath(c.Path, false))
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write([]byte{'\n'})
		return total + n, err
	case EmitFileRename:
		return writeRenameOrCopy(w, "R ", c.Source, c.Dest)
	case EmitFileCopy:
		return writeRenameOrCopy(w, "C ", c.Source, c.Dest)
	case EmitFileDeleteAll:
		return fmt.Fprint(w, "deleteall\n")
	case EmitNoteModify:
		total, err := fmt.Fprint(w, "N ")
		if err != nil {
			return total, err
		}
		n, err := writeDataRef(w, c.Inline, c.Ref)
		total += n
		if err != nil {
			return total, err
		}
		n, err = fmt.Fprint(w, " ")
		total += n
		if err != nil {
			return total, err
		}
		n, err = writeRef(w, c.Commit)
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write([]byte{'\n'})
		total += n
		if err != nil {
			return total, err
		}
		if c.Inline {
			n, err = writeData(w, c.InlineData)
			total += n
		}
		return total, err
	default:
		return 0, fmt.Errorf("fastimport: unknown EmitChange %T", ch)
	}
}

func writeRenameOrCopy(w io.Writer, keyword string, source, dest []byte) (int, error) {
	total, err := fmt.Fprint(w, keyword)
	if err != nil {
		return total, err
	}
	n, err := w.Write(quotePath(source, true))
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprint(w, " ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(quotePath(dest, false))
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitCommitSpec is the owned form of a commit command for emission,
// mirroring Commit but carrying its message and changes directly instead
// of through a parser-bound reader/sub-iterator.
type EmitCommitSpec struct {
	Branch      []byte
	Mark        Mark
	OriginalOid []byte
	Author      *Identity
	Committer   Identity
	Encoding    []byte
	Message     EmitData
	From        *CommitRef
	Merge       []CommitRef
	Changes     []EmitChange
}

// EmitCommit writes a commit command and its file changes.
func EmitCommit(w io.Writer, c EmitCommitSpec) (int, error) {
	total, err := fmt.Fprintf(w, "commit %s\n", c.Branch)
	if err != nil {
		return total, err
	}
	if c.Mark != 0 {
		n, err := fmt.Fprintf(w, "mark :%d\n", c.Mark)
		total += n
		if err != nil {
			return total, err
		}
	}
	if c.OriginalOid != nil {
		n, err := fmt.Fprintf(w, "original-oid %s\n", c.OriginalOid)
		total += n
		if err != nil {
			return total, err
		}
	}
	if c.Author != nil {
		n, err := writeIdentity(w, "author", *c.Author)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := writeIdentity(w, "committer", c.Committer)
	total += n
	if err != nil {
		return total, err
	}
	if c.Encoding != nil {
		n, err := fmt.Fprintf(w, "encoding %s\n", c.Encoding)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = writeData(w, c.Message)
	total += n
	if err != nil {
		return total, err
	}
	if c.From != nil {
		n, err := fmt.Fprint(w, "from ")
		total += n
		if err != nil {
			return total, err
		}
		n, err = writeRef(w, *c.From)
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write([]byte{'\n'})
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, m := range c.Merge {
		n, err := fmt.Fprint(w, "merge ")
		total += n
		if err != nil {
			return total, err
		}
		n, err = writeRef(w, m)
		total += n
		if err != nil {
			return total, err
		}
		n, err = w.Write([]byte{'\n'})
		total += n
		if err != nil {
			return total, err
		}
	}
	for _, ch := range c.Changes {
		n, err := emitChange(w, ch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// EmitTag writes a tag command.
func EmitTag(w io.Writer, t *Tag) (int, error) {
	total, err := fmt.Fprintf(w, "tag %s\n", t.Name)
	if err != nil {
		return total, err
	}
	if t.Mark != 0 {
		n, err := fmt.Fprintf(w, "mark :%d\n", t.Mark)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err := fmt.Fprint(w, "from ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeRef(w, t.From)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	total += n
	if err != nil {
		return total, err
	}
	if t.OriginalOid != nil {
		n, err := fmt.Fprintf(w, "original-oid %s\n", t.OriginalOid)
		total += n
		if err != nil {
			return total, err
		}
	}
	if t.Tagger != nil {
		n, err := writeIdentity(w, "tagger", *t.Tagger)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = writeData(w, EmitData{Bytes: t.Message})
	return total + n, err
}

// EmitReset writes a reset command.
func EmitReset(w io.Writer, r *Reset) (int, error) {
	total, err := fmt.Fprintf(w, "reset %s\n", r.Branch)
	if err != nil {
		return total, err
	}
	if r.From == nil {
		return total, nil
	}
	n, err := fmt.Fprint(w, "from ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = writeRef(w, *r.From)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitCheckpoint, EmitDone, EmitProgress write their respective commands.
func EmitCheckpoint(w io.Writer) (int, error) { return fmt.Fprint(w, "checkpoint\n") }

func EmitDone(w io.Writer) (int, error) { return fmt.Fprint(w, "done\n") }

func EmitProgress(w io.Writer, p *Progress) (int, error) {
	return fmt.Fprintf(w, "progress %s\n", p.Message)
}

// EmitAlias writes an alias command.
func EmitAlias(w io.Writer, a *Alias) (int, error) {
	total, err := fmt.Fprintf(w, "alias\nmark :%d\nto ", a.Mark)
	if err != nil {
		return total, err
	}
	n, err := writeRef(w, a.To)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitLs writes a top-level ls command.
func EmitLs(w io.Writer, l *Ls) (int, error) {
	total, err := fmt.Fprint(w, "ls ")
	if err != nil {
		return total, err
	}
	n, err := writeRef(w, l.Root)
	total += n
	if err != nil {
		return total, err
	}
	n, err = fmt.Fprint(w, " ")
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(quotePath(l.Path, false))
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitCatBlob writes a top-level cat-blob command.
func EmitCatBlob(w io.Writer, c *CatBlob) (int, error) {
	total, err := fmt.Fprint(w, "cat-blob ")
	if err != nil {
		return total, err
	}
	n, err := writeRef(w, c.Blob)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitGetMark writes a get-mark command.
func EmitGetMark(w io.Writer, g *GetMark) (int, error) {
	return fmt.Fprintf(w, "get-mark :%d\n", g.Mark)
}

// EmitFeature writes a feature command.
func EmitFeature(w io.Writer, f *Feature) (int, error) {
	total, err := fmt.Fprint(w, "feature ")
	if err != nil {
		return total, err
	}
	var tok string
	switch f.Kind {
	case FeatureDateFormat:
		switch f.DateFormat {
		case DateFormatRaw:
			tok = "date-format=raw"
		case DateFormatRawPermissive:
			tok = "date-format=raw-permissive"
		case DateFormatRFC2822:
			tok = "date-format=rfc2822"
		case DateFormatNow:
			tok = "date-format=now"
		}
	case FeatureImportMarks:
		if f.IgnoreMissing {
			tok = "import-marks-if-exists=" + string(f.Path)
		} else {
			tok = "import-marks=" + string(f.Path)
		}
	case FeatureExportMarks:
		tok = "export-marks=" + string(f.Path)
	case FeatureAlias:
		tok = "alias"
	case FeatureRewriteSubmodulesTo:
		tok = "rewrite-submodules-to=" + string(f.SubmoduleName) + ":" + string(f.SubmodulePath)
	case FeatureRewriteSubmodulesFrom:
		tok = "rewrite-submodules-from=" + string(f.SubmoduleName) + ":" + string(f.SubmodulePath)
	case FeatureGetMark:
		tok = "get-mark"
	case FeatureCatBlob:
		tok = "cat-blob"
	case FeatureRelativeMarks:
		tok = "relative-marks"
	case FeatureNoRelativeMarks:
		tok = "no-relative-marks"
	case FeatureDone:
		tok = "done"
	case FeatureForce:
		tok = "force"
	case FeatureNotes:
		tok = "notes"
	case FeatureLs:
		tok = "ls"
	default:
		tok = string(f.Other)
	}
	n, err := fmt.Fprint(w, tok)
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write([]byte{'\n'})
	return total + n, err
}

// EmitOptionGit writes an `option git ...` command.
func EmitOptionGit(w io.Writer, o *OptionGit) (int, error) {
	switch o.Kind {
	case OptionMaxPackSize:
		return fmt.Fprintf(w, "option git max-pack-size=%s\n", o.Size)
	case OptionBigFileThreshold:
		return fmt.Fprintf(w, "option git big-file-threshold=%s\n", o.Size)
	case OptionDepth:
		return fmt.Fprintf(w, "option git depth=%d\n", o.N)
	case OptionActiveBranches:
		return fmt.Fprintf(w, "option git active-branches=%d\n", o.N)
	case OptionExportPackEdges:
		return fmt.Fprintf(w, "option git export-pack-edges=%s\n", o.PackEdges)
	case OptionQuiet:
		return fmt.Fprint(w, "option git quiet\n")
	case OptionStats:
		return fmt.Fprint(w, "option git stats\n")
	case OptionAllowUnsafeFeatures:
		return fmt.Fprint(w, "option git allow-unsafe-features\n")
	default:
		return 0, fmt.Errorf("fastimport: unknown OptionGitKind %d", o.Kind)
	}
}

// EmitOptionOther writes an opaque `option ...` command.
func EmitOptionOther(w io.Writer, o *OptionOther) (int, error) {
	return fmt.Fprintf(w, "option %s\n", o.Option)
}

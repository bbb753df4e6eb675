package fastimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOid = "3141592653589793238462643383279502884197"

func TestParseCountedBlob(t *testing.T) {
	input := "blob\nmark :42\noriginal-oid " + testOid + "\ndata 14\nHello, world!\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	blob, ok := cmd.(*Blob)
	require.True(t, ok)
	assert.EqualValues(t, 42, blob.Mark)
	assert.Equal(t, testOid, string(blob.OriginalOid))
	assert.False(t, blob.Data.Header().Delimited())
	assert.EqualValues(t, 14, blob.Data.Header().Len)

	r, err := blob.Data.Open()
	require.NoError(t, err)
	payload, err := r.ReadToEnd(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\n", string(payload))
	require.NoError(t, r.Close())

	done, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, &Done{Reason: DoneEof}, done)
}

func TestParseDelimitedBlob(t *testing.T) {
	input := "blob\nmark :42\noriginal-oid " + testOid + "\ndata <<EOF\nHello, world!\nEOF\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)
	require.True(t, blob.Data.Header().Delimited())
	assert.Equal(t, "EOF", string(blob.Data.Header().Delim))

	r, err := blob.Data.Open()
	require.NoError(t, err)
	payload, err := r.ReadToEnd(nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\n", string(payload))

	_, err = p.Next()
	require.NoError(t, err)
}

func TestPartialReadThenSkip(t *testing.T) {
	input := "blob\nmark :42\noriginal-oid " + testOid + "\ndata 14\nHello, world!\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)

	r, err := blob.Data.Open()
	require.NoError(t, err)
	one := make([]byte, 1)
	n, err := r.Read(one)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, "H", string(one))

	skipped, err := r.SkipRest()
	require.NoError(t, err)
	assert.EqualValues(t, 13, skipped)

	done, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, &Done{Reason: DoneEof}, done)
}

func TestPartialReadWithoutSkipFailsNext(t *testing.T) {
	input := "blob\nmark :42\noriginal-oid " + testOid + "\ndata 14\nHello, world!\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)

	r, err := blob.Data.Open()
	require.NoError(t, err)
	one := make([]byte, 1)
	_, err = r.Read(one)
	require.NoError(t, err)

	_, err = p.Next()
	assert.True(t, IsParseError(err, ErrUnfinishedData))
}

func TestDataDelimiterContainsNul(t *testing.T) {
	input := "blob\ndata <<E\x00F\nx\nE\x00F\n"
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	assert.True(t, IsParseError(err, ErrDataDelimContainsNul))
}

func TestEmitterFallsBackToCountedWhenDelimiterAppearsInPayload(t *testing.T) {
	d := EmitData{Bytes: []byte("A\nEOF\nB\n"), Delim: []byte("EOF")}
	assert.False(t, d.validate())

	var buf strings.Builder
	_, err := writeData(&buf, d)
	require.NoError(t, err)
	assert.Equal(t, "data 8\nA\nEOF\nB\n\n", buf.String())

	p := NewParser(strings.NewReader("blob\n" + buf.String()))
	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)
	r, err := blob.Data.Open()
	require.NoError(t, err)
	payload, err := r.ReadToEnd(nil)
	require.NoError(t, err)
	assert.Equal(t, "A\nEOF\nB\n", string(payload))
}

func TestMarkZeroRejectedMaxAccepted(t *testing.T) {
	_, err := ParseMark([]byte("0"))
	assert.True(t, IsParseError(err, ErrZeroMark))

	m, err := ParseMark([]byte("18446744073709551615"))
	require.NoError(t, err)
	assert.EqualValues(t, uint64(18446744073709551615), m)
}

func TestDataZeroLengthStartsFinished(t *testing.T) {
	input := "blob\ndata 0\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)

	r, err := blob.Data.Open()
	require.NoError(t, err)
	assert.True(t, r.Finished())
	require.NoError(t, r.Close())
}

func TestCommentsBetweenDirectivesAreTransparent(t *testing.T) {
	input := "# a comment\nblob\n# another\nmark :1\ndata 0\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)
	assert.EqualValues(t, 1, blob.Mark)
}

func TestOptionalLFAfterProgressNotConsumedAsBlank(t *testing.T) {
	input := "progress hello\n\nprogress world\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(cmd.(*Progress).Message))

	cmd, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "world", string(cmd.(*Progress).Message))
}

func TestDelimiterAsLinePrefixDoesNotTerminate(t *testing.T) {
	input := "blob\ndata <<EOF\nEOFX\nEOF\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	blob := cmd.(*Blob)
	r, err := blob.Data.Open()
	require.NoError(t, err)
	payload, err := r.ReadToEnd(nil)
	require.NoError(t, err)
	assert.Equal(t, "EOFX\n", string(payload))
}

func TestCommitWithFileChanges(t *testing.T) {
	input := "" +
		"commit refs/heads/main\n" +
		"mark :1\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data 7\ninitial\n" +
		"M 100644 :2 path/to/file.txt\n" +
		"D old-file.txt\n" +
		"deleteall\n"
	p := NewParser(strings.NewReader(input))

	cmd, err := p.Next()
	require.NoError(t, err)
	commit := cmd.(*Commit)
	assert.Equal(t, "refs/heads/main", string(commit.Branch))
	assert.EqualValues(t, 1, commit.Mark)
	assert.Equal(t, "Jane Doe", string(commit.Committer.Name))
	assert.Equal(t, "jane@example.com", string(commit.Committer.Email))
	assert.Equal(t, "initial", string(commit.Message))

	it := commit.Changes()

	ch, err := it.Next()
	require.NoError(t, err)
	mod := ch.(FileModify)
	assert.Equal(t, ModeFile, mod.Mode)
	assert.Equal(t, "path/to/file.txt", string(mod.Path))
	assert.True(t, mod.DataRef.Ref.IsMark())
	assert.EqualValues(t, 2, mod.DataRef.Ref.MarkValue())

	ch, err = it.Next()
	require.NoError(t, err)
	del := ch.(FileDelete)
	assert.Equal(t, "old-file.txt", string(del.Path))

	ch, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, FileDeleteAll{}, ch)

	ch, err = it.Next()
	require.NoError(t, err)
	assert.Nil(t, ch)

	done, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, &Done{Reason: DoneEof}, done)
}

func TestQuotedRenamePath(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data 0\n" +
		`R "a path/with space.txt" dest.txt` + "\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	commit := cmd.(*Commit)

	ch, err := commit.Changes().Next()
	require.NoError(t, err)
	ren := ch.(FileRename)
	assert.Equal(t, "a path/with space.txt", string(ren.Source))
	assert.Equal(t, "dest.txt", string(ren.Dest))
}

// TestTruncatedDelimitedMessageFailsCleanly covers a delimited commit
// message whose stream is cut off mid-line, with no matching delimiter and
// no trailing LF: readDelimitedDataToEnd must report ErrUnterminatedData
// rather than calling readLine a second time past EOF (which panics).
func TestTruncatedDelimitedMessageFailsCleanly(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data <<EOF\nsome partial message with no delimiter"
	p := NewParser(strings.NewReader(input))

	_, err := p.Next()
	require.Error(t, err)
	assert.True(t, IsParseError(err, ErrUnterminatedData))
}

func TestFileModifyPathContainingNulRejected(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data 0\n" +
		"M 100644 :1 bad\x00path.txt\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	commit := cmd.(*Commit)

	_, err = commit.Changes().Next()
	require.Error(t, err)
	assert.True(t, IsParseError(err, ErrPathContainsNul))
}

func TestFileRenameDestContainingNulRejected(t *testing.T) {
	input := "commit refs/heads/main\n" +
		"committer Jane Doe <jane@example.com> 1700000000 +0000\n" +
		"data 0\n" +
		"R src.txt bad\x00dest.txt\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	commit := cmd.(*Commit)

	_, err = commit.Changes().Next()
	require.Error(t, err)
	assert.True(t, IsParseError(err, ErrPathContainsNul))
}

func TestOptionGitDepthOverflowRejected(t *testing.T) {
	input := "option git depth=4294967296\ndone\n"
	p := NewParser(strings.NewReader(input))
	_, err := p.Next()
	require.Error(t, err)
	assert.True(t, IsParseError(err, ErrInvalidOptionInt))
}

func TestOptionGitDepthParsesInRange(t *testing.T) {
	input := "option git depth=50\ndone\n"
	p := NewParser(strings.NewReader(input))
	cmd, err := p.Next()
	require.NoError(t, err)
	opt := cmd.(*OptionGit)
	assert.Equal(t, OptionDepth, opt.Kind)
	assert.EqualValues(t, 50, opt.N)
}

func TestWithContextLinesOverridesDefault(t *testing.T) {
	input := "blob\nmark :1\ndata 0\n\ndone\n"
	p := NewParser(strings.NewReader(input), WithContextLines(2))
	_, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, p.in.contextLines)
}

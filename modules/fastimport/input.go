package fastimport

import (
	"bufio"
	"io"
)

// lineInput is a line-oriented reader over a buffered byte source. It never
// itself owns a buffer for returned lines — the caller supplies one (a slot
// from a bufPool) so that returned slices remain valid across successive
// reads, following the append-only discipline documented on bufPool.
//
// Corresponds to Input<R> in the reference parser (read_line,
// read_counted_data_to_end, read_delimited_data_to_end, read_data, skip_data).
type lineInput struct {
	r   *bufio.Reader
	eof bool
}

func newLineInput(r io.Reader) *lineInput {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &lineInput{r: br}
}

// readLine reads one line (through and including LF) into buf, appending
// starting at buf's current length, and returns the line with the LF
// stripped. It is a bug to call readLine again once EOF has been observed.
//
// Corresponds to strbuf_getline_lf in strbuf.c.
func (in *lineInput) readLine(buf *[]byte) ([]byte, error) {
	if in.eof {
		panic("fastimport: readLine called after EOF")
	}
	start := len(*buf)
	for {
		chunk, err := in.r.ReadSlice('\n')
		*buf = append(*buf, chunk...)
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			in.eof = true
			return (*buf)[start:], nil
		}
		return nil, err
	}
	end := len(*buf)
	if end > start && (*buf)[end-1] == '\n' {
		end--
	}
	return (*buf)[start:end], nil
}

// readCountedDataToEnd reads exactly length bytes of a counted data section
// into buf, appending starting at buf's current length.
func (in *lineInput) readCountedDataToEnd(length uint64, buf *[]byte) (int, error) {
	start := len(*buf)
	if l := int(length); l > 0 {
		if cap(*buf)-len(*buf) < l {
			grown := make([]byte, len(*buf), len(*buf)+l)
			copy(grown, *buf)
			*buf = grown
		}
		*buf = (*buf)[:start+l]
		n, err := io.ReadFull(in.r, (*buf)[start:start+l])
		*buf = (*buf)[:start+n]
		if err != nil {
			return n, &ParseError{Kind: ErrDataUnexpectedEof}
		}
		return n, nil
	}
	return 0, nil
}

// readDelimitedDataToEnd reads lines into buf until one equals delim,
// discarding the delimiter line itself.
func (in *lineInput) readDelimitedDataToEnd(delim []byte, buf *[]byte) (int, error) {
	start := len(*buf)
	for {
		if in.eof {
			return 0, &ParseError{Kind: ErrUnterminatedData}
		}
		lineStart := len(*buf)
		line, err := in.readLine(buf)
		if err != nil {
			return 0, err
		}
		if string(line) == string(delim) {
			n := lineStart - start
			*buf = (*buf)[:lineStart]
			return n, nil
		}
		if in.eof && len(line) == 0 {
			return 0, &ParseError{Kind: ErrUnterminatedData}
		}
	}
}

// readData reads a partial chunk of the current data stream into dst,
// advancing s. It returns 0 only at the end of the stream.
func (in *lineInput) readData(dst []byte, s *dataState) (int, error) {
	if s.closed {
		return 0, &ParseError{Kind: ErrClosedData}
	}
	if len(dst) == 0 || s.finished {
		return 0, nil
	}
	if s.counted {
		if in.eof {
			return 0, &ParseError{Kind: ErrDataUnexpectedEof}
		}
		remaining := s.length - s.lenRead
		end := len(dst)
		if remaining < uint64(end) {
			end = int(remaining)
		}
		n, err := in.r.Read(dst[:end])
		if err != nil && err != io.EOF {
			return n, err
		}
		if n == 0 && err == io.EOF {
			in.eof = true
			return 0, &ParseError{Kind: ErrDataUnexpectedEof}
		}
		s.lenRead += uint64(n)
		if s.lenRead >= s.length {
			s.finished = true
		}
		return n, nil
	}
	if s.lineOffset >= len(s.lineBuf) {
		if in.eof {
			return 0, &ParseError{Kind: ErrUnterminatedData}
		}
		s.lineBuf = s.lineBuf[:0]
		s.lineOffset = 0
		line, err := in.readLine(&s.lineBuf)
		if err != nil {
			return 0, err
		}
		if string(line) == string(s.delim) {
			s.finished = true
			return 0, nil
		}
		if len(s.lineBuf) == 0 {
			return 0, &ParseError{Kind: ErrUnterminatedData}
		}
	}
	off := s.lineOffset
	n := len(s.lineBuf) - off
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], s.lineBuf[off:off+n])
	s.lineOffset += n
	s.lenRead += uint64(n)
	return n, nil
}

// skipData drains the remainder of the current data stream without copying
// it, returning the number of bytes skipped.
func (in *lineInput) skipData(s *dataState) (uint64, error) {
	if s.closed {
		return 0, &ParseError{Kind: ErrClosedData}
	}
	if s.finished {
		return 0, nil
	}
	startLenRead := s.lenRead
	if s.counted {
		discard := s.length - s.lenRead
		n, err := io.CopyN(io.Discard, in.r, int64(discard))
		s.lenRead += uint64(n)
		if err != nil {
			if err == io.EOF {
				in.eof = true
				return 0, &ParseError{Kind: ErrDataUnexpectedEof}
			}
			return 0, err
		}
	} else {
		s.lenRead += uint64(len(s.lineBuf) - s.lineOffset)
		for {
			if in.eof {
				return 0, &ParseError{Kind: ErrUnterminatedData}
			}
			s.lineBuf = s.lineBuf[:0]
			line, err := in.readLine(&s.lineBuf)
			if err != nil {
				return 0, err
			}
			if string(line) == string(s.delim) {
				break
			}
			s.lenRead += uint64(len(s.lineBuf))
		}
	}
	s.finished = true
	return s.lenRead - startLenRead, nil
}

// bufInput layers one-directive lookahead and a bufPool of recently-seen
// lines atop a lineInput. It is the fast-import analogue of BufInput<R> in
// the reference parser.
type bufInput struct {
	in           *lineInput
	lines        *bufPool
	unread       bool
	peeked       []byte // valid when unread; may be nil, meaning EOF
	contextLines int
}

// defaultContextLinesBefore is the number of lines (excluding data streams)
// from before the current command retained for crash-dump diagnostics, used
// when a Parser is not given an explicit override.
const defaultContextLinesBefore = 20

func newBufInput(r io.Reader, contextLines int) *bufInput {
	return &bufInput{in: newLineInput(r), lines: newBufPool(), contextLines: contextLines}
}

// truncateContext drops all but the most recent contextLines lines (plus one
// more if a directive is currently unread) from the diagnostic pool.
func (b *bufInput) truncateContext() {
	keep := b.contextLines
	if b.unread {
		keep++
	}
	b.lines.truncateBack(keep)
}

// atEOF reports whether the underlying byte source is exhausted. A true
// result takes priority over the content of the most recently read
// directive: the very read that first observes EOF can itself return an
// empty line when the stream has no final blank line, and that must not
// be mistaken for a blank directive.
func (b *bufInput) atEOF() bool { return b.in.eof }

// readDirective reads the next non-comment line. The read that first
// observes EOF may return an empty, non-nil slice (check atEOF to tell it
// from a blank line); once EOF has been observed it returns nil.
//
// Corresponds to read_next_command in fast-import.c.
func (b *bufInput) readDirective() ([]byte, error) {
	for !b.in.eof {
		buf := b.lines.pushBack()
		line, err := b.in.readLine(buf)
		if err != nil {
			return nil, err
		}
		if len(line) == 0 || line[0] != '#' {
			return line, nil
		}
	}
	return nil, nil
}

// peekDirective reads the next directive without consuming it. Calling it
// again before a bumpDirective returns the same result, including a cached
// nil at EOF.
func (b *bufInput) peekDirective() ([]byte, error) {
	if b.unread {
		return b.peeked, nil
	}
	line, err := b.readDirective()
	if err != nil {
		return nil, err
	}
	b.peeked = line
	b.unread = true
	return line, nil
}

// bumpDirective consumes the directive returned by the most recent
// peekDirective.
func (b *bufInput) bumpDirective() {
	b.unread = false
	b.peeked = nil
}

// nextDirective reads and consumes the next directive.
func (b *bufInput) nextDirective() ([]byte, error) {
	line, err := b.peekDirective()
	if err != nil {
		return nil, err
	}
	b.bumpDirective()
	return line, nil
}

// skipOptionalLF consumes a trailing blank directive, if one is next.
func (b *bufInput) skipOptionalLF() error {
	line, err := b.peekDirective()
	if err != nil {
		return err
	}
	if line != nil && len(line) == 0 {
		b.bumpDirective()
	}
	return nil
}

func (b *bufInput) readData(dst []byte, s *dataState) (int, error) {
	return b.in.readData(dst, s)
}

func (b *bufInput) skipData(s *dataState) (uint64, error) {
	n, err := b.in.skipData(s)
	if err != nil {
		return n, err
	}
	if err := b.skipOptionalLF(); err != nil {
		return n, err
	}
	return n, nil
}

// readDataToEnd reads an entire data section (counted or delimited) into
// buf, appending starting at buf's current length, and returns the number
// of bytes appended.
func (b *bufInput) readDataToEnd(header DataHeader, buf *[]byte) (int, error) {
	var n int
	var err error
	if header.Delimited() {
		n, err = b.in.readDelimitedDataToEnd(header.Delim, buf)
	} else {
		n, err = b.in.readCountedDataToEnd(header.Len, buf)
	}
	if err != nil {
		return n, err
	}
	if err := b.skipOptionalLF(); err != nil {
		return n, err
	}
	return n, nil
}

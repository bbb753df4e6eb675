package fastimport

import "sync/atomic"

// dataState is the parser's working state for the current data stream. It
// is kept separate from the DataHeader the caller sees so that the parser
// can skip an abandoned stream using only the header it already parsed.
//
// Corresponds to DataState in the reference parser (parse/data.rs).
type dataState struct {
	counted    bool
	length     uint64 // valid when counted
	delim      []byte // valid when !counted
	finished   bool
	closed     bool
	lenRead    uint64
	lineBuf    []byte
	lineOffset int
}

func (s *dataState) reset(header DataHeader, opened *atomic.Bool) {
	opened.Store(false)
	s.counted = !header.Delimited()
	s.length = header.Len
	s.delim = header.Delim
	s.finished = s.counted && header.Len == 0
	s.closed = false
	s.lenRead = 0
	s.lineBuf = s.lineBuf[:0]
	s.lineOffset = 0
}

// DataStream is the not-yet-opened handle to a blob's payload, as returned
// embedded in a Blob command. Call Open to obtain an exclusive DataReader.
type DataStream struct {
	header DataHeader
	parser *Parser
}

// Header returns the data section's framing (counted length or delimiter).
func (d DataStream) Header() DataHeader { return d.header }

// ErrAlreadyOpened is returned by DataStream.Open when a reader for the
// current data stream has already been opened.
type ErrAlreadyOpened struct{}

func (ErrAlreadyOpened) Error() string { return "data stream already opened for reading" }

// Open returns an exclusive reader for this data stream. At most one
// DataReader may exist per command; a second call fails with
// ErrAlreadyOpened.
func (d DataStream) Open() (*DataReader, error) {
	if d.parser.dataOpened.Swap(true) {
		return nil, ErrAlreadyOpened{}
	}
	return &DataReader{parser: d.parser}, nil
}

// DataReader is the exclusive handle for reading a blob's payload. Read has
// the io.Reader signature, but reports the end of the stream as (0, nil)
// rather than io.EOF.
type DataReader struct {
	parser *Parser
}

// Read reads the next chunk of the data stream. It returns 0 only at the
// end of the stream, never merely because the internal buffer is empty.
func (r *DataReader) Read(p []byte) (int, error) {
	return r.parser.in.readData(p, &r.parser.dataState)
}

// SkipRest discards the remainder of the stream without copying it and
// returns the number of bytes skipped. Prefer this over reading to the end
// by hand when only part of the stream is needed; otherwise the next call
// to Parser.Next fails with ErrUnfinishedData.
func (r *DataReader) SkipRest() (uint64, error) {
	return r.parser.in.skipData(&r.parser.dataState)
}

// ReadToEnd reads the whole remaining stream, appending it to dst.
func (r *DataReader) ReadToEnd(dst []byte) ([]byte, error) {
	s := &r.parser.dataState
	if s.counted {
		remaining := s.length - s.lenRead
		if cap(dst)-len(dst) < int(remaining) {
			grown := make([]byte, len(dst), len(dst)+int(remaining))
			copy(grown, dst)
			dst = grown
		}
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		dst = append(dst, buf[:n]...)
		if err != nil {
			return dst, err
		}
		if n == 0 {
			return dst, nil
		}
	}
}

// Close marks the stream closed. It is an error to call Close before the
// stream is finished, and an error (ErrClosedData) to call it twice.
func (r *DataReader) Close() error {
	s := &r.parser.dataState
	if s.closed {
		return &ParseError{Kind: ErrClosedData}
	}
	if !s.finished {
		return &ParseError{Kind: ErrUnfinishedData}
	}
	s.closed = true
	return nil
}

// LenRead returns the number of bytes read from the stream so far.
func (r *DataReader) LenRead() uint64 { return r.parser.dataState.lenRead }

// Finished reports whether the stream has been read to completion.
func (r *DataReader) Finished() bool { return r.parser.dataState.finished }

// Package posio provides positional buffered I/O: thin wrappers over a file
// handle that keep a logical byte offset in sync with buffered reads,
// buffered writes, and explicit seeks.
//
// The append path of a log-structured store must know the exact byte offset
// at which each record begins, and buffered I/O hides that from the
// underlying file handle until flush. The wrappers here shadow the file's
// byte position with a counter next to the buffer: construction captures the
// handle's current position, every successful read or write advances the
// counter by the byte count the buffer acknowledged, and an explicit seek
// synchronizes buffer, counter and handle to the absolute result.
//
// Callers never derive an offset by querying the file handle between buffered
// operations; Pos is the only truth. Capturing a Writer's Pos before an
// append yields the record's absolute start, and adding the byte count yields
// its end, without a syscall per write.
package posio

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is used when a caller passes a non-positive buffer size.
const DefaultBufferSize = 4096

// Writer is a positional buffered writer over an open file.
//
// The logical position starts at the file's current offset and advances by
// exactly the number of bytes each Write reports. Buffered bytes reach the
// file only on Flush or when the buffer fills.
type Writer struct {
	file *os.File      // The underlying segment file handle.
	buf  *bufio.Writer // Write buffer in front of the handle.
	pos  int64         // Logical byte offset: file offset plus unflushed buffered bytes.
}

// NewWriter constructs a Writer whose initial logical position is the file's
// current offset.
func NewWriter(file *os.File, size int) (*Writer, error) {
	if file == nil {
		return nil, fmt.Errorf("file is required")
	}
	if size <= 0 {
		size = DefaultBufferSize
	}

	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &Writer{file: file, buf: bufio.NewWriterSize(file, size), pos: pos}, nil
}

// Write appends p to the buffer and advances the logical position by the
// number of bytes accepted.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	w.pos += int64(n)
	return n, err
}

// Flush drains the underlying buffer to the file. The logical position is
// unchanged: it already accounted for the buffered bytes.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Seek flushes any buffered bytes, repositions the underlying file, and sets
// the logical position to the absolute result.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if err := w.buf.Flush(); err != nil {
		return 0, err
	}

	abs, err := w.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	w.pos = abs
	return abs, nil
}

// Pos returns the current logical byte offset. It is valid before and after
// any operation, including while bytes are still buffered.
func (w *Writer) Pos() int64 {
	return w.pos
}

// Close flushes any buffered bytes and closes the underlying file handle.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}

// Reader is a positional buffered reader over an open file.
//
// Reads advance the logical position by the bytes actually returned. A seek
// discards the read buffer, repositions the file, and resets the logical
// position to the absolute result, so a seek followed by a read always
// observes the file at exactly that offset.
type Reader struct {
	file *os.File      // The underlying segment file handle.
	buf  *bufio.Reader // Read buffer in front of the handle.
	pos  int64         // Logical byte offset of the next read.
}

// NewReader constructs a Reader whose initial logical position is the file's
// current offset.
func NewReader(file *os.File, size int) (*Reader, error) {
	if file == nil {
		return nil, fmt.Errorf("file is required")
	}
	if size <= 0 {
		size = DefaultBufferSize
	}

	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &Reader{file: file, buf: bufio.NewReaderSize(file, size), pos: pos}, nil
}

// Read fills p from the buffer and advances the logical position by the
// number of bytes returned.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.buf.Read(p)
	r.pos += int64(n)
	return n, err
}

// Seek repositions the reader. Relative seeks are resolved against the
// logical position, not the underlying handle's offset, because buffered
// read-ahead leaves the handle further along than the bytes the caller has
// consumed.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset = r.pos + offset
		whence = io.SeekStart
	}

	abs, err := r.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	r.buf.Reset(r.file)
	r.pos = abs
	return abs, nil
}

// Pos returns the logical byte offset of the next read.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Close closes the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"slices"
	"strconv"
)

// ErrFrameTooLarge is returned by ReadFrame when a frame grows past its limit.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

const readChunk = 64 * 1024

// ReadFrame reads exactly one frame from r and returns its raw bytes,
// terminators included, ready to be handed to the decoder.
//
// A line starting with '*' followed by a count N opens an Array Format frame
// made of N element groups. A group is a $<len> line followed by exactly
// len+2 bytes, a $-1 line on its own, or any other single line. A '*' line
// whose count is not a positive integer is returned alone so the decoder can
// judge it. Every other line is returned alone as an Inline Format frame.
//
// ReadFrame blocks until a whole frame has arrived. It returns io.EOF if r
// ends before the first byte and io.ErrUnexpectedEOF if it ends mid-frame.
func ReadFrame(r *bufio.Reader, limit int) ([]byte, error) {
	fr := &frameReader{r: r, limit: limit}

	header, err := fr.line()
	if err != nil {
		return nil, err
	}

	if header[0] != '*' {
		return fr.buf, nil
	}

	count, err := strconv.Atoi(string(bytes.TrimSpace(header[1:])))
	if err != nil || count <= 0 {
		return fr.buf, nil
	}

	for i := 0; i < count; i++ {
		line, err := fr.line()
		if err != nil {
			return nil, unexpected(err)
		}
		if line[0] != '$' {
			continue
		}

		size, err := strconv.Atoi(string(bytes.TrimSpace(line[1:])))
		if err != nil || size < 0 {
			continue
		}
		if size > limit {
			return nil, ErrFrameTooLarge
		}
		if err := fr.exact(size + 2); err != nil {
			return nil, unexpected(err)
		}
	}

	return fr.buf, nil
}

type frameReader struct {
	r     *bufio.Reader
	limit int
	buf   []byte
}

// line appends the next line, '\n' included, to buf and returns it. The
// returned slice is only valid until the next call.
func (fr *frameReader) line() ([]byte, error) {
	start := len(fr.buf)

	for {
		chunk, err := fr.r.ReadSlice('\n')
		if len(fr.buf)+len(chunk) > fr.limit {
			return nil, ErrFrameTooLarge
		}
		fr.buf = append(fr.buf, chunk...)

		switch {
		case err == nil:
			return fr.buf[start:], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(fr.buf) > start:
			return nil, io.ErrUnexpectedEOF
		default:
			return nil, err
		}
	}
}

// exact appends the next n bytes to buf. Memory grows with the bytes that
// actually arrive, not with the length a peer declares.
func (fr *frameReader) exact(n int) error {
	if n > fr.limit-len(fr.buf) {
		return ErrFrameTooLarge
	}

	for n > 0 {
		step := min(n, readChunk)
		start := len(fr.buf)
		fr.buf = slices.Grow(fr.buf, step)

		got, err := io.ReadFull(fr.r, fr.buf[start:start+step])
		fr.buf = fr.buf[:start+got]
		if err != nil {
			return err
		}
		n -= step
	}
	return nil
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

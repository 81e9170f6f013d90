package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxPayloadLength is the default upper bound for a single message.
const MaxPayloadLength = 65536

// headerLen is the size of the big-endian length prefix of a frame.
const headerLen = 4

// Framing modes.
const (
	FramingLine  = "line"
	FramingFrame = "frame"
)

var ErrFrameTooLarge = errors.New("frame exceeds maximum payload length")

// Codec reads and writes protocol messages over a byte stream.
// A Codec is not safe for concurrent use.
type Codec interface {
	ReadMessage() ([]byte, error)
	WriteMessage(p []byte) error
}

// NewCodec returns the codec for the named framing mode.
func NewCodec(framing string, rw io.ReadWriter, maxSize int) (Codec, error) {
	switch framing {
	case FramingLine:
		return NewLineCodec(rw, maxSize), nil
	case FramingFrame:
		return NewFrameCodec(rw, maxSize), nil
	default:
		return nil, fmt.Errorf("unknown framing %q", framing)
	}
}

/* ---------------- length-prefixed frames ---------------- */

// FrameCodec encodes each message as a 4-byte big-endian length followed by
// the payload.
type FrameCodec struct {
	r   *bufio.Reader
	w   *bufio.Writer
	max int
}

func NewFrameCodec(rw io.ReadWriter, maxSize int) *FrameCodec {
	if maxSize <= 0 {
		maxSize = MaxPayloadLength
	}
	return &FrameCodec{
		r:   bufio.NewReader(rw),
		w:   bufio.NewWriter(rw),
		max: maxSize,
	}
}

// ReadMessage returns io.EOF on a clean end of stream and
// io.ErrUnexpectedEOF when the stream ends inside a frame.
func (c *FrameCodec) ReadMessage() ([]byte, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(header[:])
	if int64(n) > int64(c.max) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, c.max)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

func (c *FrameCodec) WriteMessage(p []byte) error {
	if len(p) > c.max {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(p), c.max)
	}

	var header [headerLen]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(p)))

	if _, err := c.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := c.w.Write(p); err != nil {
		return err
	}
	return c.w.Flush()
}

/* ---------------- newline-delimited lines ---------------- */

// LineCodec treats each newline-terminated line as one message.
// A trailing carriage return is dropped.
type LineCodec struct {
	s       *bufio.Scanner
	w       *bufio.Writer
	maxSize int
}

func NewLineCodec(rw io.ReadWriter, maxSize int) *LineCodec {
	if maxSize <= 0 {
		maxSize = MaxPayloadLength
	}
	// +2 leaves room for a "\r\n" terminator
	limit := maxSize + 2

	s := bufio.NewScanner(rw)
	s.Buffer(make([]byte, 0, min(4096, limit)), limit)

	return &LineCodec{
		s:       s,
		w:       bufio.NewWriter(rw),
		maxSize: maxSize,
	}
}

func (c *LineCodec) ReadMessage() ([]byte, error) {
	if !c.s.Scan() {
		err := c.s.Err()
		if err == nil {
			return nil, io.EOF
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrFrameTooLarge, err)
		}
		return nil, err
	}

	line := strings.TrimSuffix(c.s.Text(), "\r")
	if len(line) > c.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(line))
	}
	return []byte(line), nil
}

func (c *LineCodec) WriteMessage(p []byte) error {
	if _, err := c.w.Write(p); err != nil {
		return err
	}
	if err := c.w.WriteByte('\n'); err != nil {
		return err
	}
	return c.w.Flush()
}

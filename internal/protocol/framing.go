package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// DefaultMaxLine bounds a single inbound line. It leaves room for the
// command prefix in front of a MaxMessageBytes payload.
const DefaultMaxLine = 4096

var (
	// ErrFrameTooLong is returned when a frame exceeds the framer's limit.
	// The oversized frame has already been consumed from the stream.
	ErrFrameTooLong = errors.New("frame too long")
)

// Framer splits a byte stream into protocol frames and writes frames back.
type Framer interface {
	ReadFrame(r *bufio.Reader) (string, error)
	WriteFrame(w io.Writer, frame string) error
}

// Framing names accepted by NewFramer.
const (
	FramingLine   = "line"
	FramingLength = "length"
)

// NewFramer returns the framer registered under name.
func NewFramer(name string, maxLine int) (Framer, error) {
	switch name {
	case "", FramingLine:
		return LineFramer{MaxLen: maxLine}, nil
	case FramingLength:
		return LengthPrefixFramer{MaxLen: maxLine}, nil
	default:
		return nil, fmt.Errorf("unknown framing %q", name)
	}
}

// LineFramer reads newline-terminated UTF-8 lines. A trailing "\r" is
// stripped. Lines longer than MaxLen are discarded up to the next newline.
type LineFramer struct {
	MaxLen int
}

func (f LineFramer) ReadFrame(r *bufio.Reader) (string, error) {
	limit := f.MaxLen
	if limit <= 0 {
		limit = DefaultMaxLine
	}

	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			// +2 leaves room for the "\r\n" terminator.
			if len(buf) > limit+2 {
				tooLong = true
				buf = nil
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return "", ErrFrameTooLong
			}
			line := strings.TrimRight(string(buf), "\r\n")
			if len(line) > limit {
				return "", ErrFrameTooLong
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return "", ErrFrameTooLong
			}
			if len(buf) > 0 {
				// last line without newline
				return strings.TrimRight(string(buf), "\r\n"), nil
			}
			return "", io.EOF
		default:
			return "", fmt.Errorf("read: %w", err)
		}
	}
}

func (f LineFramer) WriteFrame(w io.Writer, frame string) error {
	_, err := io.WriteString(w, frame+"\n")
	return err
}

// LengthPrefixFramer is the legacy binary framing: a 2-byte little-endian
// payload length followed by the UTF-8 payload. Payloads longer than MaxLen
// are skipped; zero means only the 16-bit header bounds them.
type LengthPrefixFramer struct {
	MaxLen int
}

func (f LengthPrefixFramer) ReadFrame(r *bufio.Reader) (string, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("read length: %w", err)
	}
	n := int(binary.LittleEndian.Uint16(hdr[:]))
	if f.MaxLen > 0 && n > f.MaxLen {
		if _, err := r.Discard(n); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return "", fmt.Errorf("skip payload: %w", err)
		}
		return "", ErrFrameTooLong
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("read payload: %w", err)
	}
	return string(payload), nil
}

func (f LengthPrefixFramer) WriteFrame(w io.Writer, frame string) error {
	if len(frame) > math.MaxUint16 {
		return ErrFrameTooLong
	}
	buf := make([]byte, 2, 2+len(frame))
	binary.LittleEndian.PutUint16(buf, uint16(len(frame)))
	buf = append(buf, frame...)
	_, err := w.Write(buf)
	return err
}

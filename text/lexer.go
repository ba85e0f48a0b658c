package text

import (
	"bytes"
	"strconv"
)

// Pre-allocated byte slices for comparisons (avoid allocation in hot path)
var (
	crlfBytes = []byte(CRLF)
	endBytes  = []byte(MarkerEnd)
)

// Shape describes how a buffer is framed into lines.
type Shape uint8

const (
	// ShapeUnterminated means the buffer is empty or does not end with CRLF.
	ShapeUnterminated Shape = iota

	// ShapeLine means the buffer holds exactly one CRLF-terminated line.
	ShapeLine

	// ShapeBlock means the buffer holds two or more CRLF-terminated lines.
	ShapeBlock
)

func (s Shape) String() string {
	switch s {
	case ShapeUnterminated:
		return "unterminated"
	case ShapeLine:
		return "line"
	case ShapeBlock:
		return "block"
	default:
		return "shape(" + strconv.Itoa(int(s)) + ")"
	}
}

// Head identifies the first token of the first line.
type Head uint8

const (
	// HeadNone means the first line has no tokens (blank line).
	HeadNone Head = iota

	// HeadOther is any token outside the recognized vocabulary.
	HeadOther

	HeadOK
	HeadStored
	HeadDeleted
	HeadEnd
	HeadExists
	HeadNotFound
	HeadNotStored
	HeadValue
	HeadVersion
	HeadError
	HeadClientError
	HeadServerError

	// HeadNumber is a token that parses as an unsigned 64-bit integer.
	HeadNumber
)

var headNames = [...]string{
	HeadNone:        "none",
	HeadOther:       "other",
	HeadOK:          MarkerOK,
	HeadStored:      MarkerStored,
	HeadDeleted:     MarkerDeleted,
	HeadEnd:         MarkerEnd,
	HeadExists:      MarkerExists,
	HeadNotFound:    MarkerNotFound,
	HeadNotStored:   MarkerNotStored,
	HeadValue:       MarkerValue,
	HeadVersion:     MarkerVersion,
	HeadError:       MarkerError,
	HeadClientError: MarkerClientError,
	HeadServerError: MarkerServerError,
	HeadNumber:      "number",
}

func (h Head) String() string {
	if int(h) < len(headNames) {
		return headNames[h]
	}
	return "head(" + strconv.Itoa(int(h)) + ")"
}

// IsAck reports whether h is an acknowledgement marker.
func (h Head) IsAck() bool {
	return h == HeadOK || h == HeadStored || h == HeadDeleted
}

// IsMiss reports whether h is a miss marker.
func (h Head) IsMiss() bool {
	switch h {
	case HeadEnd, HeadExists, HeadNotFound, HeadNotStored:
		return true
	default:
		return false
	}
}

// Frame is the lexed form of a response buffer.
//
// Lines and Tokens are sub-slices of the lexed buffer; they are only valid
// while the caller keeps that buffer unchanged.
type Frame struct {
	Shape Shape

	// Lines holds every CRLF-terminated line without its terminator.
	// Empty for ShapeUnterminated.
	Lines [][]byte

	// Tokens holds the whitespace-separated tokens of the first line.
	Tokens [][]byte

	// Head classifies Tokens[0].
	Head Head
}

// Header returns the first line.
func (f *Frame) Header() []byte {
	if len(f.Lines) == 0 {
		return nil
	}
	return f.Lines[0]
}

// Trailer returns the last line.
func (f *Frame) Trailer() []byte {
	if len(f.Lines) == 0 {
		return nil
	}
	return f.Lines[len(f.Lines)-1]
}

// Token returns the i-th token of the first line, or nil.
func (f *Frame) Token(i int) []byte {
	if i < 0 || i >= len(f.Tokens) {
		return nil
	}
	return f.Tokens[i]
}

// Lex splits buf into CRLF-terminated lines and tokenizes the first line.
//
// A buffer that is empty or does not end with CRLF is not framed yet and
// lexes to ShapeUnterminated without further work.
func Lex(buf []byte) Frame {
	if len(buf) == 0 || !bytes.HasSuffix(buf, crlfBytes) {
		return Frame{Shape: ShapeUnterminated}
	}

	lines := bytes.Split(buf[:len(buf)-len(crlfBytes)], crlfBytes)
	tokens := bytes.Fields(lines[0])

	f := Frame{
		Shape:  ShapeLine,
		Lines:  lines,
		Tokens: tokens,
		Head:   lexHead(tokens),
	}
	if len(lines) > 1 {
		f.Shape = ShapeBlock
	}
	return f
}

func lexHead(tokens [][]byte) Head {
	if len(tokens) == 0 {
		return HeadNone
	}

	tok := tokens[0]
	switch string(tok) {
	case MarkerOK:
		return HeadOK
	case MarkerStored:
		return HeadStored
	case MarkerDeleted:
		return HeadDeleted
	case MarkerEnd:
		return HeadEnd
	case MarkerExists:
		return HeadExists
	case MarkerNotFound:
		return HeadNotFound
	case MarkerNotStored:
		return HeadNotStored
	case MarkerValue:
		return HeadValue
	case MarkerVersion:
		return HeadVersion
	case MarkerError:
		return HeadError
	case MarkerClientError:
		return HeadClientError
	case MarkerServerError:
		return HeadServerError
	}

	if _, ok := parseUint(tok, 64); ok {
		return HeadNumber
	}
	return HeadOther
}

// parseUint parses an unsigned decimal integer of the given bit size.
// A single leading '+' is accepted.
func parseUint(b []byte, bitSize int) (uint64, bool) {
	if len(b) > 1 && b[0] == '+' {
		b = b[1:]
	}
	n, err := strconv.ParseUint(string(b), 10, bitSize)
	if err != nil {
		return 0, false
	}
	return n, true
}

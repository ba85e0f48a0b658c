package text

import "bytes"

// Classify reports what buf holds: a complete response, a partial one, or a
// malformed one.
//
// buf must contain the bytes read so far for exactly one response. Classify
// is a pure function of buf: it keeps no state, performs no I/O, never
// panics and does not retain buf. It is safe for concurrent use.
//
// Response format:
//
//	<status>\r\n
//	VERSION <version>\r\n
//	VALUE <key> <flags> <bytes> [<cas>]\r\n<data>\r\nEND\r\n
//
// The data block of a value may itself contain CRLF; its length is checked
// against the <bytes> field of the header.
func Classify(buf []byte) Outcome {
	f := Lex(buf)

	switch f.Shape {
	case ShapeUnterminated:
		return Incomplete
	case ShapeLine:
		return classifyLine(buf, &f)
	case ShapeBlock:
		return classifyBlock(buf, &f)
	default:
		return Unknown
	}
}

// ClassifyString is Classify for callers holding a string.
func ClassifyString(s string) Outcome {
	return Classify([]byte(s))
}

func classifyLine(buf []byte, f *Frame) Outcome {
	if len(f.Header())+len(crlfBytes) != len(buf) {
		return Incomplete
	}

	// VALUE without its data lines yet.
	if f.Head == HeadValue {
		return Incomplete
	}

	if len(f.Tokens) == 1 {
		switch {
		case f.Head.IsAck():
			return Ok
		case f.Head.IsMiss():
			return Miss
		case f.Head == HeadError:
			return ErrorOutcome(string(buf))
		case f.Head == HeadNumber: // incr/decr
			return Ok
		default:
			return Unknown
		}
	}

	switch f.Head {
	case HeadVersion:
		return VersionOutcome(string(bytes.Join(f.Tokens[1:], []byte(Space))))
	case HeadClientError, HeadServerError:
		return ErrorOutcome(string(buf))
	default:
		// Also covers a blank first line (HeadNone).
		return Unknown
	}
}

func classifyBlock(buf []byte, f *Frame) Outcome {
	if f.Head != HeadValue {
		return Unknown
	}

	// A short header can not grow into a valid one by reading more bytes,
	// yet it is reported as Incomplete for compatibility with existing
	// callers.
	if len(f.Tokens) < minValueTokens {
		return Incomplete
	}

	if cas := f.Token(valueFieldCAS); cas != nil {
		if _, ok := parseUint(cas, 64); !ok {
			return Invalid
		}
	}

	if _, ok := parseUint(f.Token(valueFieldFlags), 32); !ok {
		return Invalid
	}

	if !bytes.Equal(f.Trailer(), endBytes) {
		return Incomplete
	}

	declared, ok := parseUint(f.Token(valueFieldLength), 64)
	if !ok {
		return Invalid
	}

	measured := uint64(len(payload(buf, f)))
	switch {
	case measured == declared:
		return Hit
	case measured > declared:
		return Invalid
	default:
		return Incomplete
	}
}

// payload returns the data block of a value: every line strictly between
// the header and the END line, CRLF separators included. It is a sub-slice
// of buf.
func payload(buf []byte, f *Frame) []byte {
	if len(f.Lines) <= 2 {
		return buf[:0]
	}
	start := len(f.Header()) + len(crlfBytes)
	end := len(buf) - len(crlfBytes) - len(f.Trailer()) - len(crlfBytes)
	return buf[start:end]
}

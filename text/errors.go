package text

import (
	"errors"
	"strings"
)

// Error types for text protocol responses.
// These errors help callers decide what to do with the connection the
// response was read from (keep reading vs. close).

var (
	// ErrInvalidResponse is returned for KindInvalid outcomes: the response
	// shape was recognized but a field failed to parse, or the data block
	// was longer than its header declared.
	ErrInvalidResponse = errors.New("text: invalid response")

	// ErrUnknownResponse is returned for KindUnknown outcomes.
	ErrUnknownResponse = errors.New("text: unknown response")

	// ErrNotHit is returned by ParseValue when the buffer is not a complete
	// value block.
	ErrNotHit = errors.New("text: not a value response")
)

// ReplyKind tells which error marker the server used.
type ReplyKind uint8

const (
	// ReplyGeneric is a bare ERROR: the command name was not recognized.
	ReplyGeneric ReplyKind = iota

	// ReplyClient is CLIENT_ERROR: the request did not conform to the protocol.
	ReplyClient

	// ReplyServer is SERVER_ERROR: the server could not carry out the request.
	ReplyServer
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyClient:
		return MarkerClientError
	case ReplyServer:
		return MarkerServerError
	default:
		return MarkerError
	}
}

// ServerReplyError is a server-reported error (ERROR, CLIENT_ERROR or
// SERVER_ERROR).
//
// Connection handling: CLIENT_ERROR and ERROR leave the protocol state
// uncertain and the connection should be CLOSED. SERVER_ERROR leaves it
// intact and the connection can be REUSED.
type ServerReplyError struct {
	Kind ReplyKind

	// Message is the free-form text after the marker, without CRLF.
	Message string

	// Reply is the verbatim server reply, CRLF included.
	Reply string
}

func newServerReplyError(reply string) *ServerReplyError {
	line := strings.TrimSuffix(reply, CRLF)
	marker, msg, _ := strings.Cut(line, Space)

	e := &ServerReplyError{
		Message: strings.TrimSpace(msg),
		Reply:   reply,
	}
	switch marker {
	case MarkerClientError:
		e.Kind = ReplyClient
	case MarkerServerError:
		e.Kind = ReplyServer
	default:
		e.Kind = ReplyGeneric
	}
	return e
}

func (e *ServerReplyError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// ShouldCloseConnection returns false only for SERVER_ERROR.
func (e *ServerReplyError) ShouldCloseConnection() bool {
	return e.Kind != ReplyServer
}

// ParseError represents a failure to extract fields from a response.
type ParseError struct {
	Message string
	Err     error // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "parse error: " + e.Message + ": " + e.Err.Error()
	}
	return "parse error: " + e.Message
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - parse errors indicate corrupted state
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is an interface for errors that indicate
// whether the connection should be closed.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err requires closing the connection
// the response was read from.
//
// Returns true for:
//   - ErrInvalidResponse, ErrUnknownResponse
//   - ServerReplyError of kind ReplyGeneric or ReplyClient
//   - ParseError
//   - any other non-nil error
//
// Returns false for:
//   - ServerReplyError of kind ReplyServer
//   - nil
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}

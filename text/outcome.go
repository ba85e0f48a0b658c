package text

import "strconv"

// Kind is the category of a classified response.
type Kind uint8

const (
	// KindIncomplete means more bytes are needed. It is the steady state
	// while a response is in flight and never a failure.
	KindIncomplete Kind = iota

	// KindOk is an acknowledgement (OK, STORED, DELETED) or a numeric
	// incr/decr reply.
	KindOk

	// KindMiss is END, EXISTS, NOT_FOUND or NOT_STORED.
	KindMiss

	// KindHit is a complete value block whose data length matches its header.
	KindHit

	// KindError is a server-reported ERROR, CLIENT_ERROR or SERVER_ERROR.
	KindError

	// KindVersion is a VERSION reply.
	KindVersion

	// KindInvalid is a recognized shape with a broken field: non-numeric
	// flags, length or cas, or more data than the header declared.
	KindInvalid

	// KindUnknown is a response whose first token matches no grammar rule.
	KindUnknown
)

var kindNames = [...]string{
	KindIncomplete: "incomplete",
	KindOk:         "ok",
	KindMiss:       "miss",
	KindHit:        "hit",
	KindError:      "error",
	KindVersion:    "version",
	KindInvalid:    "invalid",
	KindUnknown:    "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindIncomplete, KindOk, KindMiss, KindHit, KindError, KindVersion, KindInvalid, KindUnknown}
}

// Outcome is the result of classifying a buffer.
//
// Outcomes are plain values and compare with ==.
type Outcome struct {
	Kind Kind

	// Text is set for KindError (the verbatim reply, CRLF included) and
	// KindVersion (the version tokens joined by single spaces).
	Text string
}

// Predefined outcomes for the kinds that carry no text.
var (
	Incomplete = Outcome{Kind: KindIncomplete}
	Ok         = Outcome{Kind: KindOk}
	Miss       = Outcome{Kind: KindMiss}
	Hit        = Outcome{Kind: KindHit}
	Invalid    = Outcome{Kind: KindInvalid}
	Unknown    = Outcome{Kind: KindUnknown}
)

// ErrorOutcome returns a KindError outcome carrying the verbatim reply.
func ErrorOutcome(reply string) Outcome {
	return Outcome{Kind: KindError, Text: reply}
}

// VersionOutcome returns a KindVersion outcome.
func VersionOutcome(version string) Outcome {
	return Outcome{Kind: KindVersion, Text: version}
}

// IsTerminal reports whether the response is complete, i.e. the caller must
// stop reading and consume the buffer.
func (o Outcome) IsTerminal() bool {
	return o.Kind != KindIncomplete
}

// IsSuccess reports whether the server carried out the request: Ok, Hit
// and Version.
func (o Outcome) IsSuccess() bool {
	switch o.Kind {
	case KindOk, KindHit, KindVersion:
		return true
	default:
		return false
	}
}

// IsViolation reports whether the response broke the protocol: Invalid
// and Unknown.
func (o Outcome) IsViolation() bool {
	return o.Kind == KindInvalid || o.Kind == KindUnknown
}

func (o Outcome) String() string {
	if o.Text == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + "(" + strconv.Quote(o.Text) + ")"
}

// Err converts a failed outcome into an error.
//
// KindError maps to *ServerReplyError, KindInvalid to ErrInvalidResponse and
// KindUnknown to ErrUnknownResponse. Every other kind returns nil.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindError:
		return newServerReplyError(o.Text)
	case KindInvalid:
		return ErrInvalidResponse
	case KindUnknown:
		return ErrUnknownResponse
	default:
		return nil
	}
}

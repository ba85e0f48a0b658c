package text

import "strconv"

// Value is the content of a complete value block.
type Value struct {
	Key   string
	Flags uint32

	// CAS is the cas unique, present when HasCAS is true (gets/gats).
	CAS    uint64
	HasCAS bool

	// Data is a copy of the data block; it does not alias the input.
	Data []byte
}

// ParseValue extracts the value from a buffer that classifies as KindHit.
//
// Classification only validates a value block; callers that need the item
// itself call ParseValue on the same bytes. Any other classification
// returns a *ParseError wrapping ErrNotHit.
func ParseValue(buf []byte) (Value, error) {
	f := Lex(buf)

	if out := Classify(buf); out.Kind != KindHit {
		return Value{}, &ParseError{Message: "response classified as " + out.Kind.String(), Err: ErrNotHit}
	}

	flags, _ := parseUint(f.Token(valueFieldFlags), 32)
	v := Value{
		Key:   string(f.Token(valueFieldKey)),
		Flags: uint32(flags),
		Data:  append([]byte(nil), payload(buf, &f)...),
	}

	if cas := f.Token(valueFieldCAS); cas != nil {
		n, ok := parseUint(cas, 64)
		if !ok {
			return Value{}, &ParseError{Message: "invalid cas " + strconv.Quote(string(cas))}
		}
		v.CAS = n
		v.HasCAS = true
	}

	return v, nil
}

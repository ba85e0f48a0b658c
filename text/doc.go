// Package text classifies responses of the memcached text protocol.
//
// A client reading from a socket rarely receives a response in one piece.
// Classify takes the bytes accumulated so far for one in-flight request and
// tells whether they hold a complete response, a partial one, or a broken
// one. It never reads or writes anything itself: the read loop, buffering
// and connection handling belong to the caller.
//
// # Outcomes
//
//   - KindIncomplete: keep reading and call Classify again on the grown buffer
//   - KindOk: OK, STORED, DELETED, or a numeric incr/decr reply
//   - KindMiss: END, EXISTS, NOT_FOUND, NOT_STORED
//   - KindHit: a complete VALUE block whose data length matches its header
//   - KindError: ERROR, CLIENT_ERROR or SERVER_ERROR, reply kept verbatim
//   - KindVersion: VERSION reply, version string in Outcome.Text
//   - KindInvalid: recognized shape with a broken field
//   - KindUnknown: unrecognized first token
//
// # Read Loop
//
//	var buf []byte
//	for {
//	    n, err := conn.Read(chunk)
//	    buf = append(buf, chunk[:n]...)
//	    out := text.Classify(buf)
//	    if out.IsTerminal() {
//	        handle(out, buf)
//	        buf = buf[:0]
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
//
// Invalid, Unknown and Error are terminal for the current request. Classify
// is deterministic, so calling it again on the same bytes yields the same
// outcome.
//
// # Lexing
//
// Lex exposes the intermediate structure Classify works on: the lines of the
// buffer, the tokens of its first line and the marker those tokens start
// with. It is useful to inspect why a buffer classified the way it did.
//
// # Values
//
// Classify only validates a value block. ParseValue extracts its key, flags,
// cas unique and data from the same bytes.
//
// # Thread Safety
//
// Every function in this package is safe for concurrent use. Frames returned
// by Lex alias the lexed buffer.
package text

// Package mcresp reads memcached text protocol responses from a stream.
//
// The classification itself lives in the text package and performs no I/O.
// This package is the caller side of it: a Decoder accumulates bytes from
// an io.Reader until they classify as a complete response, and the
// surrounding pieces record, log and guard what comes out.
//
//   - Decoder: frames and classifies responses from an io.Reader
//   - Stats: per-outcome counters and distinct server error replies
//   - ViolationBreaker: stops reading a source that keeps breaking the protocol
//   - DecoderPool: bounds and reuses decoders for bulk decoding
//   - DiagnosticHandler: component-gated slog handler for diagnostics
//
// Basic usage:
//
//	d := mcresp.NewDecoder(conn, mcresp.Config{})
//	defer d.Release()
//
//	conn.Write([]byte("get mykey\r\n"))
//	resp, err := d.Next(ctx)
//	if err != nil {
//	    return err
//	}
//	switch resp.Outcome.Kind {
//	case text.KindHit:
//	    v, _ := text.ParseValue(resp.Raw)
//	    use(v.Data)
//	case text.KindMiss:
//	    // not found
//	default:
//	    if err := resp.Err(); err != nil && text.ShouldCloseConnection(err) {
//	        conn.Close()
//	    }
//	}
package mcresp

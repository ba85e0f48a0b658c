package mcresp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/pior/mcresp/internal"
	"github.com/pior/mcresp/text"
)

var (
	// ErrResponseTooLarge is returned when a response grows past
	// Config.MaxResponseSize without completing. The stream position is lost
	// and the source should be discarded.
	ErrResponseTooLarge = errors.New("mcresp: response exceeds maximum size")

	// ErrDecoderReleased is returned by a decoder used after Release.
	ErrDecoderReleased = errors.New("mcresp: decoder released")
)

var bufferPool = internal.NewBufferPool(DefaultReadSize)

// Response is one classified response.
type Response struct {
	Outcome text.Outcome

	// Raw holds the exact bytes of the response. It is owned by the caller.
	Raw []byte
}

// Err returns the error for Invalid, Unknown and Error outcomes, see
// text.Outcome.Err.
func (r Response) Err() error {
	return r.Outcome.Err()
}

// Decoder reads responses from a stream, one at a time.
//
// The stream must carry responses for one request at a time (or a recording
// of such a conversation): Next returns as soon as the accumulated bytes
// classify as a complete response and leaves anything after it unread.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	cfg    Config
	logger *slog.Logger
	src    *bufio.Reader
	buf    *bytes.Buffer
}

// NewDecoder creates a decoder reading from r. r may be nil and set later
// with Reset.
func NewDecoder(r io.Reader, cfg Config) *Decoder {
	cfg = cfg.withDefaults()
	d := &Decoder{
		cfg:    cfg,
		logger: cfg.Logger,
		src:    bufio.NewReaderSize(nil, cfg.ReadSize),
		buf:    bufferPool.Get(),
	}
	d.Reset(r)
	return d
}

// Reset discards any buffered state and switches to reading from r.
func (d *Decoder) Reset(r io.Reader) {
	if d.buf != nil {
		d.buf.Reset()
	}
	if r == nil {
		r = eofReader{}
	}
	d.src.Reset(r)
}

// Release returns the decoder's buffer to the shared pool. The decoder must
// not be used afterwards.
func (d *Decoder) Release() {
	bufferPool.Put(d.buf, d.cfg.ReadSize*16)
	d.buf = nil
	d.src.Reset(eofReader{})
}

// Next reads until the bytes received form a complete response and returns
// it classified.
//
// Incomplete is never returned: running out of input in the middle of a
// response yields io.ErrUnexpectedEOF, and a clean end of stream between
// responses yields io.EOF. The context is checked between reads; it does not
// interrupt a blocked read.
func (d *Decoder) Next(ctx context.Context) (Response, error) {
	if d.buf == nil {
		return Response{}, ErrDecoderReleased
	}
	d.buf.Reset()

	for {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}

		// Responses end on a line boundary, so classifying after each line
		// finds the same end as classifying after every byte.
		line, err := d.src.ReadSlice('\n')
		if len(line) > 0 {
			if d.buf.Len()+len(line) > d.cfg.MaxResponseSize {
				d.debug(ctx, "response too large",
					slog.Int("bytes", d.buf.Len()+len(line)),
					slog.Int("max", d.cfg.MaxResponseSize),
					slog.String("head", headOf(d.buf.Bytes())),
				)
				return Response{}, ErrResponseTooLarge
			}
			d.buf.Write(line)
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if d.buf.Len() == 0 {
				return Response{}, io.EOF
			}
			d.debug(ctx, "stream ended inside a response",
				slog.Int("bytes", d.buf.Len()),
				slog.String("head", headOf(d.buf.Bytes())),
			)
			return Response{}, io.ErrUnexpectedEOF
		default:
			return Response{}, err
		}

		out := text.Classify(d.buf.Bytes())
		if !out.IsTerminal() {
			continue
		}

		resp := Response{
			Outcome: out,
			Raw:     bytes.Clone(d.buf.Bytes()),
		}
		d.observe(ctx, resp)
		return resp, nil
	}
}

func (d *Decoder) observe(ctx context.Context, resp Response) {
	if d.cfg.Stats != nil {
		d.cfg.Stats.Record(resp.Outcome, len(resp.Raw))
	}

	switch resp.Outcome.Kind {
	case text.KindError:
		d.debug(ctx, "server error reply",
			slog.String("reply", headOf([]byte(resp.Outcome.Text))),
		)
	case text.KindInvalid, text.KindUnknown:
		d.debug(ctx, "protocol violation",
			slog.String("outcome", resp.Outcome.Kind.String()),
			slog.Int("bytes", len(resp.Raw)),
			slog.String("head", headOf(resp.Raw)),
		)
	}
}

func (d *Decoder) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !d.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	d.logger.LogAttrs(ctx, slog.LevelDebug, msg, append([]slog.Attr{componentAttr}, attrs...)...)
}

// headOf returns the first line of buf, truncated for logging.
func headOf(buf []byte) string {
	const maxHead = 64
	if i := bytes.Index(buf, []byte(text.CRLF)); i >= 0 {
		buf = buf[:i]
	}
	if len(buf) > maxHead {
		return string(buf[:maxHead]) + "..."
	}
	return string(buf)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

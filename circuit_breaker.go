package mcresp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ViolationError is returned by ViolationBreaker.Next for Invalid and
// Unknown responses. The response is still available to the caller.
type ViolationError struct {
	Response Response
}

func (e *ViolationError) Error() string {
	return "mcresp: protocol violation: " + e.Response.Outcome.Kind.String() + " response " + headOf(e.Response.Raw)
}

// Unwrap returns text.ErrInvalidResponse or text.ErrUnknownResponse.
func (e *ViolationError) Unwrap() error {
	return e.Response.Err()
}

// ShouldCloseConnection returns true - the stream can not be trusted anymore
func (e *ViolationError) ShouldCloseConnection() bool {
	return true
}

// ViolationBreaker stops reading from a source that keeps sending responses
// that break the protocol.
//
// Invalid and Unknown responses and read errors count as failures; server
// error replies and a clean io.EOF do not. Once the breaker opens, Next
// fails fast with gobreaker.ErrOpenState without touching the decoder.
type ViolationBreaker struct {
	cb *gobreaker.CircuitBreaker[Response]
}

// NewViolationBreakerSettings returns the default breaker settings: trip
// after at least 3 responses of which 60% or more failed.
func NewViolationBreakerSettings(name string, maxRequests uint32, interval, timeout time.Duration) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
}

// NewViolationBreaker creates a breaker. IsSuccessful is always replaced;
// when logger is not nil, state changes are logged at info level.
func NewViolationBreaker(settings gobreaker.Settings, logger *slog.Logger) *ViolationBreaker {
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, io.EOF)
	}

	if logger != nil {
		onStateChange := settings.OnStateChange
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Info("violation breaker state change",
				componentAttr,
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if onStateChange != nil {
				onStateChange(name, from, to)
			}
		}
	}

	return &ViolationBreaker{
		cb: gobreaker.NewCircuitBreaker[Response](settings),
	}
}

// Next reads the next response from d through the breaker.
func (b *ViolationBreaker) Next(ctx context.Context, d *Decoder) (Response, error) {
	return b.cb.Execute(func() (Response, error) {
		resp, err := d.Next(ctx)
		if err != nil {
			return resp, err
		}
		if resp.Outcome.IsViolation() {
			return resp, &ViolationError{Response: resp}
		}
		return resp, nil
	})
}

// State returns the current breaker state.
func (b *ViolationBreaker) State() gobreaker.State {
	return b.cb.State()
}

// Counts returns the breaker's counts for the current generation.
func (b *ViolationBreaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

// Name returns the breaker name.
func (b *ViolationBreaker) Name() string {
	return b.cb.Name()
}


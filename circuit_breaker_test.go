package mcresp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pior/mcresp/text"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(t *testing.T) *ViolationBreaker {
	t.Helper()
	return NewViolationBreaker(NewViolationBreakerSettings("test", 1, 0, time.Minute), nil)
}

func TestNewViolationBreakerSettings_ReadyToTrip(t *testing.T) {
	settings := NewViolationBreakerSettings("test", 1, time.Second, time.Second)

	assert.Equal(t, "test", settings.Name)
	assert.Equal(t, uint32(1), settings.MaxRequests)

	tests := []struct {
		requests, failures uint32
		want               bool
	}{
		{requests: 2, failures: 2, want: false},
		{requests: 3, failures: 1, want: false},
		{requests: 3, failures: 2, want: true},
		{requests: 5, failures: 3, want: true},
		{requests: 5, failures: 2, want: false},
	}
	for _, tt := range tests {
		counts := gobreaker.Counts{Requests: tt.requests, TotalFailures: tt.failures}
		assert.Equal(t, tt.want, settings.ReadyToTrip(counts), "requests=%d failures=%d", tt.requests, tt.failures)
	}
}

func TestViolationBreaker_Success(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader("STORED\r\n"), Config{})
	defer d.Release()

	resp, err := b.Next(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, text.Ok, resp.Outcome)

	assert.Equal(t, "test", b.Name())
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, uint32(1), b.Counts().TotalSuccesses)
}

func TestViolationBreaker_ViolationError(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader("VALUE k 0 1\r\nxyz\r\nEND\r\n"), Config{})
	defer d.Release()

	resp, err := b.Next(context.Background(), d)
	require.Error(t, err)

	// The response is still handed back
	assert.Equal(t, text.Invalid, resp.Outcome)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, resp, violation.Response)
	assert.ErrorIs(t, err, text.ErrInvalidResponse)
	assert.True(t, text.ShouldCloseConnection(err))
	assert.Equal(t, "mcresp: protocol violation: invalid response VALUE k 0 1", err.Error())
}

func TestViolationBreaker_TripsOnViolations(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader("BOGUS\r\nBOGUS\r\nBOGUS\r\nSTORED\r\n"), Config{})
	defer d.Release()

	for range 3 {
		resp, err := b.Next(context.Background(), d)
		assert.ErrorIs(t, err, text.ErrUnknownResponse)
		assert.Equal(t, text.Unknown, resp.Outcome)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Next(context.Background(), d)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	// An open breaker does not consume the stream
	resp, err := d.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, text.Ok, resp.Outcome)
}

func TestViolationBreaker_ServerErrorsAreNotViolations(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader(strings.Repeat("SERVER_ERROR out of memory\r\n", 5)), Config{})
	defer d.Release()

	for range 5 {
		resp, err := b.Next(context.Background(), d)
		require.NoError(t, err)
		assert.Equal(t, text.KindError, resp.Outcome.Kind)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, uint32(5), b.Counts().TotalSuccesses)
}

func TestViolationBreaker_EOFIsNotAFailure(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader(""), Config{})
	defer d.Release()

	for range 5 {
		_, err := b.Next(context.Background(), d)
		assert.ErrorIs(t, err, io.EOF)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Zero(t, b.Counts().TotalFailures)
}

func TestViolationBreaker_ReadErrorsAreFailures(t *testing.T) {
	b := newTestBreaker(t)
	d := NewDecoder(strings.NewReader("VALUE k 0 5\r\nhe"), Config{})
	defer d.Release()

	_, err := b.Next(context.Background(), d)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, uint32(1), b.Counts().TotalFailures)
}

func TestViolationBreaker_LogsStateChange(t *testing.T) {
	logger, records := newCapturingLogger()

	var changes []gobreaker.State
	settings := NewViolationBreakerSettings("replay", 1, 0, time.Minute)
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		changes = append(changes, to)
	}

	b := NewViolationBreaker(settings, logger)
	d := NewDecoder(strings.NewReader(strings.Repeat("BOGUS\r\n", 3)), Config{})
	defer d.Release()

	for range 3 {
		_, err := b.Next(context.Background(), d)
		var violation *ViolationError
		require.True(t, errors.As(err, &violation))
	}

	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, changes)

	require.Len(t, *records, 1)
	assert.Equal(t, "violation breaker state change", (*records)[0].Message)
	attrs := recordAttrs((*records)[0])
	assert.Equal(t, DefaultComponent, attrs[ComponentKey])
	assert.Equal(t, "replay", attrs["name"])
	assert.Equal(t, "closed", attrs["from"])
	assert.Equal(t, "open", attrs["to"])
}

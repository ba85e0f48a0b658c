package mcresp

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// PoolStats contains statistics about a decoder pool.
type PoolStats struct {
	AcquireCount      uint64 // Total successful acquires
	AcquireWaitCount  uint64 // Acquires that had to wait for a decoder
	CanceledAcquires  uint64 // Acquires canceled by their context
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting
	CreatedDecoders   uint64 // Total decoders created
	DestroyedDecoders uint64 // Total decoders destroyed

	TotalDecoders    int32 // Decoders in the pool (acquired + idle)
	IdleDecoders     int32 // Idle decoders available
	AcquiredDecoders int32 // Decoders currently in use
}

// DecoderPool bounds the number of sources decoded at once and reuses
// decoders (and their buffers) between them.
type DecoderPool struct {
	pool              *puddle.Pool[*Decoder]
	createdDecoders   atomic.Int64
	destroyedDecoders atomic.Int64
}

// NewDecoderPool creates a pool of at most maxSize decoders configured with cfg.
func NewDecoderPool(cfg Config, maxSize int32) (*DecoderPool, error) {
	p := &DecoderPool{}

	poolConfig := &puddle.Config[*Decoder]{
		Constructor: func(ctx context.Context) (*Decoder, error) {
			p.createdDecoders.Add(1)
			return NewDecoder(nil, cfg), nil
		},
		Destructor: func(d *Decoder) {
			p.destroyedDecoders.Add(1)
			d.Release()
		},
		MaxSize: maxSize,
	}

	pool, err := puddle.NewPool(poolConfig)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Decode acquires a decoder, reads every response from r and hands each one
// to fn. It returns nil once r is exhausted between two responses.
//
// If breaker is not nil, responses are read through it: violating responses
// are still passed to fn, and decoding stops with gobreaker.ErrOpenState once
// the breaker opens. An error returned by fn stops decoding and is returned.
func (p *DecoderPool) Decode(ctx context.Context, r io.Reader, breaker *ViolationBreaker, fn func(Response) error) error {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	d := res.Value()
	d.Reset(r)
	defer func() {
		d.Reset(nil)
		res.Release()
	}()

	for {
		var resp Response
		if breaker != nil {
			resp, err = breaker.Next(ctx, d)
		} else {
			resp, err = d.Next(ctx)
		}

		var violation *ViolationError
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &violation):
		default:
			return err
		}

		if err := fn(resp); err != nil {
			return err
		}
	}
}

// Close destroys every idle decoder and waits for acquired ones to be
// released.
func (p *DecoderPool) Close() {
	p.pool.Close()
}

// Stats returns a snapshot of pool statistics.
func (p *DecoderPool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CanceledAcquires:  uint64(s.CanceledAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
		CreatedDecoders:   uint64(p.createdDecoders.Load()),
		DestroyedDecoders: uint64(p.destroyedDecoders.Load()),
		TotalDecoders:     s.TotalResources(),
		IdleDecoders:      s.IdleResources(),
		AcquiredDecoders:  s.AcquiredResources(),
	}
}

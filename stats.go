package mcresp

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pior/mcresp/text"
	"github.com/zeebo/xxh3"
)

// maxErrorMessages bounds the number of distinct error replies tracked.
const maxErrorMessages = 128

// OutcomeStats contains counts of classified responses.
// All fields are safe for concurrent access.
//
// For Prometheus integration, use the promexporter package, which exposes
// these as counters with an outcome label.
type OutcomeStats struct {
	Ok      uint64 // OK, STORED, DELETED and numeric replies
	Miss    uint64 // END, EXISTS, NOT_FOUND, NOT_STORED
	Hit     uint64 // Complete value blocks
	Error   uint64 // ERROR, CLIENT_ERROR, SERVER_ERROR
	Version uint64 // VERSION replies
	Invalid uint64 // Recognized shape, broken field
	Unknown uint64 // Unrecognized response
	Bytes   uint64 // Total bytes of classified responses
}

// Total returns the number of classified responses.
func (s OutcomeStats) Total() uint64 {
	return s.Ok + s.Miss + s.Hit + s.Error + s.Version + s.Invalid + s.Unknown
}

// Violations returns the number of Invalid and Unknown responses.
func (s OutcomeStats) Violations() uint64 {
	return s.Invalid + s.Unknown
}

// Count returns the count for kind. KindIncomplete is never recorded.
func (s OutcomeStats) Count(kind text.Kind) uint64 {
	switch kind {
	case text.KindOk:
		return s.Ok
	case text.KindMiss:
		return s.Miss
	case text.KindHit:
		return s.Hit
	case text.KindError:
		return s.Error
	case text.KindVersion:
		return s.Version
	case text.KindInvalid:
		return s.Invalid
	case text.KindUnknown:
		return s.Unknown
	default:
		return 0
	}
}

// ErrorMessageCount is the number of times a server sent the same error reply.
type ErrorMessageCount struct {
	Reply string // Without the trailing CRLF
	Count uint64
}

// Stats records classified responses. The zero value is ready to use.
type Stats struct {
	stats OutcomeStats

	mu            sync.Mutex
	errorMessages map[uint64]*ErrorMessageCount
	droppedErrors uint64
}

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{
		errorMessages: make(map[uint64]*ErrorMessageCount),
	}
}

// Record counts one terminal outcome of n bytes. Incomplete outcomes are
// ignored.
func (s *Stats) Record(out text.Outcome, n int) {
	var counter *uint64
	switch out.Kind {
	case text.KindOk:
		counter = &s.stats.Ok
	case text.KindMiss:
		counter = &s.stats.Miss
	case text.KindHit:
		counter = &s.stats.Hit
	case text.KindError:
		counter = &s.stats.Error
		s.recordErrorMessage(out.Text)
	case text.KindVersion:
		counter = &s.stats.Version
	case text.KindInvalid:
		counter = &s.stats.Invalid
	case text.KindUnknown:
		counter = &s.stats.Unknown
	default:
		return
	}

	atomic.AddUint64(counter, 1)
	atomic.AddUint64(&s.stats.Bytes, uint64(n))
}

func (s *Stats) recordErrorMessage(reply string) {
	reply = strings.TrimSuffix(reply, text.CRLF)
	h := xxh3.HashString(reply)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.errorMessages[h]; ok {
		e.Count++
		return
	}
	if s.errorMessages == nil {
		s.errorMessages = make(map[uint64]*ErrorMessageCount)
	}
	if len(s.errorMessages) >= maxErrorMessages {
		s.droppedErrors++
		return
	}
	s.errorMessages[h] = &ErrorMessageCount{Reply: reply, Count: 1}
}

// Snapshot returns a copy of the current counts.
func (s *Stats) Snapshot() OutcomeStats {
	return OutcomeStats{
		Ok:      atomic.LoadUint64(&s.stats.Ok),
		Miss:    atomic.LoadUint64(&s.stats.Miss),
		Hit:     atomic.LoadUint64(&s.stats.Hit),
		Error:   atomic.LoadUint64(&s.stats.Error),
		Version: atomic.LoadUint64(&s.stats.Version),
		Invalid: atomic.LoadUint64(&s.stats.Invalid),
		Unknown: atomic.LoadUint64(&s.stats.Unknown),
		Bytes:   atomic.LoadUint64(&s.stats.Bytes),
	}
}

// ErrorMessages returns the distinct error replies seen, most frequent
// first, and the number of replies not tracked because the table was full.
func (s *Stats) ErrorMessages() ([]ErrorMessageCount, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]ErrorMessageCount, 0, len(s.errorMessages))
	for _, e := range s.errorMessages {
		messages = append(messages, *e)
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Count != messages[j].Count {
			return messages[i].Count > messages[j].Count
		}
		return messages[i].Reply < messages[j].Reply
	})
	return messages, s.droppedErrors
}

package testutils

import (
	"bytes"
	"io"
	"strings"
)

// ReaderMock is an io.Reader that hands out pre-configured response data in
// chunks of at most ChunkSize bytes, the way a socket delivers partial reads.
type ReaderMock struct {
	readBuf   *bytes.Buffer
	ChunkSize int

	// Err is returned once readBuf is drained. Defaults to io.EOF.
	Err error

	Reads int
}

// NewReaderMock creates a reader returning responseData, one byte per read
// unless ChunkSize is changed.
func NewReaderMock(responseData ...string) *ReaderMock {
	return &ReaderMock{
		readBuf:   bytes.NewBufferString(strings.Join(responseData, "")),
		ChunkSize: 1,
		Err:       io.EOF,
	}
}

func (m *ReaderMock) Read(b []byte) (n int, err error) {
	m.Reads++
	if m.readBuf.Len() == 0 {
		return 0, m.Err
	}
	if m.ChunkSize > 0 && len(b) > m.ChunkSize {
		b = b[:m.ChunkSize]
	}
	return m.readBuf.Read(b)
}

// Remaining returns the number of unread bytes.
func (m *ReaderMock) Remaining() int {
	return m.readBuf.Len()
}

package internal

import (
	"bytes"
	"sync"
)

// BufferPool recycles the byte buffers responses are accumulated in.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool(initialSize int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put resets buf and returns it to the pool. Buffers that grew past
// maxRetained are dropped so one huge value does not pin memory.
func (p *BufferPool) Put(buf *bytes.Buffer, maxRetained int) {
	if buf == nil || buf.Cap() > maxRetained {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

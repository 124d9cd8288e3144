// Package pool provides memory management optimizations.
// This includes buffer pooling to reduce allocations on the proxy encode
// path, where every upload builds a base64 copy of its payload.
package pool

import (
	"bytes"
	"sync"
)

const (
	// SmallBufferSize defines the initial capacity for small buffers (4KB)
	SmallBufferSize = 4 * 1024
	// MediumBufferSize defines the initial capacity for medium buffers (64KB)
	MediumBufferSize = 64 * 1024
	// LargeBufferSize defines the initial capacity for large buffers (1MB)
	LargeBufferSize = 1024 * 1024

	// maxPooledSize caps the capacity of buffers returned to the pool so a
	// single oversized upload does not pin memory forever.
	maxPooledSize = 8 * 1024 * 1024
)

// BufferPool manages reusable byte buffers of different size tiers.
type BufferPool struct {
	small  *sync.Pool
	medium *sync.Pool
	large  *sync.Pool
}

// NewBufferPool creates a new buffer pool with default tier sizes.
func NewBufferPool() *BufferPool {
	newTier := func(size int) *sync.Pool {
		return &sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, size))
			},
		}
	}
	return &BufferPool{
		small:  newTier(SmallBufferSize),
		medium: newTier(MediumBufferSize),
		large:  newTier(LargeBufferSize),
	}
}

// Get returns an empty buffer whose tier suits a payload of hint bytes.
func (p *BufferPool) Get(hint int) *bytes.Buffer {
	var buf *bytes.Buffer
	switch {
	case hint <= SmallBufferSize:
		buf = p.small.Get().(*bytes.Buffer)
	case hint <= MediumBufferSize:
		buf = p.medium.Get().(*bytes.Buffer)
	default:
		buf = p.large.Get().(*bytes.Buffer)
	}
	buf.Reset()
	return buf
}

// Put returns a buffer to its tier. Buffers grown beyond maxPooledSize
// are dropped.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledSize {
		return
	}
	switch {
	case buf.Cap() <= SmallBufferSize:
		p.small.Put(buf)
	case buf.Cap() <= MediumBufferSize:
		p.medium.Put(buf)
	default:
		p.large.Put(buf)
	}
}

package logging

import (
	"bytes"
	"sync"
)

// maxPooledBuffer 超过该容量的 buffer 不再归还，避免偶发的大条目长期占用内存
const maxPooledBuffer = 64 << 10

// BufferPool 字节缓冲池，格式化器复用 buffer 以减少 GC
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, 256))
			},
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put 归还 buffer，过大的 buffer 直接丢弃
func (p *BufferPool) Put(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// GlobalBufferPool 全局缓冲池实例
var GlobalBufferPool = NewBufferPool()

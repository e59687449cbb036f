package quantum

// BufferPool recycles statevector scratch buffers so that the hundreds of
// circuit evaluations in an optimization run do not each allocate a fresh
// 2^n amplitude slice. It is not safe for concurrent use; every solver owns
// its own pool.
type BufferPool struct {
	size    int
	buffers [][]complex128
}

// NewBufferPool creates a pool of amplitude buffers for an n-qubit register.
func NewBufferPool(numQubits int) *BufferPool {
	return &BufferPool{size: 1 << numQubits, buffers: make([][]complex128, 0, 4)}
}

// Get returns a zeroed buffer of length 2^n.
func (p *BufferPool) Get() []complex128 {
	if n := len(p.buffers); n > 0 {
		buf := p.buffers[n-1]
		p.buffers = p.buffers[:n-1]
		for i := range buf {
			buf[i] = 0
		}
		return buf
	}
	return make([]complex128, p.size)
}

// Put returns a buffer to the pool. Buffers of the wrong size are dropped.
func (p *BufferPool) Put(buf []complex128) {
	if len(buf) != p.size {
		return
	}
	p.buffers = append(p.buffers, buf)
}

// Package parallel provides the persistent worker pool that runs each
// estimator pass over chunks of rows or pixels.
package parallel

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum item count to dispatch to workers.
// Below this, a single inline chunk is faster than channel round trips.
const parallelThreshold = 64

// ChunkFunc processes items [start, end). chunk identifies the chunk and is
// always below Workers(), so it can index per-worker scratch or partial sums.
type ChunkFunc func(chunk, start, end int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	index      int
	start, end int
	fn         ChunkFunc
}

// Pool is a set of persistent worker goroutines. Run blocks until every
// dispatched chunk has finished, which makes each call a barrier.
// A Pool must not be used by more than one goroutine at a time.
type Pool struct {
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool with the given number of workers.
// workers <= 0 uses GOMAXPROCS. Workers start lazily on the first parallel Run.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		numWorkers: workers,
		threshold:  parallelThreshold,
	}
}

// Workers returns the number of workers, which bounds chunk indices.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// SetThreshold changes the minimum item count for parallel dispatch.
// A threshold of 0 always dispatches to workers.
func (p *Pool) SetThreshold(n int) {
	if n < 0 {
		n = 0
	}
	p.threshold = n
}

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.index, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Run splits [0, n) into at most Workers() contiguous chunks and processes
// them, returning once all are done. It returns the number of chunks used.
// Chunk i always covers a lower range than chunk i+1.
func (p *Pool) Run(n int, fn ChunkFunc) int {
	if n <= 0 {
		return 0
	}
	if p == nil || p.numWorkers == 1 || n < p.threshold {
		fn(0, 0, n)
		return 1
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{index: w, start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
	return chunksDispatched
}

// Close signals all workers to exit and waits for them.
// The pool remains usable; the next parallel Run restarts the workers.
func (p *Pool) Close() {
	if p == nil || !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

package systems

import (
	"runtime"
	"sync"
)

// parallelRowThreshold is the minimum row count to fan out.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelRowThreshold = 64

// rowChunk is a half-open row range for one worker.
type rowChunk struct {
	start, end int
	fn         func(y0, y1 int)
}

// RowPool splits per-row work over persistent worker goroutines. Run blocks
// until every row has been processed, so callers stay frame-synchronous.
type RowPool struct {
	numWorkers int

	workChan chan rowChunk
	doneChan chan any
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewRowPool creates a pool sized to GOMAXPROCS. Workers start lazily.
func NewRowPool() *RowPool {
	return &RowPool{numWorkers: runtime.GOMAXPROCS(0)}
}

func (p *RowPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan any, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *RowPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- runChunk(chunk)
		}
	}
}

// Run calls fn over [0, rows) in contiguous chunks. fn must only touch
// rows inside its range.
func (p *RowPool) Run(rows int, fn func(y0, y1 int)) {
	if rows <= 0 {
		return
	}
	if p == nil || rows < parallelRowThreshold || p.numWorkers < 2 {
		fn(0, rows)
		return
	}
	p.start()

	chunkSize := (rows + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, rows)
		if start >= end {
			continue
		}
		p.workChan <- rowChunk{start: start, end: end, fn: fn}
		dispatched++
	}
	var failure any
	for i := 0; i < dispatched; i++ {
		if r := <-p.doneChan; r != nil && failure == nil {
			failure = r
		}
	}
	// Re-raise on the caller's goroutine so frame-level recovery sees it
	if failure != nil {
		panic(failure)
	}
}

func runChunk(chunk rowChunk) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	chunk.fn(chunk.start, chunk.end)
	return nil
}

// Stop shuts the workers down. The pool restarts on the next Run.
func (p *RowPool) Stop() {
	if p == nil || !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

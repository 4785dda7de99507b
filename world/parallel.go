package world

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pressure/components"
)

// motionJob captures one entity's state before the pass.
type motionJob struct {
	entity ecs.Entity
	pos    components.Position
	vel    components.Velocity
}

// motionResult is the outcome of advance for the job at the same index.
type motionResult struct {
	pos     components.Position
	vel     components.Velocity
	bounced bool
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
	grid       *Grid
}

// parallelState holds the persistent worker pool for the entity pass.
// Workers only read the grid and write disjoint result ranges.
type parallelState struct {
	jobs       []motionJob
	results    []motionResult
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		jobs:       make([]motionJob, 0, 256),
		results:    make([]motionResult, 0, 256),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
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

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.grid, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// computeChunk runs the motion rule for jobs [start, end).
func (p *parallelState) computeChunk(g *Grid, start, end int) {
	for i := start; i < end; i++ {
		job := &p.jobs[i]
		pos, vel, bounced := advance(job.pos, job.vel, g)
		p.results[i] = motionResult{pos: pos, vel: vel, bounced: bounced}
	}
}

// computeParallel splits n jobs into contiguous chunks, one per worker,
// and blocks until all of them are done.
func (p *parallelState) computeParallel(g *Grid, n int) {
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, grid: g}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

package meshing

import (
	"context"
	"sync"

	"voxeld/internal/block"
	"voxeld/internal/world"
)

// Job is one mesh build request.
type Job struct {
	Data *world.ChunkData
	LOD  int
	// Result receives exactly one Result when the build finishes.
	Result chan Result
}

type Result struct {
	Coord world.ChunkCoord
	Mesh  *world.ChunkMesh
	Err   error
}

// WorkerPool runs mesh builds on a fixed set of goroutines so chunk loading
// never meshes inline on the caller.
type WorkerPool struct {
	reg   *block.Registry
	atlas block.AtlasLookup

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorkerPool(reg *block.Registry, atlas block.AtlasLookup, workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		reg:    reg,
		atlas:  atlas,
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues a job; false means the queue is full.
func (p *WorkerPool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Build submits a job and waits for its result.
func (p *WorkerPool) Build(ctx context.Context, d *world.ChunkData, lod int) (*world.ChunkMesh, error) {
	res := make(chan Result, 1)
	select {
	case p.jobs <- Job{Data: d, LOD: lod, Result: res}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}
	select {
	case r := <-res:
		return r.Mesh, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			mesh, err := GenerateLODMesh(job.Data, p.reg, p.atlas, job.LOD)
			select {
			case job.Result <- Result{Coord: job.Data.Coord, Mesh: mesh, Err: err}:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// QueueLen returns the number of queued jobs.
func (p *WorkerPool) QueueLen() int { return len(p.jobs) }

// Shutdown stops the workers and waits for them to exit.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/scrypster/reverie/pkg/types"
)

const synthesisQueueSize = 64

// synthesisJob is one unit of background work: rebuild profiles for the
// entities on a saved thought.
type synthesisJob struct {
	taskID  string
	thought *types.Thought
}

// synthesisPool runs profile synthesis on a small fixed pool of workers,
// decoupled from the request pipeline. A registry keyed by thought ID
// tracks task state and guarantees at most one task per thought.
type synthesisPool struct {
	synth   *synthesizer
	queue   chan *synthesisJob
	wg      sync.WaitGroup
	workers int

	mu       sync.Mutex
	registry map[string]*types.TaskRecord // keyed by thought ID
	closed   bool

	// onComplete is invoked after a task finishes, success or not. The
	// server layer uses it to broadcast synthesis events.
	onComplete func(task *types.TaskRecord)
}

func newSynthesisPool(synth *synthesizer, workers int) *synthesisPool {
	if workers <= 0 {
		workers = 2
	}
	return &synthesisPool{
		synth:    synth,
		queue:    make(chan *synthesisJob, synthesisQueueSize),
		workers:  workers,
		registry: make(map[string]*types.TaskRecord),
	}
}

// Start launches the workers.
func (p *synthesisPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	log.Printf("agent: started %d synthesis workers", p.workers)
}

// Stop closes the queue and waits for workers to drain, bounded by the
// timeout.
func (p *synthesisPool) Stop(timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("agent: synthesis workers finished")
	case <-time.After(timeout):
		log.Printf("agent: synthesis shutdown timeout, %d queued jobs dropped", len(p.queue))
	}
}

// Enqueue schedules synthesis for a saved thought. Fire-and-forget: a full
// queue or an already-scheduled thought drops the job rather than blocking
// the pipeline. Returns a snapshot of the task record, or nil when nothing
// was scheduled.
func (p *synthesisPool) Enqueue(thought *types.Thought) *types.TaskRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if existing, ok := p.registry[thought.ID]; ok && !existing.Done() {
		return snapshotTask(existing)
	}

	task := &types.TaskRecord{
		ID:        types.NewTaskID(),
		ThoughtID: thought.ID,
		Status:    types.TaskPending,
		CreatedAt: time.Now(),
	}

	select {
	case p.queue <- &synthesisJob{taskID: task.ID, thought: thought}:
		p.registry[thought.ID] = task
		return snapshotTask(task)
	default:
		log.Printf("agent: synthesis queue full, dropping task for %s", thought.ID)
		return nil
	}
}

// TaskStatus returns a snapshot of the registry entry for a thought.
func (p *synthesisPool) TaskStatus(thoughtID string) (*types.TaskRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.registry[thoughtID]
	if !ok {
		return nil, false
	}
	return snapshotTask(task), true
}

// snapshotTask copies a registry record. Workers mutate records under the
// pool mutex; callers only ever see copies, so they can read them lock-free.
func snapshotTask(task *types.TaskRecord) *types.TaskRecord {
	copied := *task
	return &copied
}

// CleanupCompleted removes finished entries from the registry and reports
// how many were removed. Safe to call repeatedly.
func (p *synthesisPool) CleanupCompleted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for id, task := range p.registry {
		if task.Done() {
			delete(p.registry, id)
			removed++
		}
	}
	return removed
}

func (p *synthesisPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log.Printf("agent: synthesis worker %d started", id)

	for job := range p.queue {
		p.setStatus(job.thought.ID, types.TaskRunning, "")

		err := p.synth.Synthesize(ctx, job.thought)
		if err != nil {
			log.Printf("agent: worker %d synthesis failed for %s: %v", id, job.thought.ID, err)
			p.finish(job.thought.ID, types.TaskFailed, err.Error())
		} else {
			p.finish(job.thought.ID, types.TaskCompleted, "")
		}
	}

	log.Printf("agent: synthesis worker %d stopped", id)
}

func (p *synthesisPool) setStatus(thoughtID, status, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if task, ok := p.registry[thoughtID]; ok {
		task.Status = status
		task.Error = errMsg
	}
}

func (p *synthesisPool) finish(thoughtID, status, errMsg string) {
	p.mu.Lock()
	task, ok := p.registry[thoughtID]
	var snap *types.TaskRecord
	if ok {
		task.Status = status
		task.Error = errMsg
		now := time.Now()
		task.FinishedAt = &now
		snap = snapshotTask(task)
	}
	callback := p.onComplete
	p.mu.Unlock()

	if snap != nil && callback != nil {
		callback(snap)
	}
}

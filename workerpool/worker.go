package workerpool

import (
	"sync"

	"github.com/eapache/queue"
)

// worker owns a backlog queue of pending jobs plus a busy flag the
// dispatcher inspects when picking a target for Submit. The backlog
// is an eapache/queue.Queue rather than a channel so a worker can
// accumulate more than one pending job under policy (c) without the
// dispatcher blocking on a full channel.
type worker struct {
	id      int
	numaPin int // -1 disables pinning

	mu      sync.Mutex
	cond    *sync.Cond
	backlog *queue.Queue
	busy    bool
	stopped bool
}

func newWorker(id, numaPin int) *worker {
	w := &worker{id: id, numaPin: numaPin, backlog: queue.New()}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// idle reports whether the worker is neither executing a job nor
// holding one in its backlog — the first choice when the
// dispatcher picks a target.
func (w *worker) idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy && w.backlog.Length() == 0
}

// submit enqueues job and wakes the worker loop if it is parked.
func (w *worker) submit(job func()) {
	w.mu.Lock()
	w.backlog.Add(job)
	w.cond.Signal()
	w.mu.Unlock()
}

// run is the worker's goroutine body: pop a job, execute it (jobs
// never return values or propagate failures, so a panic is recovered
// and swallowed), repeat until stopped with an empty backlog.
func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	if w.numaPin >= 0 {
		pinCurrentThread(w.numaPin)
	}
	for {
		w.mu.Lock()
		for w.backlog.Length() == 0 && !w.stopped {
			w.cond.Wait()
		}
		if w.backlog.Length() == 0 && w.stopped {
			w.mu.Unlock()
			return
		}
		job := w.backlog.Remove().(func())
		w.busy = true
		w.mu.Unlock()

		safeExecute(job)

		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}
}

func (w *worker) stop() {
	w.mu.Lock()
	w.stopped = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

func safeExecute(job func()) {
	defer func() { _ = recover() }()
	job()
}

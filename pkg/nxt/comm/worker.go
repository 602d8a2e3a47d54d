package comm

import (
	"container/list"
	"context"
	"sync"
)

// job runs on the I/O worker and returns a continuation for Conn.Run.
type job func() func()

// worker executes blocking I/O in order. Posting never blocks.
type worker struct {
	lock   sync.Mutex
	jobs   list.List
	wakeCh chan struct{}
}

func newWorker() *worker {
	return &worker{wakeCh: make(chan struct{}, 1)}
}

func (w *worker) post(j job) {
	w.lock.Lock()
	w.jobs.PushBack(j)
	w.lock.Unlock()
	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}

func (w *worker) take() job {
	w.lock.Lock()
	defer w.lock.Unlock()
	elm := w.jobs.Front()
	if elm == nil {
		return nil
	}
	w.jobs.Remove(elm)
	return elm.Value.(job)
}

func (w *worker) run(ctx context.Context, opsCh chan<- func()) {
	for {
		j := w.take()
		if j == nil {
			select {
			case <-ctx.Done():
				return
			case <-w.wakeCh:
			}
			continue
		}
		cont := j()
		if cont == nil {
			continue
		}
		select {
		case opsCh <- cont:
		case <-ctx.Done():
			return
		}
	}
}

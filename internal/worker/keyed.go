// Package worker runs jobs serially per key and concurrently across keys.
package worker

import "sync"

// Keyed dispatches jobs so that jobs sharing a key run one at a time in
// submission order, while jobs for different keys run in parallel.
type Keyed struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

// NewKeyed creates a new keyed dispatcher
func NewKeyed() *Keyed {
	return &Keyed{queues: make(map[string][]func())}
}

// Submit enqueues job under key. It never blocks on the job itself.
func (k *Keyed) Submit(key string, job func()) {
	k.mu.Lock()
	defer k.mu.Unlock()

	queue, running := k.queues[key]
	k.queues[key] = append(queue, job)
	if running {
		return
	}
	k.wg.Add(1)
	go k.drain(key)
}

func (k *Keyed) drain(key string) {
	defer k.wg.Done()
	for {
		k.mu.Lock()
		queue := k.queues[key]
		if len(queue) == 0 {
			delete(k.queues, key)
			k.mu.Unlock()
			return
		}
		job := queue[0]
		k.queues[key] = queue[1:]
		k.mu.Unlock()

		job()
	}
}

// Wait blocks until every submitted job has finished
func (k *Keyed) Wait() {
	k.wg.Wait()
}

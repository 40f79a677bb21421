package srv

import "sync"

// turnQueue runs submitted jobs one at a time per channel, in the order
// they were submitted. Different channels drain concurrently. A channel
// holds a goroutine only while it has work.
type turnQueue struct {
	mu      sync.Mutex
	pending map[string][]func()
	wg      sync.WaitGroup
}

func newTurnQueue() *turnQueue {
	return &turnQueue{pending: make(map[string][]func())}
}

// Submit queues job behind the channel's earlier jobs. It never blocks
// on the jobs themselves.
func (q *turnQueue) Submit(channelID string, job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs, busy := q.pending[channelID]
	q.pending[channelID] = append(jobs, job)
	if busy {
		return
	}
	q.wg.Add(1)
	go q.drain(channelID)
}

func (q *turnQueue) drain(channelID string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.pending[channelID]
		if len(jobs) == 0 {
			delete(q.pending, channelID)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		q.pending[channelID] = jobs[1:]
		q.mu.Unlock()
		job()
	}
}

// Wait blocks until every submitted job has run.
func (q *turnQueue) Wait() {
	q.wg.Wait()
}

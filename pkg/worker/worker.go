package worker

import (
	"context"
	"sync"

	"github.com/nimasrn/invite-gateway/pkg/logger"
)

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	done           chan struct{}
	once           sync.Once
	do             WorkerHandler
	waiter         *sync.WaitGroup
}

// NewWorkerManager builds a fixed pool of goroutines reading from jobChannel.
// A nil channel gets a fresh buffered one. Exit stops the workers but never
// closes the job channel since callers may own it.
func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
		done:           make(chan struct{}),
		waiter:         &sync.WaitGroup{},
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue blocks until a worker accepts the job or ctx is cancelled.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) error {
	select {
	case w.jobChannel <- val:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return context.Canceled
	}
}

// Start runs the workers and blocks until ctx is done or Exit is called.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.done:
					return
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()
	return ctx.Err()
}

func (w *WorkerManager) Exit() {
	w.once.Do(func() {
		logger.Info("[worker] exit requested, stopping workers", "workers", w.numberOfWorker)
		close(w.done)
	})
}

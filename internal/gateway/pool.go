package gateway

import (
	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds the number of accepted connections waiting for a free
// worker before Server.Run's accept loop blocks handing off a new one.
const taskChanSize = 100

// workerFunc processes one task (a net.Conn) for as long as the tomb lives.
type workerFunc = func(t *tomb.Tomb, task any) error

// workerPool is a fixed-size pool of goroutines pulling tasks off a shared
// channel, logging through an injected logger rather than a package-level
// singleton so tests can silence it.
type workerPool struct {
	n      int
	tasks  chan any
	logger zerolog.Logger
}

func newWorkerPool(size int, logger zerolog.Logger) workerPool {
	return workerPool{
		n:      size,
		tasks:  make(chan any, taskChanSize),
		logger: logger,
	}
}

func (pool *workerPool) addTask(task any) {
	pool.tasks <- task
}

// setup keeps pool.n workers alive under t until t is dying.
func (pool *workerPool) setup(t *tomb.Tomb, work workerFunc) {
	pool.logger.Info().Int("workers", pool.n).Msg("gateway worker pool starting")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.run(t, work)
		})
	}
}

func (pool *workerPool) run(t *tomb.Tomb, work workerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				pool.logger.Error().Err(err).Msg("gateway worker task failed")
			}
		}
	}
}

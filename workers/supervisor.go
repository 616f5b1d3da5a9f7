package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/errors"
)

const waitTimeBeforeRestart = 200 * time.Millisecond

// Supervisor runs each worker in its own goroutine, recovers panics, and
// restarts crashed workers. A failure in one worker must not stop the
// supervisor itself; a worker returning nil is finished and never
// restarted.
type Supervisor struct {
	Cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	workers []contract.Worker
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run supervises every registered worker until the parent context is
// cancelled or Stop is called, then waits for all of them to finish.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// Start launches one worker under supervision. Panics are converted to
// ErrWorkerPanic and trigger a restart after a short delay, unless the
// context has been cancelled in the meantime.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(waitTimeBeforeRestart):
			}
		}
	}()
}

// Stop cancels the supervised context; Run returns once every worker has
// observed the cancellation.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

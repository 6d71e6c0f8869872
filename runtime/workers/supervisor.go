package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultRestartInterval = 200 * time.Millisecond

var _ contract.ISupervisor = (*Supervisor)(nil)

// Supervisor keeps the relay's background loops alive: the reactor and the heartbeat.
// A loop that fails or panics is started again after restartInterval.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	if restartInterval <= 0 {
		restartInterval = defaultRestartInterval
	}
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run blocks until every worker is done, which happens when ctx ends or Stop is called.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start supervises one worker. A nil return is final.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	log := s.log.With("worker", contract.GetWorkerName(worker))

	go func() {
		defer s.wg.Done()
		for attempt := 1; ; attempt++ {
			err := s.runOnce(ctx, worker, log)
			switch {
			case ctx.Err() != nil:
				log.Info("Relay worker stopped")
				return
			case err == nil:
				log.Info("Relay worker done")
				return
			}

			log.Warn("Relay worker failed, restarting", "attempt", attempt, "in", s.restartInterval, "error", err)
			select {
			case <-ctx.Done():
				log.Info("Relay worker stopped")
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// runOnce turns a panic into ErrWorkerPanic.
func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Relay worker panicked", "panic", r)
			err = errors.ErrWorkerPanic
		}
	}()
	return worker.Run(ctx)
}

func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}

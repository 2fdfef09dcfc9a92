package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrPoolStopped = errors.New("worker pool is stopped")
	ErrQueueFull   = errors.New("worker pool queue is full")
)

type Task func()

// Pool - фиксированный набор воркеров над буферизованной очередью задач.
type Pool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	busy          atomic.Int32
	maxWorkers    int
	submitTimeout time.Duration
	logger        zerolog.Logger
	mu            sync.RWMutex
	started       bool
	stopped       bool
}

type Stats struct {
	BusyWorkers   int `json:"busy_workers"`
	MaxWorkers    int `json:"max_workers"`
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
}

func NewPool(maxWorkers int, logger zerolog.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		tasks:         make(chan Task, maxWorkers*10),
		maxWorkers:    maxWorkers,
		submitTimeout: time.Second,
		logger:        logger,
	}
}

func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrPoolStopped
	}
	if p.started {
		return nil
	}
	p.started = true

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}

	p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Worker pool started")
	return nil
}

// Stop дожидается выполнения уже принятых задач. Повторный вызов ничего не делает.
func (p *Pool) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.Info().Msg("Worker pool stopped")
	return nil
}

func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
	}

	p.logger.Warn().Msg("Worker pool task queue is full")
	select {
	case p.tasks <- task:
		return nil
	case <-time.After(p.submitTimeout):
		p.logger.Error().Msg("Failed to submit task to worker pool (timeout)")
		return ErrQueueFull
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.busy.Add(1)
		p.execute(id, task)
		p.busy.Add(-1)
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) execute(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
	}()

	task()
}

func (p *Pool) Stats() Stats {
	return Stats{
		BusyWorkers:   int(p.busy.Load()),
		MaxWorkers:    p.maxWorkers,
		QueueLength:   len(p.tasks),
		QueueCapacity: cap(p.tasks),
	}
}

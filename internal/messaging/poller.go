// Package messaging держит таймер опроса сообщений для выбранного диалога.
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/Aidensmirk/online-learning-platform/internal/models"
	"github.com/rs/zerolog"
)

const DefaultInterval = 15 * time.Second

type FetchFunc func(ctx context.Context, conversationID int64) ([]models.Message, error)

type EmitFunc func(conversationID int64, messages []models.Message)

type Option func(*Poller)

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// Poller опрашивает один диалог за раз. Смена выбора останавливает прежний таймер
// до запуска нового, так что живых таймеров не больше одного.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	emit     EmitFunc
	logger   zerolog.Logger

	mu      sync.Mutex
	current int64
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func NewPoller(interval time.Duration, fetch FetchFunc, emit EmitFunc, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	p := &Poller{
		interval: interval,
		fetch:    fetch,
		emit:     emit,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Select переключает опрос на диалог; 0 снимает выбор.
func (p *Poller) Select(conversationID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	p.halt()
	p.current = conversationID
	if conversationID == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.loop(ctx, conversationID, done)
}

func (p *Poller) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Stop останавливает опрос; повторные вызовы безопасны.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.halt()
	p.current = 0
}

// halt вызывается под p.mu и дожидается завершения текущего цикла.
func (p *Poller) halt() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
}

func (p *Poller) loop(ctx context.Context, conversationID int64, done chan struct{}) {
	defer close(done)

	p.poll(ctx, conversationID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, conversationID)
		}
	}
}

func (p *Poller) poll(ctx context.Context, conversationID int64) {
	messages, err := p.fetch(ctx, conversationID)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.logger.Warn().Err(err).Int64("conversation_id", conversationID).Msg("Message poll failed")
		return
	}
	p.emit(conversationID, messages)
}

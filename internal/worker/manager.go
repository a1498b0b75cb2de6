package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gaman_backend/internal/config"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler processes one event. Errors are logged by the manager; the
// message is acknowledged either way.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.Event) error
}

// pendingReader is implemented by consumers that can replay messages
// delivered to this consumer but never acknowledged.
type pendingReader interface {
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error)
}

// Manager runs worker goroutines over the social stream.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	log         zerolog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg config.WorkerConfig, log zerolog.Logger) *Manager {
	if cfg.Count <= 0 {
		cfg.Count = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      queue.StreamSocial,
		group:       queue.ConsumerGroupSocial,
		workerCount: cfg.Count,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		log:         logger.Component(log, "worker_manager"),
	}
}

// Start creates the consumer group if needed and spins up the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, consumerName(i))
	}

	m.log.Info().
		Int("workers", m.workerCount).
		Str("stream", m.stream).
		Str("group", m.group).
		Msg("workers started")
	return nil
}

// Stop cancels the workers and waits for in-flight batches to finish.
func (m *Manager) Stop() {
	m.log.Info().Msg("stopping workers")
	m.cancel()
	m.wg.Wait()
	m.log.Info().Msg("all workers stopped")
}

func (m *Manager) runWorker(workerID int, consumer string) {
	defer m.wg.Done()
	log := m.log.With().Int("worker", workerID).Str("consumer", consumer).Logger()

	m.processPending(log, consumer)

	for {
		select {
		case <-m.ctx.Done():
			log.Debug().Msg("worker shutting down")
			return
		default:
			m.processMessages(log, consumer)
		}
	}
}

// processPending replays what this consumer received before a crash.
func (m *Manager) processPending(log zerolog.Logger, consumer string) {
	pr, ok := m.consumer.(pendingReader)
	if !ok {
		return
	}

	for {
		messages, err := pr.ReadPending(m.ctx, m.stream, m.group, consumer, m.batchSize)
		if err != nil {
			log.Error().Err(err).Msg("read pending messages")
			return
		}
		if len(messages) == 0 {
			return
		}
		log.Info().Int("count", len(messages)).Msg("replaying pending messages")
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log zerolog.Logger, consumer string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumer, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("read messages")
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if len(messages) > 0 {
		m.handleMessages(log, messages)
	}
}

// handleMessages acknowledges every message, including failed and malformed
// ones, so a poison event cannot block the stream.
func (m *Manager) handleMessages(log zerolog.Logger, messages []queue.Message) {
	for _, msg := range messages {
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Str("msg_id", msg.ID).Msg("dropping malformed message")
		} else if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.Error().Err(err).Str("msg_id", msg.ID).Str("type", msg.Event.Type).Msg("handle event")
		}
		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			log.Error().Err(err).Str("msg_id", msg.ID).Msg("ack message")
		}
	}
}

func consumerName(workerID int) string {
	return "worker-" + strconv.Itoa(workerID)
}

package relay

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultWindowPatterns are the slot-mod-10 remainders that trigger a
// processing window.
var DefaultWindowPatterns = map[uint64]bool{0: true, 5: true}

// MinBatchSize is the smallest buffered backlog that triggers a
// window to drain. At 1, a window drains as soon as any job is
// buffered.
const MinBatchSize = 1

// MaxBatchSize caps how many jobs a single window drains from the
// buffer.
const MaxBatchSize = 50

// MaxConcurrentProcessors bounds how many jobs a window processes at
// once.
const MaxConcurrentProcessors = 10

// Scheduler polls the host for the current slot and, on a configured
// window, drains buffered Queued jobs for concurrent processing. It
// also runs the background collector that keeps the buffer filled
// from the store, deduplicating by job id.
type Scheduler struct {
	store     *Store
	process   func(ctx context.Context, job *Job)
	slotFn    func(ctx context.Context) (uint64, error)
	patterns  map[uint64]bool
	log       *zap.Logger

	buffer    []*Job
	bufferIDs map[string]bool
	lastWindowSlot uint64
}

func NewScheduler(store *Store, slotFn func(ctx context.Context) (uint64, error), process func(ctx context.Context, job *Job), log *zap.Logger) *Scheduler {
	return &Scheduler{
		store:     store,
		process:   process,
		slotFn:    slotFn,
		patterns:  DefaultWindowPatterns,
		log:       log,
		bufferIDs: make(map[string]bool),
	}
}

// Run starts both the collector and the window poller; it blocks
// until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	collectTicker := time.NewTicker(1 * time.Second)
	windowTicker := time.NewTicker(DefaultBlockTime)
	defer collectTicker.Stop()
	defer windowTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-collectTicker.C:
			s.collect(ctx)
		case <-windowTicker.C:
			s.maybeProcessWindow(ctx)
		}
	}
}

// collect refills the buffer from Queued jobs not already buffered.
func (s *Scheduler) collect(ctx context.Context) {
	jobs, err := s.store.ListByStatus(ctx, StatusQueued, MaxBatchSize)
	if err != nil {
		s.log.Warn("collector list failed", zap.Error(err))
		return
	}
	for _, j := range jobs {
		if s.bufferIDs[j.ID] {
			continue
		}
		s.buffer = append(s.buffer, j)
		s.bufferIDs[j.ID] = true
	}
}

func (s *Scheduler) maybeProcessWindow(ctx context.Context) {
	slot, err := s.slotFn(ctx)
	if err != nil {
		s.log.Warn("failed to fetch current slot", zap.Error(err))
		return
	}
	if !s.patterns[slot%10] {
		return
	}
	if slot == s.lastWindowSlot {
		return
	}
	if len(s.buffer) < MinBatchSize {
		return
	}

	n := len(s.buffer)
	if n > MaxBatchSize {
		n = MaxBatchSize
	}
	batch := s.buffer[:n]
	s.buffer = s.buffer[n:]
	for _, j := range batch {
		delete(s.bufferIDs, j.ID)
	}
	s.lastWindowSlot = slot

	sem := make(chan struct{}, MaxConcurrentProcessors)
	for _, job := range batch {
		sem <- struct{}{}
		go func(j *Job) {
			defer func() { <-sem }()
			s.process(ctx, j)
		}(job)
	}
}

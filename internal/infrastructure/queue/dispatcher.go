package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrQueueFull is returned when the worker owning a notice has no free slot.
var ErrQueueFull = errors.New("reset notice queue full")

// Sender delivers a single reset notice.
type Sender interface {
	Send(ctx context.Context, notice domain.ResetNotice) error
}

// Dispatcher routes reset notices to a fixed set of workers using consistent
// hashing on the recipient email, so notices for one account keep their order.
type Dispatcher struct {
	workers []chan domain.ResetNotice
	sender  Sender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.ResetNotifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.ResetNotice, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ResetNotice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify hands the notice to the worker responsible for its email. It never
// blocks; a saturated shard yields ErrQueueFull.
func (d *Dispatcher) Notify(ctx context.Context, notice domain.ResetNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.workers[d.shardIndex(notice.Email)] <- notice:
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ResetNotice) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(context.WithoutCancel(ctx), id, ch)
			return
		case notice, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, id, notice)
		}
	}
}

// drain delivers whatever is still buffered once the worker is told to stop.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.ResetNotice) {
	drained := 0
	for {
		select {
		case notice, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, id, notice)
			drained++
		default:
			if drained > 0 {
				d.log.Info().Int("worker_id", id).Int("notices", drained).Msg("drained reset notices on shutdown")
			}
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, notice domain.ResetNotice) {
	if err := d.sender.Send(ctx, notice); err != nil {
		d.log.Error().Err(err).
			Str("account_id", notice.AccountID).
			Int("worker_id", id).
			Msg("reset notice delivery failed")
	}
}

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/austindbirch/bugsignal/internal/logging"
	"github.com/austindbirch/bugsignal/internal/metrics"
)

// DispatcherOptions bound the dispatcher's admission loop.
type DispatcherOptions struct {
	TickInterval   time.Duration // how often queued work is admitted
	MaxConcurrency int           // ceiling on simultaneous deliveries
}

// DefaultDispatcherOptions mirrors the documented defaults.
func DefaultDispatcherOptions() DispatcherOptions {
	return DispatcherOptions{
		TickInterval:   2 * time.Second,
		MaxConcurrency: 20,
	}
}

type queueItem struct {
	deliveryID string
	cfg        DestinationConfig
	payload    DeliveryPayload
}

// Dispatcher owns the backlog and the concurrency budget. Enqueue never
// blocks and never performs I/O; a periodic tick admits queued deliveries
// into the retry engine while capacity remains, FIFO, never exceeding
// MaxConcurrency in flight.
type Dispatcher struct {
	store  *Store
	engine *Engine
	clock  Clock
	opts   DispatcherOptions
	logger *logging.Logger

	mu       sync.Mutex
	backlog  []queueItem
	inFlight int

	stop chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewDispatcher builds a dispatcher around an injected store and engine.
func NewDispatcher(store *Store, engine *Engine, clock Clock, opts DispatcherOptions) *Dispatcher {
	if clock == nil {
		clock = RealClock()
	}
	def := DefaultDispatcherOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = def.MaxConcurrency
	}
	return &Dispatcher{
		store:  store,
		engine: engine,
		clock:  clock,
		opts:   opts,
		logger: logging.New("bugsignal-dispatcher"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// validate rejects deliveries that can never succeed before they enter the
// queue: malformed destination config or an unmarshalable payload.
func (d *Dispatcher) validate(cfg DestinationConfig, p DeliveryPayload) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if p.EventType == "" {
		return fmt.Errorf("payload event type is required")
	}
	if _, err := json.Marshal(p); err != nil {
		return fmt.Errorf("payload not serializable: %w", err)
	}
	return nil
}

// Enqueue registers a delivery and appends it to the backlog. It returns the
// delivery id for later log lookup and only fails on configuration errors.
func (d *Dispatcher) Enqueue(cfg DestinationConfig, p DeliveryPayload) (string, error) {
	if err := d.validate(cfg, p); err != nil {
		return "", err
	}

	deliveryID := uuid.NewString()
	d.store.Create(deliveryID, cfg.ID, p)

	d.mu.Lock()
	d.backlog = append(d.backlog, queueItem{deliveryID: deliveryID, cfg: cfg, payload: p})
	depth := len(d.backlog)
	d.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	d.logger.Plain().WithDelivery(deliveryID).WithDestination(cfg.ID).WithEventType(p.EventType).Info("delivery queued")
	return deliveryID, nil
}

// Deliver runs a delivery synchronously, bypassing the queue, and returns
// its terminal result. Only configuration errors are returned as errors;
// delivery failure is reported inside the result.
func (d *Dispatcher) Deliver(ctx context.Context, cfg DestinationConfig, p DeliveryPayload) (DeliveryResult, error) {
	if err := d.validate(cfg, p); err != nil {
		return DeliveryResult{}, err
	}
	deliveryID := uuid.NewString()
	d.store.Create(deliveryID, cfg.ID, p)
	return d.engine.Run(ctx, cfg, p, deliveryID), nil
}

// Start launches the admission loop.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-d.stop:
				return
			case <-d.clock.After(d.opts.TickInterval):
				d.admit()
			}
		}
	}()
}

// Stop halts admission and waits for in-flight deliveries to reach a
// terminal state. Queued items stay in the backlog.
func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
	d.wg.Wait()
}

// admit pops backlog entries while the concurrency budget allows and starts
// each as an independent delivery.
func (d *Dispatcher) admit() {
	d.mu.Lock()
	var started []queueItem
	for d.inFlight < d.opts.MaxConcurrency && len(d.backlog) > 0 {
		item := d.backlog[0]
		d.backlog = d.backlog[1:]
		d.inFlight++
		started = append(started, item)
	}
	depth := len(d.backlog)
	inFlight := d.inFlight
	d.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	metrics.InFlight.Set(float64(inFlight))

	for _, item := range started {
		d.wg.Add(1)
		go func(it queueItem) {
			defer d.wg.Done()
			defer func() {
				d.mu.Lock()
				d.inFlight--
				metrics.InFlight.Set(float64(d.inFlight))
				d.mu.Unlock()
			}()
			d.engine.Run(context.Background(), it.cfg, it.payload, it.deliveryID)
		}(item)
	}
}

// QueueDepth returns the current backlog size.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.backlog)
}

// InFlight returns the number of deliveries currently running.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// Store exposes the injected log store for the query surface.
func (d *Dispatcher) Store() *Store {
	return d.store
}

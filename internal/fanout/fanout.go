package fanout

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/crewcall-dev/crewcall/internal/logger"
)

// Event is one state change fanned out to connected clients. Delivery is
// at-least-once: consumers dedupe on ID, and an event may be re-delivered
// when a redis forwarder reconnects.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	JobID      uint           `json:"job_id"`
	Recipients []uint         `json:"recipients,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Origin     string         `json:"origin,omitempty"`
}

// Dispatcher drains published events on a background goroutine and hands
// them to registered local handlers (the websocket hub). When REDIS_ADDR is
// set it also mirrors events to a redis channel so hubs on peer instances
// broadcast them too. Dispatch is fully off the critical path: a slow or
// failing consumer never fails the mutation that produced the event.
type Dispatcher struct {
	log      *logger.Logger
	instance string

	mu       sync.RWMutex
	handlers []func(Event)

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rdb     *goredis.Client
	channel string
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		log:      log.With("component", "fanout"),
		instance: uuid.NewString(),
		events:   make(chan Event, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handle registers a local consumer. Must be called before Start.
func (d *Dispatcher) Handle(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = append(d.handlers, fn)
}

// Start begins the dispatch loop and, when configured, the redis mirror.
func (d *Dispatcher) Start() error {
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		channel := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))

		if channel == "" {
			channel = "crewcall:events"
		}

		rdb := goredis.NewClient(&goredis.Options{
			Addr:        addr,
			DialTimeout: 5 * time.Second,
		})

		pingCtx, pingCancel := context.WithTimeout(d.ctx, 5*time.Second)
		defer pingCancel()

		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return err
		}

		d.rdb = rdb
		d.channel = channel

		if err := d.startForwarder(); err != nil {
			_ = rdb.Close()
			return err
		}

		d.log.Info("redis fanout enabled", "channel", channel)
	}

	d.wg.Add(1)
	go d.run()

	return nil
}

// Stop drains nothing further: queued events that were not yet dispatched
// are dropped, which at-least-once consumers already tolerate.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()

	if d.rdb != nil {
		_ = d.rdb.Close()
	}
}

// Publish enqueues an event without blocking the caller. A full queue drops
// the event with a warning; the notification row is already committed, so
// clients recover it on their next poll.
func (d *Dispatcher) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Origin = d.instance

	select {
	case d.events <- event:
	default:
		d.log.Warn("fanout queue full, dropping event", "type", event.Type, "job_id", event.JobID)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case event := <-d.events:
			d.deliver(event)

			if d.rdb != nil {
				raw, err := json.Marshal(event)

				if err != nil {
					d.log.Error("failed to marshal fanout event", "error", err)
					continue
				}

				if err := d.rdb.Publish(d.ctx, d.channel, raw).Err(); err != nil {
					d.log.Warn("redis publish failed", "error", err, "type", event.Type)
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}

func (d *Dispatcher) startForwarder() error {
	sub := d.rdb.Subscribe(d.ctx, d.channel)

	// Ensures the subscription is actually established before Start returns.
	if _, err := sub.Receive(d.ctx); err != nil {
		_ = sub.Close()
		return err
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		ch := sub.Channel()

		for {
			select {
			case <-d.ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}

				var event Event

				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					d.log.Warn("bad redis fanout payload", "error", err)
					continue
				}

				// Locally published events were already delivered.
				if event.Origin == d.instance {
					continue
				}

				d.deliver(event)
			}
		}
	}()

	return nil
}

// Package notify delivers outbound notifications recorded in the outbox.
// Dispatch is asynchronous and at-least-once: delivery failures reschedule
// the event with exponential backoff and never affect the operation that
// produced it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hirewire/hirewire/internal/storage"
)

var tracer = otel.Tracer("hirewire/notify")

// maxBackoffShift bounds the exponential backoff at baseBackoff << 16.
const maxBackoffShift = 16

// Notification is one decoded outbox event ready for delivery.
type Notification struct {
	EventID   string
	EventType string
	Payload   map[string]string
}

// Sender delivers a notification to its recipient channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the process log. It stands in for an
// email or push provider in development and tests.
type LogSender struct{}

// Send logs the notification.
func (LogSender) Send(_ context.Context, n Notification) error {
	log.Printf("notify: %s event=%s payload=%v", n.EventType, n.EventID, n.Payload)
	return nil
}

// Dispatcher sweeps the outbox on a cron schedule and hands due events to
// the sender.
type Dispatcher struct {
	store       storage.OutboxStore
	sender      Sender
	cron        *cron.Cron
	spec        string
	batchSize   int
	maxAttempts int
	baseBackoff time.Duration
	clock       func() time.Time
}

// DispatcherOptions tune sweep cadence and retry behavior. Zero values fall
// back to defaults.
type DispatcherOptions struct {
	// Spec is a cron spec, e.g. "@every 30s".
	Spec        string
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
}

// NewDispatcher builds a dispatcher with production defaults.
func NewDispatcher(store storage.OutboxStore, sender Sender, opts DispatcherOptions) *Dispatcher {
	if opts.Spec == "" {
		opts.Spec = "@every 30s"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 8
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = time.Minute
	}
	return &Dispatcher{
		store:       store,
		sender:      sender,
		cron:        cron.New(),
		spec:        opts.Spec,
		batchSize:   opts.BatchSize,
		maxAttempts: opts.MaxAttempts,
		baseBackoff: opts.BaseBackoff,
		clock:       time.Now,
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so restarts drain the backlog without waiting for a tick.
func (d *Dispatcher) Start(ctx context.Context) error {
	_, err := d.cron.AddFunc(d.spec, func() {
		if err := d.Sweep(ctx); err != nil {
			log.Printf("notify: sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule outbox sweep: %w", err)
	}

	d.cron.Start()
	go func() {
		if err := d.Sweep(ctx); err != nil {
			log.Printf("notify: initial sweep failed: %v", err)
		}
	}()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (d *Dispatcher) Stop() {
	stopCtx := d.cron.Stop()
	<-stopCtx.Done()
}

// Sweep delivers every due event once. Failures reschedule individual
// events; the sweep itself only errors when the outbox cannot be read.
func (d *Dispatcher) Sweep(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "outbox.sweep")
	defer span.End()

	now := d.clock().UTC()
	due, err := d.store.ListDueOutboxEvents(ctx, now, d.batchSize)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list due outbox events: %w", err)
	}
	span.SetAttributes(attribute.Int("outbox.due", len(due)))

	for _, event := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.dispatch(ctx, event)
	}
	return nil
}

func (d *Dispatcher) dispatch(ctx context.Context, event storage.OutboxEvent) {
	ctx, span := tracer.Start(ctx, "outbox.dispatch", trace.WithAttributes(
		attribute.String("outbox.event_id", event.ID),
		attribute.String("outbox.event_type", event.EventType),
	))
	defer span.End()

	payload := map[string]string{}
	if err := json.Unmarshal([]byte(event.PayloadJSON), &payload); err != nil {
		// A payload that cannot decode will never deliver; park it.
		d.retry(ctx, event, fmt.Sprintf("decode payload: %v", err), true)
		return
	}

	err := d.sender.Send(ctx, Notification{
		EventID:   event.ID,
		EventType: event.EventType,
		Payload:   payload,
	})
	if err != nil {
		d.retry(ctx, event, err.Error(), false)
		return
	}

	if err := d.store.MarkOutboxDispatched(ctx, event.ID, d.clock().UTC()); err != nil {
		log.Printf("notify: mark dispatched %s: %v", event.ID, err)
	}
}

// retry reschedules the event with exponential backoff. When park is true or
// attempts are exhausted the event moves to the failed status.
func (d *Dispatcher) retry(ctx context.Context, event storage.OutboxEvent, reason string, park bool) {
	now := d.clock().UTC()
	// Cap the shift so high attempt counts cannot overflow the backoff.
	shift := event.AttemptCount
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	backoff := d.baseBackoff << uint(shift)
	maxAttempts := d.maxAttempts
	if park {
		maxAttempts = event.AttemptCount + 1
	}

	if err := d.store.MarkOutboxRetry(ctx, event.ID, now, now.Add(backoff), maxAttempts, reason); err != nil {
		log.Printf("notify: mark retry %s: %v", event.ID, err)
		return
	}
	log.Printf("notify: delivery of %s (%s) failed, attempt %d: %s", event.ID, event.EventType, event.AttemptCount+1, reason)
}

// Package notify delivers run output to an external sink in batched,
// paced, retried sends. Sends are strictly sequential so the sink shows
// messages in submission order.
package notify

import (
	"context"
	"log"
	"strings"
	"time"
)

// Sink is the external notification endpoint.
type Sink interface {
	Post(ctx context.Context, text string) error
	Name() string
}

// Options tune the dispatcher. Zero values fall back to safe defaults.
type Options struct {
	BatchSize   int           //max messages per sink call
	MaxRetries  int           //send attempts per batch
	Pacing      time.Duration //delay before every send
	BackoffBase time.Duration //first retry delay, doubled per attempt
}

func (o Options) withDefaults() Options {
	if o.BatchSize < 1 {
		o.BatchSize = 20
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	return o
}

// Dispatcher batches messages and sends them through the sink.
type Dispatcher struct {
	sink Sink
	opts Options
}

// NewDispatcher constructs a dispatcher. A nil sink makes Dispatch a logged
// no-op so an unconfigured endpoint never fails the run.
func NewDispatcher(sink Sink, opts Options) *Dispatcher {
	return &Dispatcher{sink: sink, opts: opts.withDefaults()}
}

// Dispatch groups messages into batches of at most BatchSize, joins each
// batch into one sink call, and sends the batches in order. Every send is
// preceded by the pacing delay. A batch whose retries are exhausted is
// logged and skipped; a flaky sink must not kill the run.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []string) (sent, failed int) {
	if len(messages) == 0 {
		return 0, 0
	}
	if d.sink == nil {
		log.Printf("ℹ️ No sink configured — skipping %d messages", len(messages))
		return 0, 0
	}

	batches := batch(messages, d.opts.BatchSize)
	log.Printf("📨 Dispatching %d messages in %d batches via %s", len(messages), len(batches), d.sink.Name())

	for i, b := range batches {
		if !sleepCtx(ctx, d.opts.Pacing) {
			log.Printf("⚠️ Dispatch cancelled — %d of %d batches sent", sent, len(batches))
			failed += len(batches) - i
			return sent, failed
		}
		if err := d.send(ctx, strings.Join(b, "\n")); err != nil {
			log.Printf("⚠️ Batch %d/%d dropped after %d attempts: %v", i+1, len(batches), d.opts.MaxRetries, err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

// send tries one batch up to MaxRetries times with exponential backoff.
func (d *Dispatcher) send(ctx context.Context, text string) error {
	var lastErr error
	backoff := d.opts.BackoffBase
	for attempt := 1; attempt <= d.opts.MaxRetries; attempt++ {
		lastErr = d.sink.Post(ctx, text)
		if lastErr == nil {
			return nil
		}
		if attempt == d.opts.MaxRetries {
			break
		}
		log.Printf("  ⚠️ Send attempt %d failed: %v — retrying in %s", attempt, lastErr, backoff)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}

// batch splits messages into chunks of at most size.
func batch(messages []string, size int) [][]string {
	var out [][]string
	for len(messages) > size {
		out = append(out, messages[:size])
		messages = messages[size:]
	}
	return append(out, messages)
}

// sleepCtx waits for d, returning false if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

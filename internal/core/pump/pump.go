// Package pump implements one polling worker: fetch a batch from the input
// queue, dispatch each message, retry or dead-letter on failure, delete on
// success.
package pump

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neilfitzgerald/JungleBus/internal/core/dispatch"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/metrics"
	"github.com/neilfitzgerald/JungleBus/internal/core/parser"
	"github.com/neilfitzgerald/JungleBus/internal/core/tracing"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
)

// State is one of a MessagePump's lifecycle states.
type State int32

const (
	Created State = iota
	Running
	Stopping
	Stopped
)

// receiveErrorBackoff is how long a pump waits after a transient receive
// error before polling again.
const receiveErrorBackoff = 2 * time.Second

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MessageLogger receives message-lifecycle log lines, one per delivery
// attempt, independent of the structured component logger.
type MessageLogger interface {
	MessageReceived(receiptHandle, messageType string, retryCount int)
	MessageDispatched(receiptHandle string, success bool, err error)
	MessageDeadLettered(receiptHandle string, err error)
}

// Config configures one MessagePump.
type Config struct {
	Queue         transport.QueueClient
	Parser        *parser.Parser
	Dispatcher    *dispatch.Dispatcher
	MaxRetries    int
	Logger        logging.Logger
	MessageLogger MessageLogger
	Metrics       *metrics.BusMetrics
}

// Pump is a single polling worker.
type Pump struct {
	cfg    Config
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a pump in the Created state.
func New(cfg Config) *Pump {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Pump{cfg: cfg, done: make(chan struct{})}
}

// State reports the pump's current lifecycle state.
func (p *Pump) State() State {
	return State(p.state.Load())
}

// Start transitions the pump to Running and begins its polling loop in a
// new goroutine. It returns immediately; callers signal it with Stop and
// await completion via Wait.
func (p *Pump) Start(ctx context.Context) {
	if !p.state.CompareAndSwap(int32(Created), int32(Running)) {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go func() {
		defer close(p.done)
		p.run(runCtx)
	}()
}

// Stop signals cancellation and returns promptly; callers must still wait
// for the worker's completion (e.g. via Wait) before calling Dispose.
func (p *Pump) Stop() {
	if p.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		p.cancel()
	}
}

// Wait blocks until the polling goroutine has returned.
func (p *Pump) Wait() {
	<-p.done
	p.state.Store(int32(Stopped))
}

// Dispose releases cloud client resources after the worker has stopped.
// The queue client itself is owned by the bus, so this is presently a
// no-op hook kept for symmetry with the lifecycle named in the design.
func (p *Pump) Dispose() {}

func (p *Pump) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := p.cfg.Queue.Receive(ctx)
		if err != nil {
			p.cfg.Logger.Error("receive failed, continuing after backoff", err, nil)
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}
		if len(raw) == 0 {
			continue
		}
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.ObserveReceived(p.cfg.Queue.Address(), len(raw))
		}

		for _, r := range raw {
			p.handle(ctx, r)
		}
	}
}

func (p *Pump) handle(ctx context.Context, raw transport.RawMessage) {
	tm := p.cfg.Parser.Parse(raw)

	if p.cfg.MessageLogger != nil {
		p.cfg.MessageLogger.MessageReceived(tm.ReceiptHandle, tm.MessageTypeName, tm.RetryCount)
	}

	if !tm.ParsingSucceeded {
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.ObserveParseFailure(p.cfg.Queue.Address())
			p.cfg.Metrics.ObserveDeadLetter(p.cfg.Queue.Address(), "parse_error")
		}
		p.cfg.Dispatcher.DispatchFault(ctx, tm, tm.ParseError)
		p.deleteAndLog(ctx, tm.ReceiptHandle, tm.ParseError)
		return
	}

	spanCtx, span := tracing.StartDispatchSpan(ctx, tm.MessageTypeName, tm.ReceiptHandle)
	result := p.cfg.Dispatcher.Dispatch(spanCtx, tm)
	span.End()

	if p.cfg.MessageLogger != nil {
		p.cfg.MessageLogger.MessageDispatched(tm.ReceiptHandle, result.Success, result.Error)
	}
	if p.cfg.Metrics != nil {
		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		p.cfg.Metrics.ObserveDispatch(tm.MessageTypeName, outcome)
	}

	switch {
	case result.Success:
		p.deleteAndLog(ctx, tm.ReceiptHandle, nil)
	case tm.RetryCount < p.cfg.MaxRetries:
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.ObserveRetry(p.cfg.Queue.Address())
		}
		// Leave undeleted: visibility timeout returns it for a retry.
	default:
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.ObserveDeadLetter(p.cfg.Queue.Address(), "retries_exhausted")
		}
		p.cfg.Dispatcher.DispatchFault(ctx, tm, result.Error)
		p.deleteAndLog(ctx, tm.ReceiptHandle, result.Error)
	}
}

func (p *Pump) deleteAndLog(ctx context.Context, receiptHandle string, causeLogged error) {
	if err := p.cfg.Queue.Delete(ctx, receiptHandle); err != nil {
		p.cfg.Logger.Error("failed to delete message", err, logging.Fields{"receipt_handle": receiptHandle})
	}
	if causeLogged != nil && p.cfg.MessageLogger != nil {
		p.cfg.MessageLogger.MessageDeadLettered(receiptHandle, causeLogged)
	}
}

// Group owns N independent pumps started and stopped together, matching
// the bus's "N = numberOfPollingInstances" scheduling model.
type Group struct {
	pumps []*Pump
}

// NewGroup builds n pumps from the same Config, each an independent
// polling worker with no cross-pump coordination.
func NewGroup(n int, cfg Config) *Group {
	pumps := make([]*Pump, n)
	for i := range pumps {
		pumps[i] = New(cfg)
	}
	return &Group{pumps: pumps}
}

// Start starts every pump in the group.
func (g *Group) Start(ctx context.Context) {
	for _, p := range g.pumps {
		p.Start(ctx)
	}
}

// Stop signals every pump to stop, then awaits them all before returning.
func (g *Group) Stop() {
	var wg sync.WaitGroup
	for _, p := range g.pumps {
		p.Stop()
	}
	for _, p := range g.pumps {
		wg.Add(1)
		go func(p *Pump) {
			defer wg.Done()
			p.Wait()
			p.Dispose()
		}(p)
	}
	wg.Wait()
}

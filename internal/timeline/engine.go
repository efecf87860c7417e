package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskdesk/internal/convo"
	"taskdesk/internal/gate"
	"taskdesk/internal/task"
)

// Dispatcher is the boundary to the decomposition service.
type Dispatcher interface {
	Submit(ctx context.Context, text string) (task.Outcome, error)
}

// Clock suspends the synchronous driver between steps.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

type Config struct {
	Pacing Pacing
	// ErrorText is appended when dispatch fails.
	ErrorText string
	Clock     Clock
}

type Engine struct {
	log        *convo.Log
	gate       *gate.Gate
	dispatcher Dispatcher
	pacing     Pacing
	errorText  string
	clock      Clock
}

func New(log *convo.Log, g *gate.Gate, d Dispatcher, cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	errorText := cfg.ErrorText
	if errorText == "" {
		errorText = ErrorText("the configured service URL")
	}
	return &Engine{
		log:        log,
		gate:       g,
		dispatcher: d,
		pacing:     cfg.Pacing.normalized(),
		errorText:  errorText,
		clock:      clock,
	}
}

func (e *Engine) Busy() bool {
	return e.gate.Busy()
}

func (e *Engine) Pacing() Pacing {
	return e.pacing
}

// Admit passes raw through the gate and, once admitted, echoes it into the
// log before any network activity. Rejected input appends nothing.
func (e *Engine) Admit(raw string) (*Submission, error) {
	handle, err := e.gate.TryAdmit(raw)
	if err != nil {
		slog.Debug("submission rejected", "reason", err)
		return nil, err
	}
	e.log.Append(convo.Message{Role: convo.RoleUser, Kind: convo.KindPlain, Text: raw})
	slog.Info("submission admitted", "chars", len(raw))
	return &Submission{engine: e, handle: handle, admitted: time.Now()}, nil
}

// Submit runs one submission to completion: admit, dispatch, then apply every
// step with its pacing delay. The gate is released on every path. A transport
// failure is returned after its error message has been appended.
func (e *Engine) Submit(ctx context.Context, raw string) error {
	sub, err := e.Admit(raw)
	if err != nil {
		return err
	}
	defer sub.Release()

	x := sub.Dispatch(ctx)
	for {
		delay, ok := x.NextDelay()
		if !ok {
			break
		}
		e.clock.Sleep(delay)
		x.Advance()
	}
	return x.Err()
}

// Submission is one admitted request that has not finished expanding.
type Submission struct {
	engine   *Engine
	handle   *gate.Handle
	admitted time.Time
}

func (s *Submission) Text() string {
	return s.handle.Text()
}

// Dispatch calls the service once and plans the resulting steps. It appends
// nothing itself.
func (s *Submission) Dispatch(ctx context.Context) *Expansion {
	outcome, err := s.engine.dispatcher.Submit(ctx, s.handle.Text())
	if err != nil {
		return s.Fail(err)
	}
	return &Expansion{sub: s, steps: Expand(&outcome, s.engine.pacing)}
}

// Fail plans the error expansion for a dispatch that could not complete.
func (s *Submission) Fail(err error) *Expansion {
	if err == nil {
		err = fmt.Errorf("dispatch failed")
	}
	slog.Warn("submission failed", "error", err)
	return &Expansion{sub: s, steps: Failure(s.engine.errorText), err: err}
}

// Release frees the gate. Safe to call more than once.
func (s *Submission) Release() {
	s.handle.Release()
}

// Expansion is the queue of planned appends for one submission. It is driven
// by a single coordinator and is not safe for concurrent use.
type Expansion struct {
	sub   *Submission
	steps []Step
	next  int
	err   error
}

// NextDelay reports how long to wait before the next Advance.
func (x *Expansion) NextDelay() (time.Duration, bool) {
	if x.next >= len(x.steps) {
		return 0, false
	}
	return x.steps[x.next].Delay, true
}

// Advance appends the next planned message. Applying the last step releases
// the gate.
func (x *Expansion) Advance() (convo.Message, bool) {
	if x.next >= len(x.steps) {
		x.sub.Release()
		return convo.Message{}, false
	}
	msg := x.sub.engine.log.Append(x.steps[x.next].Message)
	x.next++
	if x.next == len(x.steps) {
		x.sub.Release()
		slog.Info("expansion settled",
			"steps", len(x.steps),
			"failed", x.err != nil,
			"elapsed", time.Since(x.sub.admitted),
		)
	}
	return msg, true
}

func (x *Expansion) Done() bool {
	return x.next >= len(x.steps)
}

// Remaining is the number of steps not yet applied.
func (x *Expansion) Remaining() int {
	return len(x.steps) - x.next
}

// Err is the dispatch failure, if any.
func (x *Expansion) Err() error {
	return x.err
}

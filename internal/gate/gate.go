// Package gate admits at most one submission at a time.
package gate

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrEmpty = errors.New("gate: empty submission")
	ErrBusy  = errors.New("gate: submission already in flight")
)

// IsRejected reports whether err is a silent rejection rather than a failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrEmpty) || errors.Is(err, ErrBusy)
}

type Gate struct {
	mu   sync.Mutex
	busy bool
}

func New() *Gate {
	return &Gate{}
}

// TryAdmit marks the gate busy and returns a handle whose Release must be
// called on every exit path.
func (g *Gate) TryAdmit(raw string) (*Handle, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmpty
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return nil, ErrBusy
	}
	g.busy = true
	return &Handle{gate: g, text: raw}, nil
}

func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Handle is one admitted submission.
type Handle struct {
	gate *Gate
	text string
	once sync.Once
}

// Text is the raw input that was admitted, untrimmed.
func (h *Handle) Text() string {
	return h.text
}

// Release frees the gate. Only the first call has an effect.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.gate.mu.Lock()
		h.gate.busy = false
		h.gate.mu.Unlock()
	})
}

// Package convo is the append-only conversation log the terminal renders.
package convo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is an ordered, append-only list of messages. Insertion order is the
// only ordering; entries are never edited or removed.
type Log struct {
	// writeMu serializes appends together with their observer calls so
	// observers see messages in log order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	messages  []Message
	observers []func(Message)
	now       func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append stamps the message with an ID and creation time and stores it.
// Observers run after the message is visible to readers, in registration
// order. An observer must not call Append.
func (l *Log) Append(msg Message) Message {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	msg.ID = newID()
	msg.CreatedAt = l.clock()
	l.messages = append(l.messages, msg)
	observers := append([]func(Message){}, l.observers...)
	l.mu.Unlock()

	for _, fn := range observers {
		fn(msg)
	}
	return msg
}

// Snapshot returns a copy of every message in append order.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Observe registers fn to be called with every message appended from now on.
func (l *Log) Observe(fn func(Message)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.observers = append(l.observers, fn)
	l.mu.Unlock()
}

func (l *Log) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

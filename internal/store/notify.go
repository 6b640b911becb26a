package store

import (
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Notification struct {
	Level Level
	Title string
	Body  string
	At    time.Time
}

// Notifier receives user-facing messages from the stores.
type Notifier interface {
	Notify(Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const DefaultLogLimit = 40

// Log is a bounded Notifier that keeps the newest entries and hands pending
// ones to the UI through Drain.
type Log struct {
	mu      sync.Mutex
	limit   int
	now     func() time.Time
	history []Notification
	pending []Notification
}

func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	return &Log{limit: limit, now: time.Now}
}

func (l *Log) Notify(n Notification) {
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Body) == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n.At.IsZero() {
		n.At = l.now().UTC()
	}
	l.history = appendBounded(l.history, n, l.limit)
	l.pending = appendBounded(l.pending, n, l.limit)
}

// Drain returns the notifications received since the previous Drain.
func (l *Log) Drain() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// History returns up to limit most recent notifications, oldest first.
func (l *Log) History() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.history...)
}

func (l *Log) Last() (Notification, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.history) == 0 {
		return Notification{}, false
	}
	return l.history[len(l.history)-1], true
}

func appendBounded(list []Notification, n Notification, limit int) []Notification {
	list = append(list, n)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

package console

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tair/inventory-console/pkg/logger"
)

// Severity classifies a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultNotificationTTL is how long a feed entry stays visible
const DefaultNotificationTTL = 3 * time.Second

// Notifier receives outcome messages. Notify must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) {
	f(message, severity)
}

// Notifiers fans a notification out to every non-nil notifier
func Notifiers(ns ...Notifier) Notifier {
	var out multiNotifier
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(message string, severity Severity) {
	for _, n := range m {
		n.Notify(message, severity)
	}
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct{}

func (LogNotifier) Notify(message string, severity Severity) {
	level := zerolog.InfoLevel
	if severity == SeverityError {
		level = zerolog.WarnLevel
	}
	logger.Logger.WithLevel(level).
		Str("severity", string(severity)).
		Msg(message)
}

// Notification is one entry of the feed
type Notification struct {
	ID        uint64    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Feed keeps recent notifications until they expire
type Feed struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	nextID uint64
	items  []Notification
}

// NewFeed creates a feed whose entries expire after ttl
func NewFeed(ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Feed{ttl: ttl, now: time.Now}
}

func (f *Feed) Notify(message string, severity Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.prune(now)
	f.nextID++
	f.items = append(f.items, Notification{
		ID:        f.nextID,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
		ExpiresAt: now.Add(f.ttl),
	})
}

// Active returns the notifications that have not expired, oldest first
func (f *Feed) Active() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prune(f.now())
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

// Dismiss drops a notification before it expires
func (f *Feed) Dismiss(id uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Feed) prune(now time.Time) {
	kept := f.items[:0]
	for _, n := range f.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	f.items = kept
}

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gardensync/internal/app/ports"
)

const defaultKeep = 50

type Entry struct {
	ports.Notice
	At time.Time `json:"at"`
}

// Log writes user-facing notices to the logger and keeps the most recent ones
// for the editor to poll.
type Log struct {
	Logger logrus.FieldLogger
	Keep   int
	Now    func() time.Time

	mu     sync.Mutex
	recent []Entry
}

var _ ports.Notifier = (*Log)(nil)

func (l *Log) Notify(_ context.Context, n ports.Notice) {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("notice", n.Kind)
	switch n.Kind {
	case ports.NoticeInventoryFull, ports.NoticeBlocked, ports.NoticeFallback:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	keep := l.Keep
	if keep <= 0 {
		keep = defaultKeep
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recent = append(l.recent, Entry{Notice: n, At: now()})
	if over := len(l.recent) - keep; over > 0 {
		l.recent = append([]Entry(nil), l.recent[over:]...)
	}
}

// Recent returns kept notices, newest last.
func (l *Log) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.recent...)
}

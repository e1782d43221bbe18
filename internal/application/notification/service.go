package notification

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/metrics"
	"github.com/google/uuid"
)

// StorageKey is the durable-store key holding the queue projection.
const StorageKey = "rider.app"

type kvStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
}

// persisted is the whitelisted projection, restored verbatim at startup.
type persisted struct {
	Notifications []domain.Notice `json:"notifications"`
	UnreadCount   int             `json:"unreadCount"`
}

// Queue is the in-memory notice list, newest first. unread is kept in step
// with the Read flags by every mutation.
type Queue struct {
	mu      sync.RWMutex
	items   []domain.Notice
	unread  int
	store   kvStore
	log     *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

func NewQueue(store kvStore, log *slog.Logger, rec metrics.Recorder) *Queue {
	if log == nil {
		log = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	q := &Queue{store: store, log: log, metrics: rec, now: time.Now}
	q.rehydrate()
	return q
}

func (q *Queue) rehydrate() {
	raw, ok, err := q.store.GetItem(StorageKey)
	if err != nil {
		q.log.Warn("could not read notification state", "err", err)
		return
	}
	if !ok {
		return
	}
	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		q.log.Warn("discarding unreadable notification state", "err", err)
		return
	}
	q.items = p.Notifications
	q.unread = p.UnreadCount
	q.metrics.SetUnread(q.unread)
}

// Add prepends n with a fresh id and timestamp, unread, and returns the id.
func (q *Queue) Add(n domain.Notice) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	n.ID = uuid.NewString()
	n.Timestamp = q.now().UTC()
	n.Read = false
	q.items = append([]domain.Notice{n}, q.items...)
	q.unread++
	q.changed()
	return n.ID
}

// Notify adds a notice built from its parts. It lets the queue act as the
// user-facing notification channel for other containers.
func (q *Queue) Notify(kind, title, message string) string {
	return q.Add(domain.Notice{Type: kind, Title: title, Message: message})
}

func (q *Queue) MarkRead(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID != id {
			continue
		}
		if q.items[i].Read {
			return
		}
		q.items[i].Read = true
		if q.unread > 0 {
			q.unread--
		}
		q.changed()
		return
	}
}

func (q *Queue) MarkAllRead() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		q.items[i].Read = true
	}
	q.unread = 0
	q.changed()
}

// Remove deletes the entry regardless of read state; removing an unread
// entry also lowers the unread count.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ID != id {
			continue
		}
		if !q.items[i].Read && q.unread > 0 {
			q.unread--
		}
		q.items = append(q.items[:i:i], q.items[i+1:]...)
		q.changed()
		return
	}
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.unread = 0
	q.changed()
}

// List returns a copy of the notices, newest first.
func (q *Queue) List() []domain.Notice {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]domain.Notice, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) UnreadCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.unread
}

// changed persists the projection; caller holds mu. A failed write is logged
// and the in-memory change stands.
func (q *Queue) changed() {
	q.metrics.SetUnread(q.unread)
	items := q.items
	if items == nil {
		items = []domain.Notice{}
	}
	b, err := json.Marshal(persisted{Notifications: items, UnreadCount: q.unread})
	if err != nil {
		q.log.Warn("could not encode notification state", "err", err)
		return
	}
	if err := q.store.SetItem(StorageKey, string(b)); err != nil {
		q.log.Warn("could not persist notification state", "err", err)
	}
}

package dashboard

import (
	"sync"
	"time"
)

// Level is a notification severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Phase is where a notification is in its display lifecycle.
type Phase int

const (
	PhaseAdded Phase = iota // appended, not yet visible
	PhaseShown              // visible after the show delay
	PhaseHiding             // fading out before removal
)

// Notification is one transient message.
type Notification struct {
	ID      uint64
	Level   Level
	Message string
	Phase   Phase
}

// Notifier manages transient notifications. Each notification runs an
// independent timer chain: shown after the show delay, hidden after the
// display duration, removed a fade later. There is no dedup and no cap on
// how many stack up.
type Notifier struct {
	showDelay  time.Duration
	displayFor time.Duration
	fade       time.Duration

	mu    sync.Mutex
	seq   uint64
	items map[uint64]*Notification
	order []uint64
}

func NewNotifier() *Notifier {
	return newNotifier(100*time.Millisecond, 5000*time.Millisecond, 300*time.Millisecond)
}

func newNotifier(showDelay, displayFor, fade time.Duration) *Notifier {
	return &Notifier{
		showDelay:  showDelay,
		displayFor: displayFor,
		fade:       fade,
		items:      make(map[uint64]*Notification),
	}
}

func (n *Notifier) Info(msg string)    { n.push(LevelInfo, msg) }
func (n *Notifier) Success(msg string) { n.push(LevelSuccess, msg) }
func (n *Notifier) Warning(msg string) { n.push(LevelWarning, msg) }
func (n *Notifier) Error(msg string)   { n.push(LevelError, msg) }

func (n *Notifier) push(level Level, msg string) {
	n.mu.Lock()
	n.seq++
	id := n.seq
	n.items[id] = &Notification{ID: id, Level: level, Message: msg, Phase: PhaseAdded}
	n.order = append(n.order, id)
	n.mu.Unlock()

	time.AfterFunc(n.showDelay, func() {
		n.setPhase(id, PhaseShown)
		time.AfterFunc(n.displayFor, func() {
			n.setPhase(id, PhaseHiding)
			time.AfterFunc(n.fade, func() {
				n.remove(id)
			})
		})
	})
}

func (n *Notifier) setPhase(id uint64, p Phase) {
	n.mu.Lock()
	if item, ok := n.items[id]; ok {
		item.Phase = p
	}
	n.mu.Unlock()
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.items[id]; !ok {
		return
	}
	delete(n.items, id)
	for i, v := range n.order {
		if v == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// Active returns the live notifications in insertion order.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, 0, len(n.order))
	for _, id := range n.order {
		if item, ok := n.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out
}

// Len returns how many notifications are currently alive.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

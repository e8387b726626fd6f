package desktop

import (
	"sync"

	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// Listener is called after every applied action with the resulting state.
type Listener func(State, Action)

// Manager owns the server's desktop state and applies actions one at a time.
type Manager struct {
	mu        sync.RWMutex
	state     State      // Protected by mu
	listeners []Listener // Protected by mu
	log       *zap.Logger
	metrics   *monitoring.Metrics
}

// NewManager creates a manager holding the initial layout.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		state: Initial(),
		log:   log,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Subscribe registers fn to run after each action.
func (m *Manager) Subscribe(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Dispatch applies a and returns the new state. Listeners run after the lock
// is released, in subscription order.
func (m *Manager) Dispatch(a Action) State {
	snapshot, listeners := m.apply(a)

	m.metrics.RecordDesktopAction(a.Name())
	m.log.Debug("Desktop action applied",
		zap.String("action", a.Name()),
		zap.String("window", string(a.Target())),
		zap.String("active", string(snapshot.ActiveWindowID)),
		zap.Int("highest_z", snapshot.HighestZIndex))

	for _, fn := range listeners {
		fn(snapshot.Clone(), a)
	}
	return snapshot
}

func (m *Manager) apply(a Action) (State, []Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, a)
	return m.state.Clone(), append([]Listener(nil), m.listeners...)
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Taskbar returns the minimized windows in panel order.
func (m *Manager) Taskbar() []Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Taskbar()
}

// Reset restores the initial layout and notifies listeners like any other
// action.
func (m *Manager) Reset() State {
	m.log.Info("Desktop layout reset")
	return m.Dispatch(Reset{})
}

// Package refresh owns widget runtime state and the background loops that
// keep it current. Widget configuration is persisted elsewhere; everything
// here is in-memory and rebuilt on process start.
package refresh

import (
	"sync"
	"time"

	"finboard/internal/dto"
	"finboard/internal/models"
)

// clockNow is swapped in tests.
var clockNow = time.Now

// Event is one state transition, fanned out to subscribers.
type Event struct {
	WidgetID string                    `json:"widgetId"`
	State    models.WidgetRuntimeState `json:"state"`
}

// StateStore holds the runtime state of every registered widget and
// broadcasts transitions. All methods are safe for concurrent use.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]models.WidgetRuntimeState
	subs   map[chan Event]struct{}
}

func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]models.WidgetRuntimeState),
		subs:   make(map[chan Event]struct{}),
	}
}

// Get returns a snapshot of one widget's runtime state.
func (s *StateStore) Get(widgetID string) (models.WidgetRuntimeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[widgetID]
	return st, ok
}

// All snapshots every widget's runtime state.
func (s *StateStore) All() map[string]models.WidgetRuntimeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.WidgetRuntimeState, len(s.states))
	for id, st := range s.states {
		out[id] = st
	}
	return out
}

// Subscribe registers a listener for state transitions. Events are delivered
// best-effort: a subscriber that falls behind loses events rather than
// stalling the refresh loops. The returned cancel func must be called when
// done; it closes the channel.
func (s *StateStore) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// init creates an empty state for widgetID if none exists. Existing state is
// preserved so re-registering a widget does not blank its data.
func (s *StateStore) init(widgetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[widgetID]; !ok {
		s.states[widgetID] = models.WidgetRuntimeState{}
	}
}

func (s *StateStore) exists(widgetID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.states[widgetID]
	return ok
}

// setLoading marks an in-flight fetch. Data and error from previous ticks
// stay visible while loading.
func (s *StateStore) setLoading(widgetID string) {
	s.update(widgetID, func(st *models.WidgetRuntimeState) {
		st.IsLoading = true
	})
}

func (s *StateStore) applySuccess(widgetID string, res dto.FetchResult) {
	now := clockNow()
	s.update(widgetID, func(st *models.WidgetRuntimeState) {
		st.Data = res.Data
		st.Error = ""
		st.IsLoading = false
		st.LastUpdated = now
		st.LastSuccess = now
		st.ServedViaFallback = res.ServedViaFallback
	})
}

// applyFailure records the error but keeps the last good data and its
// LastSuccess timestamp, so the dashboard shows stale data over nothing.
func (s *StateStore) applyFailure(widgetID string, err error) {
	now := clockNow()
	s.update(widgetID, func(st *models.WidgetRuntimeState) {
		st.Error = err.Error()
		st.IsLoading = false
		st.LastUpdated = now
	})
}

// update mutates an existing state and broadcasts the result. Unknown ids
// are ignored: the widget was removed while a fetch was in flight.
func (s *StateStore) update(widgetID string, fn func(*models.WidgetRuntimeState)) {
	s.mu.Lock()
	st, ok := s.states[widgetID]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(&st)
	s.states[widgetID] = st

	ev := Event{WidgetID: widgetID, State: st}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *StateStore) remove(widgetID string) {
	s.mu.Lock()
	delete(s.states, widgetID)
	s.mu.Unlock()
}

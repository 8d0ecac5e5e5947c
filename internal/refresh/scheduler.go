package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"finboard/internal/dto"
	"finboard/internal/models"
)

const minInterval = 5 * time.Second

type fetcher interface {
	Fetch(ctx context.Context, provider dto.Provider, endpoint, symbol string) (dto.FetchResult, error)
	Cached(provider dto.Provider, endpoint, symbol string) (dto.FetchResult, bool)
}

// Scheduler runs one refresh loop per registered widget. Each loop fetches
// immediately on registration and then on its widget's interval. Loops stop
// via Cancel (widget deleted), Reschedule (interval change, loop keeps
// running) or Stop (shutdown).
type Scheduler struct {
	states *StateStore
	fetch  fetcher
	log    *slog.Logger

	mu      sync.Mutex
	loops   map[string]*loop
	baseCtx context.Context
	cancel  context.CancelFunc
}

type loop struct {
	cancel     context.CancelFunc
	intervalCh chan time.Duration
}

func NewScheduler(states *StateStore, fetch fetcher, log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		states:  states,
		fetch:   fetch,
		log:     log,
		loops:   make(map[string]*loop),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Register starts (or restarts) the refresh loop for w. Existing runtime
// state survives re-registration, so editing a widget never blanks its data.
func (s *Scheduler) Register(w models.Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx.Err() != nil {
		return
	}
	s.stopLoopLocked(w.WidgetID)
	s.states.init(w.WidgetID)

	ctx, cancel := context.WithCancel(s.baseCtx)
	l := &loop{cancel: cancel, intervalCh: make(chan time.Duration, 1)}
	s.loops[w.WidgetID] = l
	go s.run(ctx, w, l.intervalCh)
}

// Reschedule changes a running loop's interval in place. Unlike Register it
// does not trigger an immediate fetch. Returns false when no loop exists.
func (s *Scheduler) Reschedule(widgetID string, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loops[widgetID]
	if !ok {
		return false
	}
	// drain a pending update so the latest interval wins
	select {
	case <-l.intervalCh:
	default:
	}
	l.intervalCh <- interval
	return true
}

// Cancel stops a widget's loop and discards its runtime state.
func (s *Scheduler) Cancel(widgetID string) {
	s.mu.Lock()
	s.stopLoopLocked(widgetID)
	s.mu.Unlock()
	s.states.remove(widgetID)
}

// Stop shuts down every loop. State is left in place for inspection.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	s.loops = make(map[string]*loop)
	s.mu.Unlock()
}

func (s *Scheduler) stopLoopLocked(widgetID string) {
	if l, ok := s.loops[widgetID]; ok {
		l.cancel()
		delete(s.loops, widgetID)
	}
}

func (s *Scheduler) run(ctx context.Context, w models.Widget, intervalCh chan time.Duration) {
	interval := clampInterval(time.Duration(w.RefreshIntervalSeconds) * time.Second)

	s.tick(ctx, w)

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-intervalCh:
			interval = clampInterval(next)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(interval)
		case <-timer.C:
			s.tick(ctx, w)
			timer.Reset(interval)
		}
	}
}

// tick performs one refresh. A panic in a fetch path is contained to the
// tick so one bad payload cannot kill the loop.
func (s *Scheduler) tick(ctx context.Context, w models.Widget) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("refresh tick panicked",
				"widgetId", w.WidgetID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			// the panic terminates the attempt like any other failure, so
			// the widget never rests in a loading state
			if s.deliverable(ctx, w.WidgetID) {
				s.states.applyFailure(w.WidgetID, fmt.Errorf("refresh panicked: %v", r))
			}
		}
	}()

	// a live cache entry updates state without a loading flap
	if res, ok := s.fetch.Cached(w.Provider, w.Endpoint, w.Symbol); ok {
		if s.deliverable(ctx, w.WidgetID) {
			s.states.applySuccess(w.WidgetID, res)
		}
		return
	}

	s.states.setLoading(w.WidgetID)
	res, err := s.fetch.Fetch(ctx, w.Provider, w.Endpoint, w.Symbol)

	// the loop may have been cancelled or the widget removed mid-fetch
	if !s.deliverable(ctx, w.WidgetID) {
		return
	}
	if err != nil {
		s.log.Warn("widget refresh failed",
			"widgetId", w.WidgetID,
			"provider", string(w.Provider),
			"endpoint", w.Endpoint,
			"error", err.Error(),
		)
		s.states.applyFailure(w.WidgetID, err)
		return
	}
	s.states.applySuccess(w.WidgetID, res)
}

func (s *Scheduler) deliverable(ctx context.Context, widgetID string) bool {
	return ctx.Err() == nil && s.states.exists(widgetID)
}

func clampInterval(d time.Duration) time.Duration {
	if d < minInterval {
		return minInterval
	}
	return d
}

// Package live keeps the ticket observation views in sync with the store.
//
// The hub runs one store subscription per view and fans every full snapshot out to
// the connected streams. A slow stream only ever sees the newest snapshot.
package live

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/observability"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
)

// View names an observation view.
type View string

const (
	// ViewAdmin lists every ticket newest first.
	ViewAdmin View = "admin"
	// ViewSupport lists tickets in store order with a display ordinal.
	ViewSupport View = "support"
)

// Views lists every view the hub serves.
var Views = []View{ViewAdmin, ViewSupport}

// Order returns the listing order the view subscribes with.
func (v View) Order() repository.TicketOrder {
	if v == ViewAdmin {
		return repository.OrderCreatedDesc
	}
	return repository.OrderNatural
}

// Snapshot is the complete ticket list of a view at one point in time.
type Snapshot struct {
	View      View
	Revision  uint64
	Tickets   []domain.Ticket
	UpdatedAt time.Time
}

type viewState struct {
	latest *Snapshot
	subs   map[uint64]chan Snapshot
}

// Hub owns the view watchers and their subscribers.
type Hub struct {
	watcher    repository.TicketWatcher
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu     sync.Mutex
	views  map[View]*viewState
	nextID uint64
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub. Call Run to start the watchers.
func NewHub(watcher repository.TicketWatcher, retryDelay time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	views := make(map[View]*viewState, len(Views))
	for _, v := range Views {
		views[v] = &viewState{subs: map[uint64]chan Snapshot{}}
	}
	return &Hub{
		watcher:    watcher,
		retryDelay: retryDelay,
		logger:     logger,
		metrics:    metrics,
		views:      views,
	}
}

// Run starts one watcher goroutine per view. It returns immediately.
func (h *Hub) Run(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	for _, v := range Views {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.watch(ctx, v)
		}()
	}
}

// Close stops the watchers, waits for them and ends every subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for view, state := range h.views {
		for id, ch := range state.subs {
			close(ch)
			delete(state.subs, id)
			h.metrics.LiveSubscriberRemoved(string(view))
		}
	}
}

func (h *Hub) watch(ctx context.Context, view View) {
	for {
		err := h.watcher.Watch(ctx, view.Order(), func(tickets []domain.Ticket) {
			h.publish(view, tickets)
		})
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("ticket watcher stopped, restarting",
			zap.String("view", string(view)),
			zap.Duration("retry_in", h.retryDelay),
			zap.Error(err))
		h.metrics.RecordWatcherRestart(string(view))

		timer := time.NewTimer(h.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// publish replaces the view's snapshot and hands it to every subscriber,
// overwriting any snapshot the subscriber has not read yet.
func (h *Hub) publish(view View, tickets []domain.Ticket) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.views[view]
	if state == nil || h.closed {
		return
	}

	rev := uint64(1)
	if state.latest != nil {
		rev = state.latest.Revision + 1
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	snap := Snapshot{View: view, Revision: rev, Tickets: tickets, UpdatedAt: time.Now()}
	state.latest = &snap
	h.metrics.RecordSnapshot(string(view))

	for _, ch := range state.subs {
		offer(ch, snap)
	}
}

// offer drains a stale snapshot then sends. Only the hub sends, under h.mu, so the send never blocks.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

// Subscribe registers a stream on view. The latest snapshot, if any, is delivered first.
// The returned cancel func must be called once the stream ends.
func (h *Hub) Subscribe(view View) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	state := h.views[view]
	if state == nil || h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	state.subs[id] = ch
	if state.latest != nil {
		ch <- *state.latest
	}
	h.mu.Unlock()
	h.metrics.LiveSubscriberAdded(string(view))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := state.subs[id]; !ok {
				return
			}
			delete(state.subs, id)
			close(ch)
			h.metrics.LiveSubscriberRemoved(string(view))
		})
	}
}

// Latest returns the most recent snapshot of view.
func (h *Hub) Latest(view View) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state := h.views[view]
	if state == nil || state.latest == nil {
		return Snapshot{}, false
	}
	return *state.latest, true
}

// Subscribers returns the number of open streams on view.
func (h *Hub) Subscribers(view View) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if state := h.views[view]; state != nil {
		return len(state.subs)
	}
	return 0
}

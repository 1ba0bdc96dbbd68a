//go:build integration

package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/config"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/events"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/live"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/persistence"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/service"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/worker"
)

type liveStores struct {
	pool    *pgxpool.Pool
	redis   *redis.Client
	tickets repository.TicketRepository
	feed    *repository.RedisChangeFeed
}

func openLiveStores(t *testing.T) *liveStores {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	addr := os.Getenv("TEST_REDIS_ADDR")
	if dsn == "" || addr == "" {
		t.Skip("TEST_POSTGRES_DSN and TEST_REDIS_ADDR must both be set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	_, err = pool.Exec(ctx, `TRUNCATE tickets, ticket_history, users CASCADE`)
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	tickets := repository.NewTicketRepository(pool)
	channel := "tickets:changes:" + uuid.NewString()
	return &liveStores{
		pool:    pool,
		redis:   client,
		tickets: tickets,
		feed:    repository.NewRedisChangeFeed(client, tickets, channel),
	}
}

func (s *liveStores) insertTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	seq, err := s.tickets.NextSequence(ctx)
	require.NoError(t, err)
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		Number:         uuid.NewString()[:12],
		Sequence:       seq,
		RequesterName:  "María López",
		RequesterEmail: "maria@meduca.gob.pa",
		Department:     "Planificación",
		ProblemType:    "Internet",
		Description:    "Sin conexión",
		Status:         domain.TicketStatusPending,
		Attachments:    []domain.Attachment{},
	}
	require.NoError(t, s.tickets.Create(ctx, ticket))
	return ticket
}

func containsTicket(snap live.Snapshot, id string) bool {
	for _, ticket := range snap.Tickets {
		if ticket.ID == id {
			return true
		}
	}
	return false
}

func TestLiveViewsDropDeletedTicket(t *testing.T) {
	stores := openLiveStores(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := events.NewInMemoryDispatcher(nil)
	worker.StartChangeRelay(dispatcher, stores.feed, nil)
	svc := service.NewTicketService(config.TicketsConfig{
		MaxAttachments: domain.MaxAttachments,
		NumberPrefix:   "T",
		ProblemTypes:   []string{"Internet"},
		Departments:    []string{"Planificación"},
	}, service.TicketDependencies{
		TicketRepo:  stores.tickets,
		HistoryRepo: repository.NewTicketHistoryRepository(stores.pool),
		Dispatcher:  dispatcher,
	})

	hub := live.NewHub(stores.feed, 100*time.Millisecond, nil, nil)
	hub.Run(ctx)
	defer hub.Close()

	for _, view := range live.Views {
		require.Eventually(t, func() bool {
			snap, ok := hub.Latest(view)
			return ok && len(snap.Tickets) == 0
		}, 5*time.Second, 20*time.Millisecond, "initial %s snapshot", view)
	}

	ticket, err := svc.SubmitTicket(ctx, nil, service.SubmitTicketInput{
		RequesterName:  "María López",
		RequesterEmail: "maria@meduca.gob.pa",
		Department:     "Planificación",
		ProblemType:    "Internet",
		Description:    "Sin conexión en la oficina 3",
	})
	require.NoError(t, err)
	for _, view := range live.Views {
		require.Eventually(t, func() bool {
			snap, ok := hub.Latest(view)
			return ok && containsTicket(snap, ticket.ID)
		}, 5*time.Second, 20*time.Millisecond, "%s view shows the new ticket", view)
	}

	admin := &domain.User{ID: uuid.NewString(), FirstName: "Ana", Role: domain.UserRoleAdministrative}
	require.NoError(t, svc.DeleteTicket(ctx, admin, ticket.ID, true))
	for _, view := range live.Views {
		require.Eventually(t, func() bool {
			snap, ok := hub.Latest(view)
			return ok && !containsTicket(snap, ticket.ID)
		}, 5*time.Second, 20*time.Millisecond, "%s view drops the deleted ticket", view)
	}
}

// emitRecorder collects Watch emissions. With a gate set, emission number hold blocks until the gate closes.
type emitRecorder struct {
	mu    sync.Mutex
	lists [][]domain.Ticket
	gate  chan struct{}
	hold  int
	seen  chan int
}

func newEmitRecorder() *emitRecorder {
	return &emitRecorder{seen: make(chan int, 64)}
}

func (r *emitRecorder) record(tickets []domain.Ticket) {
	r.mu.Lock()
	r.lists = append(r.lists, tickets)
	n := len(r.lists)
	gate := r.gate
	hold := r.hold
	r.mu.Unlock()
	r.seen <- n
	if gate != nil && n == hold {
		<-gate
	}
}

func (r *emitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

func (r *emitRecorder) last() []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[len(r.lists)-1]
}

func waitEmit(t *testing.T, r *emitRecorder, want int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-r.seen:
			if n >= want {
				return
			}
		case <-deadline:
			t.Fatalf("waited for emit %d, saw %d", want, r.count())
		}
	}
}

func startWatch(t *testing.T, feed *repository.RedisChangeFeed, r *emitRecorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = feed.Watch(ctx, repository.OrderNatural, r.record)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRedisChangeFeedCoalescesBurst(t *testing.T) {
	stores := openLiveStores(t)
	ctx := context.Background()

	rec := newEmitRecorder()
	rec.gate = make(chan struct{})
	rec.hold = 2
	startWatch(t, stores.feed, rec)
	waitEmit(t, rec, 1)
	assert.Empty(t, rec.last())

	first := stores.insertTicket(t)
	require.NoError(t, stores.feed.NotifyChanged(ctx, first.ID))
	waitEmit(t, rec, 2)

	// The second read is held open while a burst queues up behind it.
	var burst []string
	for i := 0; i < 5; i++ {
		ticket := stores.insertTicket(t)
		burst = append(burst, ticket.ID)
		require.NoError(t, stores.feed.NotifyChanged(ctx, ticket.ID))
	}
	time.Sleep(300 * time.Millisecond)
	close(rec.gate)

	waitEmit(t, rec, 3)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 3, rec.count(), "queued changes are folded into one re-read")
	assert.Len(t, rec.last(), 1+len(burst))
}

func TestRedisChangeFeedRereadsAfterReconnect(t *testing.T) {
	stores := openLiveStores(t)
	ctx := context.Background()

	rec := newEmitRecorder()
	startWatch(t, stores.feed, rec)
	waitEmit(t, rec, 1)

	// Written without a notification, as if it landed while the subscriber was away.
	missed := stores.insertTicket(t)
	require.NoError(t, stores.redis.ClientKillByFilter(ctx, "TYPE", "pubsub").Err())

	waitEmit(t, rec, 2)
	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, missed.ID, last[0].ID)
}

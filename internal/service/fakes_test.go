package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
)

type memTickets struct {
	mu        sync.Mutex
	seq       int64
	items     map[string]domain.Ticket
	seqErr    error
	createErr error
	deleted   []string
}

func newMemTickets() *memTickets {
	return &memTickets{items: map[string]domain.Ticket{}}
}

func (m *memTickets) NextSequence(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqErr != nil {
		return 0, m.seqErr
	}
	m.seq++
	return m.seq, nil
}

func (m *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.items[t.ID]; ok {
		return repository.ErrDuplicate
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	t.Version = 1
	m.items[t.ID] = *t
	return nil
}

func (m *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memTickets) List(_ context.Context, order repository.TicketOrder) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Ticket, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if order == repository.OrderCreatedDesc {
			return out[i].Sequence > out[j].Sequence
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (m *memTickets) UpdateFields(_ context.Context, id string, f repository.TicketFields) (*repository.TicketChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if f.ExpectedVersion != nil && *f.ExpectedVersion != before.Version {
		return nil, repository.ErrVersionConflict
	}
	after := before
	if f.Status != nil {
		after.Status = *f.Status
	}
	if f.AssignTechnician {
		after.AssignedTechnician = f.Technician
	}
	after.Version++
	after.UpdatedAt = time.Now()
	m.items[id] = after
	return &repository.TicketChange{Before: before, After: after}, nil
}

func (m *memTickets) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
	err     error
}

func (m *memHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	h.ID = uuid.NewString()
	m.entries = append(m.entries, *h)
	return nil
}

func (m *memHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TicketHistory{}
	for _, h := range m.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	failOn  string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string]string{}}
}

func (b *memBlobs) Upload(_ context.Context, path, _ string, body io.Reader) error {
	if b.failOn != "" && strings.HasSuffix(path, "/"+b.failOn) {
		return errors.New("quota exceeded")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[path] = string(data)
	return nil
}

func (b *memBlobs) URL(path string) string {
	return "https://blobs.test/" + path
}

func (b *memBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, path)
	b.deleted = append(b.deleted, path)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type memUsers struct {
	mu    sync.Mutex
	items map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[string]domain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.items[u.ID] = *u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memResets struct {
	tokens map[string]string
}

func (m *memResets) Create(_ context.Context, token, userID string, _ time.Duration) error {
	m.tokens[token] = userID
	return nil
}

func (m *memResets) Consume(_ context.Context, token string) (string, error) {
	id, ok := m.tokens[token]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(m.tokens, token)
	return id, nil
}

type memRevocations struct {
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, id string, exp time.Time) error {
	m.revoked[id] = exp
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

type memPreferences struct {
	items map[string]domain.Preferences
	err   error
}

func (m *memPreferences) Get(_ context.Context, id string) (*domain.Preferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memPreferences) Save(_ context.Context, id string, p domain.Preferences) error {
	m.items[id] = p
	return nil
}

func (m *memPreferences) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type recordingNotifier struct {
	tokens map[string]string
}

func (r *recordingNotifier) SendPasswordReset(_ context.Context, user *domain.User, token string) error {
	r.tokens[user.Email] = token
	return nil
}

func textFile(name, contentType, body string) FileUpload {
	return FileUpload{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

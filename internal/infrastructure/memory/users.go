package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.SecurityEventRepository = (*SecurityEventRepository)(nil)
)

// UserRepository operadores en memoria.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

// NewUserRepository construye el repositorio vacío.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.users {
		if strings.EqualFold(x.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		c := cloneUser(u)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// SecurityEventRepository log de seguridad en memoria (solo agrega).
type SecurityEventRepository struct {
	mu     sync.RWMutex
	events []entity.SecurityEvent
}

// NewSecurityEventRepository construye el log vacío.
func NewSecurityEventRepository() *SecurityEventRepository {
	return &SecurityEventRepository{}
}

func (r *SecurityEventRepository) Append(_ context.Context, e *entity.SecurityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.events) + 1)
	e.Timestamp = nowIfZero(e.Timestamp)
	r.events = append(r.events, cloneEvent(*e))
	return nil
}

// List del más reciente al más antiguo.
func (r *SecurityEventRepository) List(_ context.Context, limit int) ([]*entity.SecurityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.SecurityEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		c := cloneEvent(r.events[i])
		out = append(out, &c)
	}
	return out, nil
}

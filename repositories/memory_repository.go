package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"order-desk/models"
)

// MemoryStore keeps users and orders in process memory. It backs the
// "memory" driver used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]models.User
	orders map[string]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]models.User),
		orders: make(map[string]models.Order),
	}
}

type MemoryUserRepository struct{ s *MemoryStore }

type MemoryOrderRepository struct{ s *MemoryStore }

func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s: s} }

func (s *MemoryStore) Orders() *MemoryOrderRepository { return &MemoryOrderRepository{s: s} }

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) FindAll(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicateEmail
	}

	user.UpdatedAt = time.Now().UTC()
	r.s.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	order.ID = uuid.NewString()
	order.Version = 1
	order.CreatedAt, order.UpdatedAt = now, now
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *MemoryOrderRepository) sorted(keep func(models.Order) bool) []models.Order {
	orders := make([]models.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if keep(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (r *MemoryOrderRepository) FindAll(_ context.Context, page models.Page) ([]models.OrderWithOwner, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.sorted(func(models.Order) bool { return true })
	total := len(all)

	if page.Limit > 0 {
		start := page.Offset()
		if start > total {
			start = total
		}
		end := start + page.Limit
		if end > total {
			end = total
		}
		all = all[start:end]
	}

	result := make([]models.OrderWithOwner, 0, len(all))
	for _, o := range all {
		var owner *models.OrderOwner
		if u, ok := r.s.users[o.User]; ok {
			owner = &models.OrderOwner{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		result = append(result, models.NewOrderWithOwner(o, owner))
	}
	return result, total, nil
}

func (r *MemoryOrderRepository) FindByUser(_ context.Context, userID string) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sorted(func(o models.Order) bool { return o.User == userID }), nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != order.Version {
		return ErrVersionConflict
	}

	order.Version++
	order.UpdatedAt = time.Now().UTC()
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id string, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if expectedVersion != 0 && stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	delete(r.s.orders, id)
	return nil
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.LineItem(nil), o.Items...)
	return o
}

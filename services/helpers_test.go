package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"order-desk/models"
	"order-desk/repositories"
	"order-desk/utils"
)

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newFakeDenylist() *fakeDenylist {
	return &fakeDenylist{revoked: make(map[string]time.Duration)}
}

func (d *fakeDenylist) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.revoked[tokenID] = ttl
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type statusNotice struct {
	email  string
	status models.OrderStatus
}

type recordingNotifier struct {
	mu         sync.Mutex
	registered []string
	statuses   []statusNotice
}

func (n *recordingNotifier) UserRegistered(_ context.Context, user models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, user.Email)
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, owner models.User, order models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, statusNotice{email: owner.Email, status: order.Status})
}

type fixture struct {
	store    *repositories.MemoryStore
	tokens   *utils.TokenManager
	denylist *fakeDenylist
	notifier *recordingNotifier
	auth     *AuthService
	users    *UserService
	orders   *OrderService
}

func newFixture(t *testing.T, opts ...AuthOption) *fixture {
	t.Helper()
	f := &fixture{
		store:    repositories.NewMemoryStore(),
		tokens:   utils.NewTokenManager("test-secret", time.Hour),
		denylist: newFakeDenylist(),
		notifier: &recordingNotifier{},
	}
	opts = append([]AuthOption{WithDenylist(f.denylist), WithNotifier(f.notifier)}, opts...)
	f.auth = NewAuthService(f.store.Users(), f.tokens, opts...)
	f.users = NewUserService(f.store.Users())
	f.orders = NewOrderService(f.store.Orders(), f.store.Users(), f.notifier)
	return f
}

// register creates a user directly and returns its identity.
func (f *fixture) register(t *testing.T, name, email string, admin bool) models.Identity {
	t.Helper()
	hashed, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	user := &models.User{Name: name, Email: email, Password: hashed, IsAdmin: admin}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return models.Identity{UserID: user.ID, IsAdmin: admin}
}

func requireKind(t *testing.T, err error, kind error, message string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	var rule *RuleError
	if message != "" && errors.As(err, &rule) {
		require.Equal(t, message, rule.Message)
	}
}

func widget() []models.LineItem {
	return []models.LineItem{{Name: "Widget", Quantity: 2, Price: 5}}
}

func ptr[T any](v T) *T { return &v }

func statusJSON(s models.OrderStatus) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-rental-backend/internal/auth"
)

type memRepo struct {
	mu       sync.Mutex
	users    map[string]*User
	seq      int
	loginErr error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*User{}}
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailAlreadyUsed
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now().UTC()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loginErr != nil {
		return r.loginErr
	}
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *memRepo) List(_ context.Context, filter UserFilter) ([]*User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		if filter.Email != "" && !strings.Contains(u.Email, filter.Email) {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, len(out), nil
}

func (r *memRepo) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, auth.NewBcryptHasher(4), nil), repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Alice@Example.COM ", "password1", "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NotNil(t, u.DisplayName)
	assert.Equal(t, "Alice", *u.DisplayName)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsSystemAdmin)
	assert.NotEqual(t, "password1", u.PasswordHash)

	_, err = svc.Register(ctx, "alice@example.com", "password2", "Again")
	assert.ErrorIs(t, err, ErrEmailAlreadyUsed)

	_, err = svc.Register(ctx, "   ", "password1", "x")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "bob@example.com", "short", "Bob")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLogin(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "ALICE@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.NotNil(t, u.LastLoginAt)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed last-login write does not fail the login
	repo.loginErr = errors.New("db down")
	_, err = svc.Login(ctx, "alice@example.com", "password1")
	assert.NoError(t, err)
	repo.loginErr = nil

	require.NoError(t, svc.Delete(ctx, registered.ID))
	_, err = svc.Login(ctx, "alice@example.com", "password1")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice@example.com", "password1", "Alice")
	require.NoError(t, err)

	admin := true
	empty := "  "
	updated, err := svc.Update(ctx, u.ID, UpdateUserRequest{IsSystemAdmin: &admin, DisplayName: &empty})
	require.NoError(t, err)
	assert.True(t, updated.IsSystemAdmin)
	assert.Nil(t, updated.DisplayName)
	assert.True(t, updated.IsActive)

	got, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSystemAdmin)

	_, err = svc.Update(ctx, "missing", UpdateUserRequest{IsSystemAdmin: &admin})
	assert.ErrorIs(t, err, ErrNotFound)
}

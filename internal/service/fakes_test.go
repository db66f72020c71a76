package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sumanskitchen/kitchen-go/internal/crypto"
	"github.com/sumanskitchen/kitchen-go/internal/model"
	"github.com/sumanskitchen/kitchen-go/internal/oauth"
	"github.com/sumanskitchen/kitchen-go/internal/repository"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// memUsers is an in-memory account directory enforcing the same unique
// constraints as the users table.
type memUsers struct {
	mu    sync.Mutex
	users map[model.ID]model.User

	beforeCreate   func()
	setPasswordErr error
	getErr         error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[model.ID]model.User{}}
}

func (m *memUsers) insert(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = model.NewID()
	}
	m.users[u.ID] = u
	return u
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
		if user.GoogleID != nil && u.GoogleID != nil && *u.GoogleID == *user.GoogleID {
			return repository.ErrDuplicateExternalID
		}
	}
	user.ID = model.NewID()
	user.CreatedAt, user.UpdatedAt = t0, t0
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) find(match func(model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.Email == email })
}

func (m *memUsers) GetByGoogleID(_ context.Context, googleID string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return m.find(func(u model.User) bool { return u.ID.String() == id })
}

func (m *memUsers) SetGoogleID(_ context.Context, id model.ID, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.GoogleID != nil {
		return repository.ErrUserNotFound
	}
	for _, other := range m.users {
		if other.GoogleID != nil && *other.GoogleID == googleID {
			return repository.ErrDuplicateExternalID
		}
	}
	u.GoogleID = &googleID
	m.users[id] = u
	return nil
}

func (m *memUsers) SetPasswordHash(_ context.Context, id model.ID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setPasswordErr != nil {
		return m.setPasswordErr
	}
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = &hash
	m.users[id] = u
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// fakeIdentity maps credentials to identities; unknown credentials are rejected.
type fakeIdentity map[string]oauth.Identity

func (f fakeIdentity) Verify(_ context.Context, credential string) (oauth.Identity, error) {
	ident, ok := f[credential]
	if !ok {
		return oauth.Identity{}, oauth.ErrInvalidCredential
	}
	return ident, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type authFixture struct {
	svc    *AuthService
	users  *memUsers
	hasher *crypto.Hasher
	tokens *crypto.TokenService
	clock  *clock
}

func newAuthFixture(t *testing.T, identities fakeIdentity) *authFixture {
	t.Helper()
	hasher, err := crypto.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := crypto.NewTokenService([]byte("test-secret"), "HS256", time.Hour)
	require.NoError(t, err)

	users := newMemUsers()
	c := &clock{now: t0}
	return &authFixture{
		svc:    NewAuthService(users, hasher, tokens, identities, c.Now),
		users:  users,
		hasher: hasher,
		tokens: tokens,
		clock:  c,
	}
}

var errDatabaseDown = errors.New("database unavailable")

func newStrongerHasher(t *testing.T) *crypto.Hasher {
	t.Helper()
	h, err := crypto.NewHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)
	return h
}

type memRecipes struct {
	mu      sync.Mutex
	recipes map[model.ID]model.Recipe
	seq     time.Duration
}

func newMemRecipes() *memRecipes {
	return &memRecipes{recipes: map[model.ID]model.Recipe{}}
}

func (m *memRecipes) Create(_ context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe.ID = model.NewID()
	m.seq += time.Second
	recipe.CreatedAt, recipe.UpdatedAt = t0.Add(m.seq), t0.Add(m.seq)
	m.recipes[recipe.ID] = *recipe
	return nil
}

func (m *memRecipes) GetByID(_ context.Context, id string) (*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[model.ID(id)]
	if !ok {
		return nil, repository.ErrRecipeNotFound
	}
	return &r, nil
}

func (m *memRecipes) filter(keep func(model.Recipe) bool) []model.Recipe {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Recipe{}
	for _, r := range m.recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *memRecipes) ListPublic(_ context.Context) ([]model.Recipe, error) {
	return m.filter(func(r model.Recipe) bool { return r.IsPublic }), nil
}

func (m *memRecipes) ListByUser(_ context.Context, userID model.ID) ([]model.Recipe, error) {
	return m.filter(func(r model.Recipe) bool { return r.UserID == userID }), nil
}

func (m *memRecipes) Update(_ context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipe.ID]; !ok {
		return repository.ErrRecipeNotFound
	}
	m.recipes[recipe.ID] = *recipe
	return nil
}

func (m *memRecipes) UpdateImage(_ context.Context, id model.ID, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return repository.ErrRecipeNotFound
	}
	r.ImageURL = &imageURL
	m.recipes[id] = r
	return nil
}

func (m *memRecipes) Delete(_ context.Context, id model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return repository.ErrRecipeNotFound
	}
	delete(m.recipes, id)
	return nil
}

type fakeImages struct {
	configured bool
	uploads    int
	deleted    []string
	uploadErr  error
	deleteErr  error
}

func (f *fakeImages) Configured() bool { return f.configured }

func (f *fakeImages) Upload(_ context.Context, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return fmt.Sprintf("https://cdn.example.com/recipes/%d.jpg", f.uploads), nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.deleteErr
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/google/uuid"
)

// UsersRepo mirrors the postgres users repo semantics in memory, including
// the org scoping and listing order, so the access rules can be exercised
// without a database.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) ListInOrg(_ context.Context, orgID string) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0)

	for _, u := range r.items {
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}

	// role rank ascending, newest first within a role group
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role.SortKey() != out[j].Role.SortKey() {
			return out[i].Role.SortKey() < out[j].Role.SortKey()
		}

		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *UsersRepo) GetInOrg(_ context.Context, id, orgID string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok || u.OrganizationID != orgID {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, params postgres.CreateUserParams) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == params.Email {
			return user.User{}, postgres.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()

	id := params.ID

	if id == "" {
		id = uuid.NewString()
	}

	u := user.User{
		ID:              id,
		Email:           params.Email,
		HashedPassword:  params.HashedPassword,
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Role:            params.Role,
		OrganizationID:  params.OrganizationID,
		CreatedByUserID: params.CreatedByUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) UpdateProfile(_ context.Context, id string, firstName, lastName *string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	if firstName != nil {
		u.FirstName = firstName
	}

	if lastName != nil {
		u.LastName = lastName
	}

	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

// Seed inserts a fully-formed row, bypassing the create rules. Test helper.
func (r *UsersRepo) Seed(u user.User) {
	r.mu.Lock()
	r.items[u.ID] = u
	r.mu.Unlock()
}

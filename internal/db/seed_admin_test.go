package db

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/schoolhub/internal/config"
	"github.com/geocoder89/schoolhub/internal/domain/organization"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/repo/memory"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/geocoder89/schoolhub/internal/security"
)

type fakeOrgEnsurer struct {
	calls int
	org   organization.Organization
}

func (f *fakeOrgEnsurer) EnsureByName(_ context.Context, id, name string) (organization.Organization, error) {
	f.calls++

	// first call wins the upsert; later calls get the existing row back
	if f.org.ID == "" {
		now := time.Now().UTC()
		f.org = organization.Organization{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
	}

	return f.org, nil
}

func seedConfig() config.Config {
	return config.Config{
		OrgName:        "Berkeley Math Circle",
		AdminEmail:     "admin@example.com",
		AdminPassword:  "bootstrap-pass-1",
		AdminFirstName: "Site",
		AdminLastName:  "Admin",
	}
}

func TestEnsureBootstrap_CreatesOrgAndAdmin(t *testing.T) {
	orgs := &fakeOrgEnsurer{}
	users := memory.NewUsersRepo()
	cfg := seedConfig()

	if err := ensureBootstrap(context.Background(), orgs, users, cfg); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	if orgs.calls != 1 || orgs.org.Name != "Berkeley Math Circle" {
		t.Fatalf("organization not ensured: calls=%d org=%+v", orgs.calls, orgs.org)
	}

	admin, err := users.GetByEmail(context.Background(), cfg.AdminEmail)

	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}

	if admin.Role != user.RoleAdmin {
		t.Fatalf("seeded role = %q, want ADMIN", admin.Role)
	}

	if admin.OrganizationID != orgs.org.ID {
		t.Fatalf("admin org = %q, want the ensured org %q", admin.OrganizationID, orgs.org.ID)
	}

	if admin.CreatedByUserID != nil {
		t.Fatalf("bootstrap admin should have no creator, got %q", *admin.CreatedByUserID)
	}

	if admin.HashedPassword == cfg.AdminPassword {
		t.Fatal("admin password stored unhashed")
	}

	if err := security.CheckPassword(admin.HashedPassword, cfg.AdminPassword); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestEnsureBootstrap_Idempotent(t *testing.T) {
	orgs := &fakeOrgEnsurer{}
	users := memory.NewUsersRepo()
	cfg := seedConfig()

	for i := 0; i < 3; i++ {
		if err := ensureBootstrap(context.Background(), orgs, users, cfg); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
	}

	list, err := users.ListInOrg(context.Background(), orgs.org.ID)

	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(list) != 1 {
		t.Fatalf("want exactly one admin after repeated seeding, got %d", len(list))
	}
}

func TestEnsureBootstrap_SkippedWhenUnconfigured(t *testing.T) {
	orgs := &fakeOrgEnsurer{}
	users := memory.NewUsersRepo()

	cfg := seedConfig()
	cfg.AdminEmail = ""

	if err := ensureBootstrap(context.Background(), orgs, users, cfg); err != nil {
		t.Fatalf("unconfigured seed should be a no-op, got %v", err)
	}

	if orgs.calls != 0 {
		t.Fatalf("organization ensured despite missing admin config")
	}
}

// user store standing in for a concurrent seeder: the existence check misses
// but the insert hits the unique index.
type racingUserStore struct {
	created int
}

func (s *racingUserStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, postgres.ErrUserNotFound
}

func (s *racingUserStore) Create(context.Context, postgres.CreateUserParams) (user.User, error) {
	s.created++
	return user.User{}, postgres.ErrEmailAlreadyUsed
}

func TestEnsureBootstrap_LosingInsertRaceIsStillSuccess(t *testing.T) {
	orgs := &fakeOrgEnsurer{}
	users := &racingUserStore{}

	if err := ensureBootstrap(context.Background(), orgs, users, seedConfig()); err != nil {
		t.Fatalf("losing the insert race should not fail the seed, got %v", err)
	}

	if users.created != 1 {
		t.Fatalf("insert attempted %d times, want 1", users.created)
	}
}

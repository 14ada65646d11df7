package db

import (
	"context"
	"errors"

	"github.com/geocoder89/schoolhub/internal/config"
	"github.com/geocoder89/schoolhub/internal/domain/organization"
	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/repo/postgres"
	"github.com/geocoder89/schoolhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type organizationEnsurer interface {
	EnsureByName(ctx context.Context, id, name string) (organization.Organization, error)
}

type bootstrapUserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, params postgres.CreateUserParams) (user.User, error)
}

// EnsureBootstrap makes sure the seed organization and its admin exist.
// The admin is the only account ever minted with role ADMIN; the API's
// create-user path only admits TEACHER and STUDENT.
func EnsureBootstrap(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	orgs := postgres.NewOrganizationsRepo(pool, nil)
	users := postgres.NewUsersRepo(pool, nil)

	return ensureBootstrap(ctx, orgs, users, cfg)
}

func ensureBootstrap(ctx context.Context, orgs organizationEnsurer, users bootstrapUserStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// upsert keyed on the unique name, safe against a concurrent seeder
	org, err := orgs.EnsureByName(ctx, uuid.NewString(), cfg.OrgName)

	if err != nil {
		return err
	}

	_, err = users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, postgres.CreateUserParams{
		ID:             uuid.NewString(),
		Email:          cfg.AdminEmail,
		HashedPassword: hash,
		FirstName:      &cfg.AdminFirstName,
		LastName:       &cfg.AdminLastName,
		Role:           user.RoleAdmin,
		OrganizationID: org.ID,
		// CreatedByUserID stays nil: nobody created the bootstrap admin
	})

	// another seeder racing us to the insert is still a successful bootstrap
	if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
		return nil
	}

	return err
}

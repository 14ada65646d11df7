package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/schoolhub/internal/domain/organization"
	"github.com/geocoder89/schoolhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type OrganizationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrganizationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrganizationsRepo {
	return &OrganizationsRepo{pool: pool, prom: prom}
}

func (r *OrganizationsRepo) GetByID(ctx context.Context, id string) (organization.Organization, error) {
	var o organization.Organization

	err := r.prom.ObserveDB("organizations.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, created_at, updated_at
			 FROM organizations
			 WHERE id = $1`,
			id,
		).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, ErrOrganizationNotFound
		}

		return organization.Organization{}, err
	}

	return o, nil
}

// EnsureByName is the seed-time upsert: insert if missing, otherwise return
// the existing row. Name carries a unique constraint.
func (r *OrganizationsRepo) EnsureByName(ctx context.Context, id, name string) (organization.Organization, error) {
	var o organization.Organization

	err := r.prom.ObserveDB("organizations.ensure_by_name", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO organizations (id, name, created_at, updated_at)
			 VALUES ($1, $2, NOW(), NOW())
			 ON CONFLICT (name) DO UPDATE SET updated_at = organizations.updated_at
			 RETURNING id, name, created_at, updated_at`,
			id, name,
		).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	})

	if err != nil {
		return organization.Organization{}, err
	}

	return o, nil
}

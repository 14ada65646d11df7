package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/schoolhub/internal/domain/user"
	"github.com/geocoder89/schoolhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already used")
)

const userColumns = `id, email, hashed_password, first_name, last_name, role, organization_id, created_by_user_id, created_at, updated_at`

// roleRank pins the listing order to ADMIN, TEACHER, STUDENT. Plain
// ORDER BY on the text column would sort STUDENT before TEACHER.
const roleRank = `CASE role WHEN 'ADMIN' THEN 0 WHEN 'TEACHER' THEN 1 ELSE 2 END`

type CreateUserParams struct {
	ID              string
	Email           string
	HashedPassword  string
	FirstName       *string
	LastName        *string
	Role            user.Role
	OrganizationID  string
	CreatedByUserID *string
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE id = $1`,
			id,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// ListInOrg returns every user in the given organization. The organization
// filter lives in the WHERE clause so a cross-org row can never be fetched
// and then forgotten in a post-check.
func (r *UsersRepo) ListInOrg(ctx context.Context, orgID string) ([]user.User, error) {
	var out []user.User

	err := r.prom.ObserveDB("users.list_in_org", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE organization_id = $1
			 ORDER BY `+roleRank+` ASC, created_at DESC`,
			orgID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]user.User, 0)

		for rows.Next() {
			var u user.User

			err = rows.Scan(scanTargets(&u)...)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetInOrg fetches a user only when both the id and the organization match.
// A row living in another organization comes back as ErrUserNotFound, which
// keeps cross-org lookups indistinguishable from plain misses.
func (r *UsersRepo) GetInOrg(ctx context.Context, id, orgID string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_in_org", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE id = $1 AND organization_id = $2`,
			id, orgID,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, params CreateUserParams) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, email, hashed_password, first_name, last_name, role, organization_id, created_by_user_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8, NOW(), NOW())
			 RETURNING `+userColumns,
			params.ID,
			params.Email,
			params.HashedPassword,
			params.FirstName,
			params.LastName,
			params.Role.String(),
			params.OrganizationID,
			params.CreatedByUserID,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		// the unique index is the authority on email uniqueness; the
		// handler's existence pre-check only covers the common case
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

// UpdateProfile touches only the self-writable fields. Nil means "leave
// unchanged"; callers guarantee at least one field is set.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, firstName, lastName *string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.update_profile", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE users
				SET first_name = COALESCE($2, first_name),
						last_name = COALESCE($3, last_name),
						updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id,
			firstName,
			lastName,
		).Scan(scanTargets(&u)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func scanTargets(u *user.User) []any {
	return []any{
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.OrganizationID,
		&u.CreatedByUserID,
		&u.CreatedAt,
		&u.UpdatedAt,
	}
}

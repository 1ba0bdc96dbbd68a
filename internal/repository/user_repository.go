package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id::text, first_name, last_name, national_id, extension, department, role,
               email, alternate_email, password_hash, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, national_id, extension, department, role, email, alternate_email, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id::text, created_at, updated_at`

	return mapPgError(r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.NationalID,
		user.Extension,
		user.Department,
		string(user.Role),
		user.Email,
		user.AlternateEmail,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt))
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, national_id=$3, extension=$4, department=$5,
            role=$6, email=$7, alternate_email=$8, password_hash=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	if _, err := uuid.Parse(user.ID); err != nil {
		return ErrNotFound
	}
	return mapPgError(r.pool.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.NationalID,
		user.Extension,
		user.Department,
		string(user.Role),
		user.Email,
		user.AlternateEmail,
		user.PasswordHash,
		user.ID,
	).Scan(&user.UpdatedAt))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, domain.NormalizeEmail(email)))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.NationalID,
		&user.Extension,
		&user.Department,
		&role,
		&user.Email,
		&user.AlternateEmail,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	user.Role, _ = domain.ParseUserRole(role)
	if user.Role == "" {
		user.Role = domain.UserRoleAdministrative
	}
	return &user, nil
}

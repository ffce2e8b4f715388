package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.PasswordHash, u.Image)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, image, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Image,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadPlaceIDs(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u := &entity.User{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, image, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Image,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadPlaceIDs(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users without password hashes, each with its place ids.
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, image, created_at, updated_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	byID := map[string]*entity.User{}
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.pool.Query(ctx, `
		SELECT user_id, place_id FROM user_places ORDER BY added_at
	`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var uid, pid string
		if err := prows.Scan(&uid, &pid); err != nil {
			return nil, err
		}
		if u, ok := byID[uid]; ok {
			u.PlaceIDs = append(u.PlaceIDs, pid)
		}
	}
	return users, prows.Err()
}

func (r *UserRepository) loadPlaceIDs(ctx context.Context, u *entity.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT place_id FROM user_places WHERE user_id = $1 ORDER BY added_at
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return err
		}
		u.PlaceIDs = append(u.PlaceIDs, pid)
	}
	return rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
	"github.com/roamerhq/roamer-api/internal/domain/repository"
)

// PlaceRepository keeps places and the owning user's place set consistent:
// every create appends to user_places and every delete removes from it,
// inside one transaction. The owner row is locked FOR UPDATE so concurrent
// mutations of the same user's set serialize instead of interleaving.
type PlaceRepository struct {
	pool *pgxpool.Pool
}

func NewPlaceRepository(pool *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{pool: pool}
}

func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*entity.Place, error) {
	p := &entity.Place{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, description, address, lat, lng, image, creator_id, created_at, updated_at
		FROM places
		WHERE id = $1
	`, id)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Lat, &p.Lng,
		&p.Image, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlaceRepository) ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, description, address, lat, lng, image, creator_id, created_at, updated_at
		FROM places
		WHERE creator_id = $1
		ORDER BY created_at
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	places := []*entity.Place{}
	for rows.Next() {
		p := &entity.Place{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Address, &p.Lat, &p.Lng,
			&p.Image, &p.CreatorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func (r *PlaceRepository) Create(ctx context.Context, p *entity.Place) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockOwner(ctx, tx, p.CreatorID); err != nil {
		return err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO places (title, description, address, lat, lng, image, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Description, p.Address, p.Lat, p.Lng, p.Image, p.CreatorID)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_places (user_id, place_id) VALUES ($1, $2)
	`, p.CreatorID, p.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PlaceRepository) Update(ctx context.Context, p *entity.Place) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE places
		SET title = $1, description = $2, updated_at = now()
		WHERE id = $3
	`, p.Title, p.Description, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) Delete(ctx context.Context, p *entity.Place) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockOwner(ctx, tx, p.CreatorID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM user_places WHERE user_id = $1 AND place_id = $2
	`, p.CreatorID, p.ID); err != nil {
		return err
	}

	res, err := tx.Exec(ctx, `DELETE FROM places WHERE id = $1`, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return tx.Commit(ctx)
}

func lockOwner(ctx context.Context, tx pgx.Tx, userID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

var _ repository.PlaceRepository = (*PlaceRepository)(nil)

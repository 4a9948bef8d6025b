package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mholloway/pennygate/internal/database"
	"github.com/mholloway/pennygate/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

func (r *UserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	query := `
		SELECT uid, name, pin_hash, created_at, updated_at
		FROM users WHERE uid = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, uid).Scan(
		&user.UID, &user.Name, &user.PinHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// List returns all accounts. The credential is a PIN hashed with a
// per-user salt, so login compares the presented PIN against each
// account's hash rather than looking the hash up directly. The tracker's
// user base is a household, not a tenant directory.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT uid, name, pin_hash, created_at, updated_at
		FROM users ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.UID, &user.Name, &user.PinHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := `
		SELECT uid, name, pin_hash, created_at, updated_at
		FROM users WHERE name = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&user.UID, &user.Name, &user.PinHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.UID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (uid, name, pin_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, user.UID, user.Name, user.PinHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return user, nil
}

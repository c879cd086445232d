package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/JavaNood/record-log/internal/database"
	"github.com/JavaNood/record-log/internal/models"
)

// adminRepo is the concrete implementation of AdminRepository
type adminRepo struct {
	db *database.DB
}

// NewAdminRepo creates a new admin repository
func NewAdminRepo(db *database.DB) AdminRepository {
	return &adminRepo{db: db}
}

// GetByUsername retrieves an admin account by username
func (r *adminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := "SELECT id, username, password_hash, email, created_at FROM admins WHERE username = $1"

	var admin models.Admin
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&admin.ID, &admin.Username, &admin.PasswordHash, &email, &admin.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	admin.Email = email.String
	return &admin, nil
}

// GetConfig retrieves a site configuration value
func (r *adminRepo) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM site_config WHERE key_name = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value.String, true, nil
}

// SetConfig upserts a site configuration value
func (r *adminRepo) SetConfig(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO site_config (key_name, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key_name) DO UPDATE SET value = $2, updated_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

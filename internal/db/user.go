package db

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/playcast/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles database operations for users
type UserRepository struct {
	conn *gorm.DB
}

// Create inserts a new user into the database
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	result := r.conn.WithContext(ctx).Create(user)
	if result.Error != nil {
		return fmt.Errorf("failed to create user: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	result := r.conn.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.conn.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &user, nil
}

// Exists reports whether a user with id exists
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check user existence: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// Delete deletes a user; devices, playlists and everything below them cascade
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result := r.conn.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

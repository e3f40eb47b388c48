// internal/auth/repository.go
package auth

import (
	"context"
	"errors"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"

	"gorm.io/gorm"
)

type Repository interface {
	CreateHost(ctx context.Context, host *hosts.Host) error
	GetHostByEmail(ctx context.Context, email string) (*hosts.Host, error)
	GetHostByID(ctx context.Context, id string) (*hosts.Host, error)
	UpdateHostPassword(ctx context.Context, hostID string, hashedPassword string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateHost(ctx context.Context, host *hosts.Host) error {
	if err := r.db.WithContext(ctx).Create(host).Error; err != nil {
		return err
	}
	return nil
}

func (r *repository) GetHostByEmail(ctx context.Context, email string) (*hosts.Host, error) {
	var host hosts.Host
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&host).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHostNotFound
		}
		return nil, err
	}
	return &host, nil
}

func (r *repository) GetHostByID(ctx context.Context, id string) (*hosts.Host, error) {
	var host hosts.Host
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&host).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHostNotFound
		}
		return nil, err
	}
	return &host, nil
}

func (r *repository) UpdateHostPassword(ctx context.Context, hostID string, hashedPassword string) error {
	result := r.db.WithContext(ctx).Model(&hosts.Host{}).
		Where("id = ?", hostID).
		Update("password", hashedPassword)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrHostNotFound
	}

	return nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&hosts.Host{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

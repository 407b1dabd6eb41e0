package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnxcius/accounts-back/internal/database/model"
	"gorm.io/gorm"
)

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// FindByField returns the first user whose column equals value. A NULL
// column never equals a value, so a cleared refresh token cannot match.
func (s *GormUserStore) FindByField(ctx context.Context, field string, value any) (*model.User, error) {
	if !lookupFields[field] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var user model.User
	err := s.db.WithContext(ctx).Where(field+" = ?", value).First(&user).Error
	if err != nil {
		return nil, notFound(err, "find user by "+field)
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "find user by id")
	}
	return &user, nil
}

func (s *GormUserStore) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormUserStore) Insert(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *GormUserStore) Update(ctx context.Context, id uint, fields map[string]any) (int64, error) {
	if err := checkUpdateFields(fields); err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("update user: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormUserStore) Delete(ctx context.Context, id uint) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete user: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

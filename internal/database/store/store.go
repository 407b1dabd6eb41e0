// Package store persists user records, including the single active refresh
// token of each user.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnxcius/accounts-back/internal/database/model"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrUnknownField = errors.New("unknown user field")
)

// Column names accepted by FindByField and Update.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldGender       = "gender"
	FieldPassword     = "password"
	FieldRefreshToken = "refresh_token"
)

var lookupFields = map[string]bool{
	FieldName:         true,
	FieldEmail:        true,
	FieldRefreshToken: true,
}

var updatableFields = map[string]bool{
	FieldName:         true,
	FieldEmail:        true,
	FieldGender:       true,
	FieldPassword:     true,
	FieldRefreshToken: true,
}

type UserStore interface {
	FindByField(ctx context.Context, field string, value any) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Insert(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id uint, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

func checkUpdateFields(fields map[string]any) error {
	for k := range fields {
		if !updatableFields[k] {
			return fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}
	return nil
}

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vnxcius/accounts-back/internal/apperr"
	"github.com/vnxcius/accounts-back/internal/database/model"
	"github.com/vnxcius/accounts-back/internal/database/store"
	"github.com/vnxcius/accounts-back/internal/util"
)

const MsgUserNotFound = "User not found"

// CreateInput field order decides which missing field is reported first.
type CreateInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Gender   string `json:"gender" validate:"required"`
}

// UpdateInput is a partial update; nil or empty fields are left untouched.
type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Gender   *string `json:"gender"`
	Password *string `json:"password"`
}

type Service struct {
	users     store.UserStore
	passwords util.PasswordHasher
	validate  *validator.Validate
}

func NewService(users store.UserStore, passwords util.PasswordHasher) *Service {
	return &Service{
		users:     users,
		passwords: passwords,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) List(ctx context.Context) ([]model.SafeUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return model.SanitizeAll(users), nil
}

func (s *Service) Get(ctx context.Context, id uint) (model.SafeUser, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return model.SafeUser{}, err
	}
	return u.Sanitize(), nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.SafeUser, error) {
	if err := s.validate.Struct(in); err != nil {
		return model.SafeUser{}, validationError(err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return model.SafeUser{}, apperr.Wrap(apperr.KindValidation, err, "Password cannot be used")
	}

	u := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Gender:   in.Gender,
		Password: hash,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return model.SafeUser{}, apperr.Storage(err)
	}
	return u.Sanitize(), nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (model.SafeUser, error) {
	fields := make(map[string]any)
	setIfPresent(fields, store.FieldName, in.Name)
	setIfPresent(fields, store.FieldEmail, in.Email)
	setIfPresent(fields, store.FieldGender, in.Gender)
	if in.Password != nil && *in.Password != "" {
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return model.SafeUser{}, apperr.Wrap(apperr.KindValidation, err, "Password cannot be used")
		}
		fields[store.FieldPassword] = hash
	}
	if len(fields) == 0 {
		return model.SafeUser{}, apperr.New(apperr.KindValidation, "No fields to update")
	}

	if _, err := s.find(ctx, id); err != nil {
		return model.SafeUser{}, err
	}

	n, err := s.users.Update(ctx, id, fields)
	if err != nil {
		return model.SafeUser{}, apperr.Storage(err)
	}
	if n == 0 {
		return model.SafeUser{}, apperr.New(apperr.KindNotFound, MsgUserNotFound)
	}

	return s.Get(ctx, id)
}

// Delete removes the row, and with it the stored refresh token.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, MsgUserNotFound)
	}
	return nil
}

func (s *Service) find(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, apperr.New(apperr.KindNotFound, MsgUserNotFound)
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, MsgUserNotFound)
		}
		return nil, apperr.Storage(err)
	}
	return u, nil
}

func setIfPresent(fields map[string]any, column string, v *string) {
	if v != nil && *v != "" {
		fields[column] = *v
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return apperr.Wrap(apperr.KindValidation, err, fmt.Sprintf("%s field cannot be empty", fieldErrs[0].Field()))
	}
	return apperr.Wrap(apperr.KindValidation, err, "Invalid request")
}

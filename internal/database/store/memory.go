package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vnxcius/accounts-back/internal/database/model"
)

// MemoryUserStore keeps users in process memory. It backs DB_DRIVER=memory
// and the service tests.
type MemoryUserStore struct {
	mu     sync.RWMutex
	users  map[uint]model.User
	nextID uint
	now    func() time.Time
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:  make(map[uint]model.User),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryUserStore) FindByField(_ context.Context, field string, value any) (*model.User, error) {
	if !lookupFields[field] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	want, ok := stringValue(value)
	if !ok {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.sortedIDs() {
		u := s.users[id]
		if got, ok := columnValue(&u, field); ok && got == want {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, 0, len(s.users))
	for _, id := range s.sortedIDs() {
		out = append(out, *cloneUser(s.users[id]))
	}
	return out, nil
}

func (s *MemoryUserStore) Insert(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++
	s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, id uint, fields map[string]any) (int64, error) {
	if err := checkUpdateFields(fields); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		if err := setColumn(&u, k, v); err != nil {
			return 0, err
		}
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return 1, nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	return 1, nil
}

// caller holds mu
func (s *MemoryUserStore) sortedIDs() []uint {
	ids := make([]uint, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func columnValue(u *model.User, field string) (string, bool) {
	switch field {
	case FieldName:
		return u.Name, true
	case FieldEmail:
		return u.Email, true
	case FieldGender:
		return u.Gender, true
	case FieldPassword:
		return u.Password, true
	case FieldRefreshToken:
		if u.RefreshToken == nil {
			return "", false
		}
		return *u.RefreshToken, true
	}
	return "", false
}

func setColumn(u *model.User, field string, value any) error {
	if field == FieldRefreshToken {
		s, ok := stringValue(value)
		if !ok {
			u.RefreshToken = nil
			return nil
		}
		u.RefreshToken = &s
		return nil
	}

	s, ok := stringValue(value)
	if !ok {
		return fmt.Errorf("%s: unsupported value %v", field, value)
	}
	switch field {
	case FieldName:
		u.Name = s
	case FieldEmail:
		u.Email = s
	case FieldGender:
		u.Gender = s
	case FieldPassword:
		u.Password = s
	}
	return nil
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	}
	return "", false
}

func cloneUser(u model.User) *model.User {
	if u.RefreshToken != nil {
		tok := *u.RefreshToken
		u.RefreshToken = &tok
	}
	return &u
}

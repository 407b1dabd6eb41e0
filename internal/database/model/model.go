package model

import "time"

// User is the stored account. Password holds the bcrypt hash and, together
// with RefreshToken, never leaves the store layer in a response or token.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	Email        string    `gorm:"type:varchar(255);index" json:"email"`
	Gender       string    `gorm:"type:varchar(255)" json:"gender"`
	Password     string    `gorm:"type:varchar(255)" json:"-"`
	RefreshToken *string   `gorm:"type:text;index" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SafeUser is User without its secret fields.
type SafeUser struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Gender    string    `json:"gender"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Sanitize() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func SanitizeAll(users []User) []SafeUser {
	out := make([]SafeUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Sanitize())
	}
	return out
}

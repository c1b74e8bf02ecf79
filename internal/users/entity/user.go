package entity

import "time"

type User struct {
	ID          int64
	Name        string
	Email       string
	PhoneNumber string
	CreatedAt   time.Time
}

// NewUser is a user row plus its password hash.
type NewUser struct {
	User
	PasswordHash string
}

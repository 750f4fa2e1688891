package models

import "time"

// User represents an operator account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Token        *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

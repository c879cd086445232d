package models

import (
	"time"
)

// Admin represents the site owner's account
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email,omitempty" db:"email"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SiteConfig is a single key/value row of site-wide configuration
type SiteConfig struct {
	Key       string    `json:"key_name" db:"key_name"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

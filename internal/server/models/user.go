// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. Email is stored lower-cased.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

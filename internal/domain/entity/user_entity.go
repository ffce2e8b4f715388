package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Passwords are stored as bcrypt hashes in PasswordHash.
//
// PlaceIDs mirrors the user_places membership table: it must contain exactly
// the ids of the places whose CreatorID points back at this user.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Image        string
	PlaceIDs     []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package entity

import "time"

// Place is a point of interest registered by a user. Lat/Lng are resolved
// from Address at creation time and never recomputed afterwards.
type Place struct {
	ID          string
	Title       string
	Description string
	Address     string
	Lat         float64
	Lng         float64
	Image       string
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

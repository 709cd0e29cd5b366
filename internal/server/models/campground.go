// Package models defines server-side data models persisted in the database.
package models

import "time"

// Campground is a listing. Location is the formatted address returned by the
// geocoder; ImageID is the object key the image is stored under.
type Campground struct {
	ID          string
	Name        string
	Price       string
	Description string
	Location    string
	Lat         float64
	Lng         float64
	ImageURL    string
	ImageID     string
	Author      Author
	CreatedAt   time.Time

	// Comments is populated by reads that need them, ordered by Position.
	Comments []*Comment
}

// Comment belongs to exactly one campground. Position orders the comments of a
// campground by insertion.
type Comment struct {
	ID           string
	CampgroundID string
	Text         string
	Author       Author
	Position     int64
	CreatedAt    time.Time
}

package models

// Author is the immutable {ID, Username} copy taken from the acting user when
// a campground or comment is created. Renaming a user does not rewrite it.
type Author struct {
	ID       string
	Username string
}

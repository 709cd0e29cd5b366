package models

// Place is a geocoding result.
type Place struct {
	FormattedAddress string
	Lat              float64
	Lng              float64
}

// Image is a hosted image: the public URL and the key used to destroy it.
type Image struct {
	URL string
	ID  string
}

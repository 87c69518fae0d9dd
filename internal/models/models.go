// package models defines the data the recommendation handlers pass around
package models

// User is the subset of the caller's profile the app reads.
type User struct {
	ID          string
	DisplayName string
	Country     string
	Images      []Image
}

// PictureURL returns the first profile image URL, or "" when the user has none.
func (u User) PictureURL() string {
	if len(u.Images) == 0 {
		return ""
	}
	return u.Images[0].URL
}

// Image is a profile or cover image.
type Image struct {
	URL    string
	Height int
	Width  int
}

// Artist is a reference to an artist in the provider's catalog.
type Artist struct {
	ID   string
	URI  string
	Name string
}

// Track is a reference to a track in the provider's catalog.
type Track struct {
	ID   string
	Name string
}

// Playlist is a playlist known by its provider ID.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Public      bool
}

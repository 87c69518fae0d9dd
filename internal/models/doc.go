// Package models defines provider-neutral types returned by [services.Service].
//
// The types carry only the fields the recommendation flows read:
//   - [User] : display name, country and images of the logged in user
//   - [Artist] : ID and URI, used to chain top artists into related artists or seeds
//   - [Track] : ID of a recommended track
//   - [Playlist] : ID of a created or searched playlist
//
// Nothing here is persisted. Values live for a single request.
package models

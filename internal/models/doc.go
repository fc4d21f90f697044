// Package models defines the cached library entities shared by sync, analysis and the playlist planner.
//
// A [Snapshot] is the full tabular picture of a user's library at the last sync:
//   - [Playlist] : playlist metadata, owned or followed
//   - [Track] : track metadata with the ordered artist IDs
//   - [Artist] : artist metadata with raw genre tags
//   - [Membership] : a track's position in a playlist with the time it was added
//
// Liked songs are stored as the pseudo playlist [LikedSongsID] so every track source shares one shape.
package models

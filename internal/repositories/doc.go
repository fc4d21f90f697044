// Package repositories implements SQLite persistence for the cached library and run history.
//
// Key Implementations:
//   - [PlaylistRepository] : playlist rows, filtered by ownership or name
//   - [TrackRepository] : tracks with their ordered artist IDs
//   - [ArtistRepository] : artists with genre tags
//   - [MembershipRepository] : playlist membership with positions and added times
//   - [SnapshotRepository] : loads and saves a whole [models.Snapshot] in one transaction
//   - [RunRepository] : history of sync and analysis runs
//
// Entity repositories accept a [Querier] so the same code runs against a *sql.DB or inside [WithTx].
package repositories

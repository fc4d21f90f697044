// Package tasks runs the library pipeline: sync the Spotify library into the local cache, plan the automated
// playlists from liked songs, and write the plan back with minimal changes.
//
// # Operations
//
// The [SyncEngine] interface defines three operations:
//
//  1. [SyncEngine.Sync] : refresh the cached snapshot
//     - Fetches the user, playlist listing, liked songs and unknown artists
//     - Reuses cached items for owned playlists whose snapshot id is unchanged
//     - Merges with the cache by ID and saves the result in one transaction
//
//  2. [SyncEngine.Apply] : write a [Plan]
//     - Matches targets by name among the user's own playlists
//     - Pushes the [ChangeSet] from [Diff] in chunks of [PushChunkSize]
//     - Unfollows retired monthly playlists once every target succeeded
//
//  3. [SyncEngine.Run] : Sync, [BuildPlan] and Apply in sequence
//
// [PlaylistEngine.Export] writes the cached snapshot to disk with a small worker pool.
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]. Sends use select with default so a slow or
// absent reader never blocks a run.
package tasks

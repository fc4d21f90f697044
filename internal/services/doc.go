// Package services defines the [Service] interface for music providers and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] wraps a [spotify.Client] built on an [oauth2] HTTP client. Tokens are loaded from and
// persisted to a [TokenStore], so refreshed access tokens survive between cron runs.
//
// Every call goes through a pacer: a [rate.Limiter] sets the minimum spacing between requests, halves its
// rate when Spotify signals pressure (429, 5xx, timeouts) and recovers gradually on success. Failed calls
// that [IsRetryable] accepts are retried with exponential backoff and jitter.
//
// # Job Server Client
//
// [JobClient] talks to a running `spotsync serve` instance. The `watch` and `remote` commands use it.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no usable token
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrRetriesExhausted] : every retry attempt failed
//   - [shared.ErrTaskNotFound] : the job server does not know a task
package services

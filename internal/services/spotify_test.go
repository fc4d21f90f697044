package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/shared"
)

// fakeSpotify serves a small subset of the Web API under /v1/.
type fakeSpotify struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	bodies   map[string][]string
	failures map[string][]int
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	f := &fakeSpotify{
		t:        t,
		calls:    map[string]int{},
		bodies:   map[string][]string{},
		failures: map[string][]int{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// failNext queues status codes returned for the next requests to key ("GET /me").
func (f *fakeSpotify) failNext(key string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = append(f.failures[key], statuses...)
}

func (f *fakeSpotify) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeSpotify) service() *SpotifyService {
	return NewSpotifyService(f.server.Client(), SpotifyOptions{
		BaseURL:     f.server.URL + "/v1",
		BackoffBase: time.Millisecond,
		MaxRetries:  3,
		Logger:      shared.NewLogger(io.Discard),
	})
}

func (f *fakeSpotify) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	// playlist items are served identically under /tracks and /items
	path = strings.Replace(path, "/items", "/tracks", 1)
	key := r.Method + " /" + path

	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls[key]++
	f.bodies[key] = append(f.bodies[key], string(body))
	var status int
	if q := f.failures[key]; len(q) > 0 {
		status, f.failures[key] = q[0], q[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"status":%d,"message":"injected"}}`, status)
		return
	}

	next := func(query string) string {
		return fmt.Sprintf("%s/v1/%s?%s", f.server.URL, path, query)
	}

	switch key {
	case "GET /me":
		fmt.Fprint(w, `{"id":"u1","display_name":"Ada"}`)
	case "GET /me/playlists":
		if r.URL.Query().Get("offset") == "1" {
			fmt.Fprint(w, `{"items":[{"id":"p2","name":"Followed","owner":{"id":"someone"},"public":true,"snapshot_id":"s2","tracks":{"total":7}}],"limit":1,"offset":1,"total":2,"next":null}`)
			return
		}
		fmt.Fprintf(w, `{"items":[{"id":"p1","name":"AJFindsJan25","description":"d","owner":{"id":"u1"},"public":false,"snapshot_id":"s1","tracks":{"total":3}}],"limit":1,"offset":0,"total":2,"next":%q}`, next("offset=1&limit=1"))
	case "GET /me/tracks":
		fmt.Fprint(w, `{"items":[
			{"added_at":"2025-01-15T10:00:00Z","track":{"id":"t1","name":"One","duration_ms":1000,"popularity":50,"artists":[{"id":"a1","name":"Alpha"},{"id":"a2","name":"Beta"}],"album":{"name":"Album"}}},
			{"added_at":"2024-12-01T10:00:00Z","track":{"id":"t2","name":"Two","duration_ms":2000,"popularity":10,"artists":[{"id":"a2","name":"Beta"}],"album":{"name":"Other"}}}
		],"limit":50,"offset":0,"total":2,"next":null}`)
	case "GET /playlists/p1/tracks":
		fmt.Fprint(w, `{"items":[
			{"added_at":"2025-01-15T10:00:00Z","is_local":false,"track":{"type":"track","id":"t1","name":"One","duration_ms":1000,"artists":[{"id":"a1","name":"Alpha"}],"album":{"name":"Album"}}},
			{"added_at":"2025-01-16T10:00:00Z","is_local":true,"track":{"type":"track","id":null,"name":"Local","duration_ms":1,"artists":[],"album":{"name":""}}}
		],"limit":50,"offset":0,"total":2,"next":null}`)
	case "GET /artists":
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		var artists []string
		for _, id := range ids {
			artists = append(artists, fmt.Sprintf(`{"id":%q,"name":"Artist %s","genres":["rap"],"popularity":40}`, id, id))
		}
		fmt.Fprintf(w, `{"artists":[%s]}`, strings.Join(artists, ","))
	case "POST /users/u1/playlists":
		var req map[string]any
		json.Unmarshal(body, &req)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"new","name":%q,"description":%q,"owner":{"id":"u1"},"public":false,"snapshot_id":"s0","tracks":{"total":0}}`, req["name"], req["description"])
	case "POST /playlists/p1/tracks":
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"snapshot_id":"s2"}`)
	case "DELETE /playlists/p1/tracks":
		fmt.Fprint(w, `{"snapshot_id":"s3"}`)
	case "PUT /playlists/p1":
		w.WriteHeader(http.StatusOK)
	case "DELETE /playlists/p1/followers":
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":{"status":404,"message":"no route for %s"}}`, key)
	}
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("CurrentUser", func(t *testing.T) {
		f := newFakeSpotify(t)
		user, err := f.service().CurrentUser(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "u1" || user.DisplayName != "Ada" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Playlists follows every page", func(t *testing.T) {
		f := newFakeSpotify(t)
		playlists, err := f.service().Playlists(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}

		p := playlists[0]
		if p.ID != "p1" || p.OwnerID != "u1" || p.TrackCount != 3 || p.SnapshotID != "s1" || p.Description != "d" {
			t.Errorf("unexpected first playlist %+v", p)
		}
		if !playlists[1].Public || playlists[1].OwnerID != "someone" {
			t.Errorf("unexpected second playlist %+v", playlists[1])
		}
		if f.count("GET /me/playlists") != 2 {
			t.Errorf("expected 2 page requests, got %d", f.count("GET /me/playlists"))
		}
	})

	t.Run("LikedSongs", func(t *testing.T) {
		f := newFakeSpotify(t)
		items, err := f.service().LikedSongs(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 liked songs, got %d", len(items))
		}

		first := items[0]
		if first.Track.Artist != "Alpha" || len(first.Track.ArtistIDs) != 2 || first.Track.Album != "Album" {
			t.Errorf("unexpected track %+v", first.Track)
		}
		if first.Track.DurationMS != 1000 || first.Track.Popularity != 50 {
			t.Errorf("unexpected numeric fields %+v", first.Track)
		}
		want := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
		if !first.AddedAt.Equal(want) {
			t.Errorf("expected added_at %v, got %v", want, first.AddedAt)
		}
	})

	t.Run("PlaylistItems skips local files", func(t *testing.T) {
		f := newFakeSpotify(t)
		items, err := f.service().PlaylistItems(ctx, "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 1 || items[0].Track.ID != "t1" {
			t.Errorf("expected only t1, got %+v", items)
		}
	})

	t.Run("Artists batches by 50", func(t *testing.T) {
		f := newFakeSpotify(t)
		ids := make([]string, 60)
		for i := range ids {
			ids[i] = fmt.Sprintf("a%d", i)
		}

		artists, err := f.service().Artists(ctx, ids)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(artists) != 60 {
			t.Errorf("expected 60 artists, got %d", len(artists))
		}
		if f.count("GET /artists") != 2 {
			t.Errorf("expected 2 batch requests, got %d", f.count("GET /artists"))
		}
		if artists[0].Genres[0] != "rap" || artists[0].Popularity != 40 {
			t.Errorf("unexpected artist %+v", artists[0])
		}
	})

	t.Run("Playlist mutations", func(t *testing.T) {
		f := newFakeSpotify(t)
		srv := f.service()

		created, err := srv.CreatePlaylist(ctx, "u1", "AJFindsFeb25", "desc", false)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID != "new" || created.Name != "AJFindsFeb25" || !created.IsOwned {
			t.Errorf("unexpected created playlist %+v", created)
		}

		if err := srv.AddTracks(ctx, "p1", []string{"t1", "t2"}); err != nil {
			t.Errorf("add failed: %v", err)
		}
		if !strings.Contains(f.bodies["POST /playlists/p1/tracks"][0], "spotify:track:t1") {
			t.Errorf("expected track URIs in body, got %s", f.bodies["POST /playlists/p1/tracks"][0])
		}

		if err := srv.RemoveTracks(ctx, "p1", []string{"t3"}); err != nil {
			t.Errorf("remove failed: %v", err)
		}
		if err := srv.UpdateDescription(ctx, "p1", "new description"); err != nil {
			t.Errorf("update description failed: %v", err)
		}
		if err := srv.Unfollow(ctx, "p1"); err != nil {
			t.Errorf("unfollow failed: %v", err)
		}
	})

	t.Run("Batch limits", func(t *testing.T) {
		f := newFakeSpotify(t)
		srv := f.service()

		if err := srv.AddTracks(ctx, "p1", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty batch, got %v", err)
		}
		if err := srv.RemoveTracks(ctx, "p1", make([]string, MaxTracksPerRequest+1)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for oversized batch, got %v", err)
		}
		if f.count("POST /playlists/p1/tracks")+f.count("DELETE /playlists/p1/tracks") != 0 {
			t.Error("invalid batches should not reach the API")
		}
	})

	t.Run("Retries transient failures", func(t *testing.T) {
		f := newFakeSpotify(t)
		f.failNext("GET /me", http.StatusInternalServerError, http.StatusBadGateway)

		user, err := f.service().CurrentUser(ctx)
		if err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if user.ID != "u1" {
			t.Errorf("unexpected user %+v", user)
		}
		if f.count("GET /me") != 3 {
			t.Errorf("expected 3 attempts, got %d", f.count("GET /me"))
		}
	})

	t.Run("Honours 429 Retry-After", func(t *testing.T) {
		f := newFakeSpotify(t)
		f.failNext("GET /me", http.StatusTooManyRequests)

		if _, err := f.service().CurrentUser(ctx); err != nil {
			t.Fatalf("expected rate limited call to succeed, got %v", err)
		}
		if f.count("GET /me") != 2 {
			t.Errorf("expected 2 attempts, got %d", f.count("GET /me"))
		}
	})

	t.Run("Retries exhausted", func(t *testing.T) {
		f := newFakeSpotify(t)
		f.failNext("GET /me", 503, 503, 503, 503)

		_, err := f.service().CurrentUser(ctx)
		if !errors.Is(err, shared.ErrRetriesExhausted) {
			t.Fatalf("expected ErrRetriesExhausted, got %v", err)
		}
		if f.count("GET /me") != 3 {
			t.Errorf("expected MaxRetries attempts, got %d", f.count("GET /me"))
		}
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		f := newFakeSpotify(t)
		f.failNext("GET /me", http.StatusForbidden)

		_, err := f.service().CurrentUser(ctx)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if f.count("GET /me") != 1 {
			t.Errorf("expected a single attempt, got %d", f.count("GET /me"))
		}
	})

	t.Run("Unfollow missing playlist", func(t *testing.T) {
		f := newFakeSpotify(t)
		f.failNext("DELETE /playlists/p1/followers", http.StatusNotFound)

		err := f.service().Unfollow(ctx, "p1")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Name", func(t *testing.T) {
		srv := NewSpotifyService(http.DefaultClient, SpotifyOptions{Logger: shared.NewLogger(io.Discard)})
		if srv.Name() != "Spotify" {
			t.Errorf("expected service name 'Spotify', got %s", srv.Name())
		}
	})
}

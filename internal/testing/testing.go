// Package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/services"
)

// Call records one mutating request made against a [MockService].
type Call struct {
	Method     string
	PlaylistID string
	TrackIDs   []string
	Value      string
}

// MockService is an in-memory test double for [services.Service].
//
// Seed it with AddPlaylist, SetItems, Like and AddArtist. Mutations are applied to the in-memory library
// and recorded in Calls.
type MockService struct {
	mu sync.Mutex

	User      models.User
	playlists []models.Playlist
	items     map[string][]services.TrackItem
	liked     []services.TrackItem
	artists   map[string]models.Artist
	catalog   map[string]models.Track

	Calls []Call
	// Reads counts read requests by method name.
	Reads map[string]int
	// Errors maps a method name to the error it should return.
	Errors map[string]error
	// OnRead, when set, runs before every read request outside the lock.
	OnRead func(method string)

	nextID int
}

// NewMockService returns an empty library for user u1.
func NewMockService() *MockService {
	return &MockService{
		User:    models.User{ID: "u1", DisplayName: "Test User"},
		items:   map[string][]services.TrackItem{},
		artists: map[string]models.Artist{},
		catalog: map[string]models.Track{},
		Reads:   map[string]int{},
		Errors:  map[string]error{},
	}
}

func (m *MockService) AddPlaylist(p models.Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists = append(m.playlists, p)
}

// SetItems replaces the tracks of a playlist and refreshes its count.
func (m *MockService) SetItems(playlistID string, items ...services.TrackItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[playlistID] = slices.Clone(items)
	m.remember(items)
	m.touch(playlistID)
}

// Like prepends tracks to the liked songs, newest first.
func (m *MockService) Like(items ...services.TrackItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.liked = append(slices.Clone(items), m.liked...)
	m.remember(items)
}

// remember records track metadata so later additions carry it. Caller holds mu.
func (m *MockService) remember(items []services.TrackItem) {
	for _, it := range items {
		m.catalog[it.Track.ID] = it.Track
	}
}

func (m *MockService) AddArtist(a models.Artist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artists[a.ID] = a
}

// Items returns the current track IDs of a playlist.
func (m *MockService) Items(playlistID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, it := range m.items[playlistID] {
		ids = append(ids, it.Track.ID)
	}
	return ids
}

// PlaylistByName finds a playlist by exact name.
func (m *MockService) PlaylistByName(name string) (models.Playlist, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.playlists {
		if p.Name == name {
			return p, true
		}
	}
	return models.Playlist{}, false
}

// CallsTo returns recorded calls of one method.
func (m *MockService) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears recorded calls and read counts.
func (m *MockService) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.Reads = map[string]int{}
}

// touch updates track count and snapshot id after a playlist changes. Caller holds mu.
func (m *MockService) touch(playlistID string) {
	for i := range m.playlists {
		if m.playlists[i].ID == playlistID {
			m.playlists[i].TrackCount = len(m.items[playlistID])
			m.nextID++
			m.playlists[i].SnapshotID = fmt.Sprintf("snap-%d", m.nextID)
		}
	}
}

func (m *MockService) read(method string) error {
	m.mu.Lock()
	hook := m.OnRead
	m.Reads[method]++
	err := m.Errors[method]
	m.mu.Unlock()

	if hook != nil {
		hook(method)
	}
	return err
}

func (m *MockService) write(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errors[c.Method]; err != nil {
		return err
	}
	m.Calls = append(m.Calls, c)
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if err := m.read("CurrentUser"); err != nil {
		return nil, err
	}
	u := m.User
	return &u, nil
}

func (m *MockService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if err := m.read("Playlists"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.playlists), nil
}

func (m *MockService) PlaylistItems(ctx context.Context, playlistID string) ([]services.TrackItem, error) {
	if err := m.read("PlaylistItems"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.items[playlistID]), nil
}

func (m *MockService) LikedSongs(ctx context.Context) ([]services.TrackItem, error) {
	if err := m.read("LikedSongs"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.liked), nil
}

func (m *MockService) Artists(ctx context.Context, ids []string) ([]models.Artist, error) {
	if err := m.read("Artists"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Artist
	for _, id := range ids {
		if a, ok := m.artists[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if err := m.write(Call{Method: "CreatePlaylist", Value: name}); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := models.Playlist{
		ID:          fmt.Sprintf("created-%d", m.nextID),
		Name:        name,
		OwnerID:     userID,
		IsOwned:     true,
		Description: description,
		Public:      public,
		SnapshotID:  fmt.Sprintf("snap-%d", m.nextID),
	}
	m.playlists = append(m.playlists, p)
	return &p, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > services.MaxTracksPerRequest {
		return fmt.Errorf("too many tracks: %d", len(trackIDs))
	}
	if err := m.write(Call{Method: "AddTracks", PlaylistID: playlistID, TrackIDs: slices.Clone(trackIDs)}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range trackIDs {
		track, ok := m.catalog[id]
		if !ok {
			track = models.Track{ID: id}
		}
		m.items[playlistID] = append(m.items[playlistID], services.TrackItem{Track: track, AddedAt: time.Now().UTC()})
	}
	m.touch(playlistID)
	return nil
}

func (m *MockService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > services.MaxTracksPerRequest {
		return fmt.Errorf("too many tracks: %d", len(trackIDs))
	}
	if err := m.write(Call{Method: "RemoveTracks", PlaylistID: playlistID, TrackIDs: slices.Clone(trackIDs)}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[playlistID] = slices.DeleteFunc(m.items[playlistID], func(it services.TrackItem) bool {
		return slices.Contains(trackIDs, it.Track.ID)
	})
	m.touch(playlistID)
	return nil
}

func (m *MockService) UpdateDescription(ctx context.Context, playlistID, description string) error {
	if err := m.write(Call{Method: "UpdateDescription", PlaylistID: playlistID, Value: description}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.playlists {
		if m.playlists[i].ID == playlistID {
			m.playlists[i].Description = description
		}
	}
	return nil
}

func (m *MockService) Unfollow(ctx context.Context, playlistID string) error {
	if err := m.write(Call{Method: "Unfollow", PlaylistID: playlistID}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists = slices.DeleteFunc(m.playlists, func(p models.Playlist) bool { return p.ID == playlistID })
	delete(m.items, playlistID)
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// Item builds a [services.TrackItem] for seeding mocks.
func Item(id, name, artistID string, addedAt time.Time) services.TrackItem {
	return services.TrackItem{
		Track: models.Track{
			ID:         id,
			Name:       name,
			ArtistIDs:  []string{artistID},
			Artist:     "Artist " + artistID,
			DurationMS: 180000,
			Popularity: 50,
		},
		AddedAt: addedAt,
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

// MockCatalog is a test double for the playlist catalog used by the exporter.
type MockCatalog struct {
	PlaylistList []models.PlaylistSummary
	TrackLists   map[string][]models.TrackRecord
	PlaylistsErr error
	TracksErr    error

	mu           sync.Mutex
	TracksCalled []string
}

func (m *MockCatalog) Playlists(ctx context.Context, token string) ([]models.PlaylistSummary, error) {
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	return m.PlaylistList, nil
}

func (m *MockCatalog) Tracks(ctx context.Context, token, playlistID string) ([]models.TrackRecord, error) {
	m.mu.Lock()
	m.TracksCalled = append(m.TracksCalled, playlistID)
	m.mu.Unlock()
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.TrackLists[playlistID], nil
}

// FakeClock returns a fixed time until advanced.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FakeSleeper records requested sleeps and returns immediately.
type FakeSleeper struct {
	mu     sync.Mutex
	Sleeps []time.Duration
}

func (s *FakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Sleeps = append(s.Sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
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

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 { return &n }

// WriteArtifact writes a minimal playlist export file for purge tests.
func WriteArtifact(t *testing.T, path string, artifact models.ExportArtifact) {
	t.Helper()
	data, err := shared.MarshalJSON(artifact, true)
	if err != nil {
		t.Fatalf("Failed to encode artifact: %v", err)
	}
	MustWriteFile(t, path, string(data))
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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

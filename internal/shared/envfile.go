// Credential store backed by a dotenv file.
package shared

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Keys read from and written to the credential store.
const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
	EnvRefreshToken = "SPOTIFY_REFRESH_TOKEN"
	EnvTTLDays      = "EXPORT_TTL_DAYS"
)

// EnvStore reads and writes KEY=value pairs in a single .env file.
//
// Writes edit only the assignment they touch; comments, blank lines and the order of other
// keys are kept. Values are written in [godotenv.Marshal] form.
type EnvStore struct {
	path string
}

// NewEnvStore returns a store for the file at path. The file does not need to exist yet.
func NewEnvStore(path string) *EnvStore {
	return &EnvStore{path: path}
}

// Path returns the backing file path.
func (s *EnvStore) Path() string {
	return s.path
}

// Ensure creates an empty store file if none exists.
func (s *EnvStore) Ensure() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &LocalIOError{Op: "stat", Path: s.path, Err: err}
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &LocalIOError{Op: "create", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(s.path, nil, 0600); err != nil {
		return &LocalIOError{Op: "create", Path: s.path, Err: err}
	}
	return nil
}

// All returns every key in the store. A missing file reads as empty.
func (s *EnvStore) All() (map[string]string, error) {
	values, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &LocalIOError{Op: "read", Path: s.path, Err: err}
	}
	return values, nil
}

// Get returns the stored value for key and whether it was present.
func (s *EnvStore) Get(key string) (string, bool, error) {
	values, err := s.All()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set stores key=value, creating the file when needed.
//
// An existing assignment is replaced in place and later duplicates are dropped; a new key is
// appended.
func (s *EnvStore) Set(key, value string) error {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return &LocalIOError{Op: "encode", Path: s.path, Err: err}
	}
	lines, err := s.lines()
	if err != nil {
		return err
	}

	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, l := range lines {
		if lineKey(l) != key {
			out = append(out, l)
			continue
		}
		if !replaced {
			out = append(out, line)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, line)
	}
	return s.writeLines(out)
}

// Delete removes key and reports whether it was present.
func (s *EnvStore) Delete(key string) (bool, error) {
	if _, ok, err := s.Get(key); err != nil || !ok {
		return false, err
	}
	lines, err := s.lines()
	if err != nil {
		return false, err
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if lineKey(l) != key {
			out = append(out, l)
		}
	}
	return true, s.writeLines(out)
}

// Clear truncates the store file.
func (s *EnvStore) Clear() error {
	if err := os.WriteFile(s.path, nil, 0600); err != nil {
		return &LocalIOError{Op: "truncate", Path: s.path, Err: err}
	}
	return nil
}

// Lookup returns the process environment value for key, falling back to the file.
//
// Read errors are treated as a missing key.
func (s *EnvStore) Lookup(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	v, _, err := s.Get(key)
	if err != nil {
		return ""
	}
	return v
}

// lines returns the raw lines of the file. A missing file has none.
func (s *EnvStore) lines() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &LocalIOError{Op: "read", Path: s.path, Err: err}
	}
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

func (s *EnvStore) writeLines(lines []string) error {
	if len(lines) == 0 {
		return s.Clear()
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(s.path, []byte(data), 0600); err != nil {
		return &LocalIOError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Chmod(s.path, 0600); err != nil {
		return &LocalIOError{Op: "chmod", Path: s.path, Err: err}
	}
	return nil
}

// lineKey returns the key assigned on a dotenv line, or "" for comments and other lines.
func lineKey(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[:i])
}

// ResolveEnvPath picks the credential store path once at startup.
//
// Order: explicit path, then the nearest .env found walking up from startDir, then startDir/.env.
func ResolveEnvPath(explicit, startDir string) string {
	if explicit != "" {
		return explicit
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(startDir, ".env")
}

// MustGetwd returns the working directory or "." when it cannot be determined.
func MustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

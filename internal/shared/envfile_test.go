package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvStore(t *testing.T) {
	t.Run("Ensure creates an empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", ".env")
		store := NewEnvStore(path)

		if err := store.Ensure(); err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected file to exist: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("expected empty file, got %d bytes", info.Size())
		}
	})

	t.Run("Set and Get", func(t *testing.T) {
		store := NewEnvStore(filepath.Join(t.TempDir(), ".env"))

		if err := store.Set(EnvClientID, "cid"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set(EnvRefreshToken, "token with spaces & symbols"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		v, ok, err := store.Get(EnvRefreshToken)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || v != "token with spaces & symbols" {
			t.Errorf("Get() = %q, %v", v, ok)
		}

		all, err := store.All()
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(all) != 2 || all[EnvClientID] != "cid" {
			t.Errorf("All() = %v", all)
		}
	})

	t.Run("Get missing key", func(t *testing.T) {
		store := NewEnvStore(filepath.Join(t.TempDir(), ".env"))

		_, ok, err := store.Get("NOPE")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("expected key to be absent")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SPOTIFY_CLIENT_ID=cid\nSPOTIFY_REFRESH_TOKEN=rt\n"), 0600); err != nil {
			t.Fatal(err)
		}
		store := NewEnvStore(path)

		removed, err := store.Delete(EnvRefreshToken)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if !removed {
			t.Error("expected Delete() to report removal")
		}

		removed, err = store.Delete(EnvRefreshToken)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if removed {
			t.Error("second Delete() should report nothing removed")
		}

		data, _ := os.ReadFile(path)
		if strings.Contains(string(data), EnvRefreshToken) {
			t.Errorf("refresh token still present: %s", data)
		}
		if !strings.Contains(string(data), EnvClientID) {
			t.Errorf("unrelated key was dropped: %s", data)
		}
	})

	t.Run("Set edits only its own line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		original := "# my app creds\nSPOTIFY_CLIENT_SECRET=secret\n\nSPOTIFY_CLIENT_ID=cid\nSPOTIFY_REFRESH_TOKEN=old\n"
		if err := os.WriteFile(path, []byte(original), 0600); err != nil {
			t.Fatal(err)
		}
		store := NewEnvStore(path)

		if err := store.Set(EnvRefreshToken, "new"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set(EnvTTLDays, "5"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		data, _ := os.ReadFile(path)
		want := "# my app creds\nSPOTIFY_CLIENT_SECRET=secret\n\nSPOTIFY_CLIENT_ID=cid\nSPOTIFY_REFRESH_TOKEN=\"new\"\nEXPORT_TTL_DAYS=5\n"
		if string(data) != want {
			t.Errorf("file = %q, want %q", data, want)
		}
		if v, _, _ := store.Get(EnvRefreshToken); v != "new" {
			t.Errorf("Get() = %q", v)
		}
	})

	t.Run("Delete keeps comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("# creds\nexport SPOTIFY_REFRESH_TOKEN=rt\nSPOTIFY_CLIENT_ID=cid\n"), 0600); err != nil {
			t.Fatal(err)
		}

		removed, err := NewEnvStore(path).Delete(EnvRefreshToken)
		if err != nil || !removed {
			t.Fatalf("Delete() = %v, %v", removed, err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "# creds\nSPOTIFY_CLIENT_ID=cid\n" {
			t.Errorf("unexpected file %q", data)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("A=1\n"), 0600); err != nil {
			t.Fatal(err)
		}

		if err := NewEnvStore(path).Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		data, _ := os.ReadFile(path)
		if len(data) != 0 {
			t.Errorf("expected truncated file, got %q", data)
		}
	})

	t.Run("Lookup prefers process environment", func(t *testing.T) {
		store := NewEnvStore(filepath.Join(t.TempDir(), ".env"))
		if err := store.Set(EnvTTLDays, "5"); err != nil {
			t.Fatal(err)
		}

		if got := store.Lookup(EnvTTLDays); got != "5" {
			t.Errorf("Lookup() from file = %q, want 5", got)
		}

		t.Setenv(EnvTTLDays, "9")
		if got := store.Lookup(EnvTTLDays); got != "9" {
			t.Errorf("Lookup() with env = %q, want 9", got)
		}
	})
}

func TestResolveEnvPath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		if got := ResolveEnvPath("/custom/.env", t.TempDir()); got != "/custom/.env" {
			t.Errorf("ResolveEnvPath() = %q", got)
		}
	})

	t.Run("discovers parent .env", func(t *testing.T) {
		root := t.TempDir()
		want := filepath.Join(root, ".env")
		if err := os.WriteFile(want, nil, 0600); err != nil {
			t.Fatal(err)
		}
		start := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(start, 0755); err != nil {
			t.Fatal(err)
		}

		if got := ResolveEnvPath("", start); got != want {
			t.Errorf("ResolveEnvPath() = %q, want %q", got, want)
		}
	})
}

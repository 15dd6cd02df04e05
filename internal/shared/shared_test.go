package shared

import (
	"bytes"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestMarshalJSON(t *testing.T) {
	v := map[string]any{"title": "Rock & Roll <Live>"}

	t.Run("compact", func(t *testing.T) {
		got, err := MarshalJSON(v, false)
		if err != nil {
			t.Fatalf("MarshalJSON() error = %v", err)
		}
		if string(got) != `{"title":"Rock & Roll <Live>"}` {
			t.Errorf("MarshalJSON() = %s", got)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		got, err := MarshalJSON(v, true)
		if err != nil {
			t.Fatalf("MarshalJSON() error = %v", err)
		}
		want := "{\n  \"title\": \"Rock & Roll <Live>\"\n}"
		if string(got) != want {
			t.Errorf("MarshalJSON() = %q, want %q", got, want)
		}
		if bytes.HasSuffix(got, []byte("\n")) {
			t.Error("expected trailing newline to be trimmed")
		}
	})
}

func TestMaskSecret(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "(not set)"},
		{name: "short", in: "abc", want: "***"},
		{name: "long", in: "abcdefgh", want: "****efgh"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSecret(tt.in); got != tt.want {
				t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()

	if len(a) != 32 {
		t.Errorf("expected 32 hex characters, got %d", len(a))
	}
	if a == b {
		t.Error("expected distinct states")
	}
	if strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("state %q is not lowercase hex", a)
	}
}

func TestGenerateID(t *testing.T) {
	if a, b := GenerateID(), GenerateID(); a == b || len(a) != 36 {
		t.Errorf("GenerateID() produced %q and %q", a, b)
	}
}

func TestErrors(t *testing.T) {
	t.Run("typed errors unwrap to sentinels", func(t *testing.T) {
		tc := []struct {
			err  error
			want error
		}{
			{err: &AuthorizationError{Code: "access_denied"}, want: ErrAuthFailed},
			{err: &TokenExchangeError{Status: 400, Body: "bad"}, want: ErrAuthFailed},
			{err: &RemoteAPIError{Status: 500, Body: "oops"}, want: ErrAPIRequest},
			{err: &LocalIOError{Op: "write", Path: "x", Err: fs.ErrPermission}, want: fs.ErrPermission},
		}
		for _, tt := range tc {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("%v should match %v", tt.err, tt.want)
			}
		}
	})

	t.Run("authorization error message carries the code", func(t *testing.T) {
		err := &AuthorizationError{Code: "access_denied"}
		if !strings.Contains(err.Error(), "access_denied") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestBrowserCommand(t *testing.T) {
	tc := []struct {
		goos string
		want string
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://example.com")
			if err != nil {
				t.Fatalf("browserCommand() error = %v", err)
			}
			if !strings.HasSuffix(cmd.Path, tt.want) && cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %v", tt.want, cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, err := browserCommand("plan9", "https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}

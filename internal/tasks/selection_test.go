package tasks

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

func TestParseSelection(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{name: "single", input: "1", want: []int{1}},
		{name: "list with spaces", input: " 0 , 2 ", want: []int{0, 2}},
		{name: "all short", input: "a", want: []int{0, 1, 2}},
		{name: "all long uppercase", input: "ALL\n", want: []int{0, 1, 2}},
		{name: "empty entries ignored", input: "0,,1,", want: []int{0, 1}},
		{name: "repeats kept once", input: "1,1,0", want: []int{1, 0}},
		{name: "blank", input: "", want: []int{}},
		{name: "out of range", input: "0,3", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "not a number", input: "x", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.input, 3)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidSelection) {
					t.Errorf("expected ErrInvalidSelection, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSelection() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSelection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPromptSelector(t *testing.T) {
	playlists := []models.PlaylistSummary{
		{ID: "p1", Name: "First", TotalTracks: 3},
		{ID: "p2", Name: "Second", TotalTracks: 0},
	}

	t.Run("prints listing and selects", func(t *testing.T) {
		var out strings.Builder
		got, err := NewPromptSelector(strings.NewReader("1\n"), &out).Select(playlists)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "p2" {
			t.Errorf("unexpected selection %+v", got)
		}
		if !strings.Contains(out.String(), "[0] First (tracks: 3)") || !strings.Contains(out.String(), "[1] Second (tracks: 0)") {
			t.Errorf("unexpected listing %q", out.String())
		}
	})

	t.Run("answer without trailing newline", func(t *testing.T) {
		got, err := NewPromptSelector(strings.NewReader("a"), &strings.Builder{}).Select(playlists)
		if err != nil || len(got) != 2 {
			t.Errorf("Select() = %v, %v", got, err)
		}
	})

	t.Run("end of input cancels", func(t *testing.T) {
		_, err := NewPromptSelector(strings.NewReader(""), &strings.Builder{}).Select(playlists)
		if !errors.Is(err, shared.ErrSelectionCancelled) {
			t.Errorf("expected ErrSelectionCancelled, got %v", err)
		}
	})
}

package tasks

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/shared"
)

// Selector narrows the playlist listing to the ones to export.
type Selector interface {
	Select(playlists []models.PlaylistSummary) ([]models.PlaylistSummary, error)
}

// SelectorFunc adapts a function to [Selector].
type SelectorFunc func([]models.PlaylistSummary) ([]models.PlaylistSummary, error)

func (f SelectorFunc) Select(playlists []models.PlaylistSummary) ([]models.PlaylistSummary, error) {
	return f(playlists)
}

// ParseSelection turns comma-separated indices, or "a"/"all", into indices into a listing of count.
//
// Any non-integer entry or index outside [0, count) fails the whole selection with
// [shared.ErrInvalidSelection]. Empty entries are ignored and repeated indices are kept once.
func ParseSelection(input string, count int) ([]int, error) {
	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "a", "all":
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	seen := make(map[int]bool)
	indices := []int{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", shared.ErrInvalidSelection, part)
		}
		if i < 0 || i >= count {
			return nil, fmt.Errorf("%w: index %d out of range [0, %d)", shared.ErrInvalidSelection, i, count)
		}
		if !seen[i] {
			seen[i] = true
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// PromptSelector lists playlists on Out and reads the selection from In.
type PromptSelector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptSelector creates a [PromptSelector]. An existing [bufio.Reader] is reused as is.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{in: bufio.NewReader(in), out: out}
}

// Select prints "[i] name (tracks: n)" per playlist and parses one line of input.
//
// End of input without an answer returns [shared.ErrSelectionCancelled].
func (p *PromptSelector) Select(playlists []models.PlaylistSummary) ([]models.PlaylistSummary, error) {
	fmt.Fprintln(p.out, "Playlists found:")
	for i, pl := range playlists {
		fmt.Fprintf(p.out, "[%d] %s (tracks: %d)\n", i, pl.Name, pl.TotalTracks)
	}
	fmt.Fprint(p.out, "Enter indices separated by commas, or 'a' to export all: ")

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return nil, shared.ErrSelectionCancelled
		}
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	indices, err := ParseSelection(line, len(playlists))
	if err != nil {
		return nil, err
	}

	selected := make([]models.PlaylistSummary, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, playlists[i])
	}
	return selected, nil
}

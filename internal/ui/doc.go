// Package ui implements the interactive playlist picker using bubbletea's Elm architecture.
//
// The [Picker] model is a checklist over the listing returned by the catalog. [PickerSelector]
// wraps it in a [tea.Program] so the exporter can use it in place of the index prompt.
//
// Keyboard navigation uses vim-style bindings (j/k, space, a, /, enter, esc/q) with a help line
// rendered by charmbracelet/bubbles/help. The filter matches playlist names with sahilm/fuzzy.
package ui

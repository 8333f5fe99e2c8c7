// Package ui implements the interactive playlist browser using bubbletea's Elm architecture.
//
// The screen has two panes and a player bar:
//   - the playlist pane lists the catalog, narrowed by the search query
//   - the detail pane shows the selected playlist and its tracks
//   - the player bar shows the current track and the playback state
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// All selection state lives in a [state.App] owned by the model. After every update the model hands the
// current track's audio URL to the [player.Bridge], which only acts when the URL changed.
// Playback events flow back through a channel read by a [tea.Cmd], the same way fetch results do.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, /, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

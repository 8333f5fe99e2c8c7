package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/player"
	"github.com/desertthunder/djay/internal/state"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogFetched MsgKind = iota
	MsgPlayback
	MsgHistoryLoaded
	MsgHistoryRecorded
	MsgOpened
)

type catalogFetched struct {
	token   state.FetchToken
	catalog *models.Catalog
	err     error
}

type historyLoaded struct {
	events []*models.PlayEvent
	err    error
}

// catalogFetchedMsg is the constructor for [MsgCatalogFetched]
func catalogFetchedMsg(tok state.FetchToken, c *models.Catalog, err error) Msg {
	return Msg{kind: MsgCatalogFetched, data: catalogFetched{tok, c, err}}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(ev player.Event) Msg {
	return Msg{kind: MsgPlayback, data: ev}
}

// historyLoadedMsg is the constructor for [MsgHistoryLoaded]
func historyLoadedMsg(events []*models.PlayEvent, err error) Msg {
	return Msg{kind: MsgHistoryLoaded, data: historyLoaded{events, err}}
}

// historyRecordedMsg is the constructor for [MsgHistoryRecorded]
func historyRecordedMsg(err error) Msg {
	return Msg{kind: MsgHistoryRecorded, data: err}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(url string, err error) Msg {
	return Msg{kind: MsgOpened, data: struct {
		url string
		err error
	}{url, err}}
}

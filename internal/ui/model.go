package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/djay/internal/models"
	"github.com/desertthunder/djay/internal/player"
	"github.com/desertthunder/djay/internal/services"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/desertthunder/djay/internal/state"
)

// Pane identifies which list receives navigation keys.
type Pane int

const (
	PlaylistPane Pane = iota
	TrackPane
)

const (
	historyLimit    = 50
	throttledNotice = "Reloading too often, try again in a moment"
)

// Options carries the dependencies of a [Model].
type Options struct {
	Catalog services.CatalogFetcher
	Bridge  *player.Bridge
	History models.Repository[*models.PlayEvent] // optional
	Logger  *log.Logger
	OpenURL func(url string) error // defaults to [shared.OpenBrowser]
	Now     func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	catalog services.CatalogFetcher
	bridge  *player.Bridge
	history models.Repository[*models.PlayEvent]
	logger  *log.Logger
	openURL func(string) error
	now     func() time.Time

	app         *state.App
	fetchCancel context.CancelFunc

	search    textinput.Model
	searching bool
	focus     Pane

	playlistCursor int
	trackCursor    int

	playback    player.State
	showHistory bool
	plays       []*models.PlayEvent
	notice      string

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search playlists"
	search.CharLimit = 128

	return &Model{
		ctx:     ctx,
		catalog: opts.Catalog,
		bridge:  opts.Bridge,
		history: opts.History,
		logger:  shared.WithLogger(opts.Logger, "component", "ui"),
		openURL: opts.OpenURL,
		now:     opts.Now,
		app:     state.New(),
		search:  search,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// App exposes the application state, mainly for tests and the CLI.
func (m *Model) App() *state.App { return m.app }

// Init starts the first catalog fetch and begins listening for playback events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startFetch(false), m.waitForPlayback())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.update(msg)
	m.syncPlayback()
	return model, cmd
}

func (m *Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogFetched:
		data := msg.data.(catalogFetched)
		m.onCatalog(data)
		return m, nil

	case MsgPlayback:
		ev := msg.data.(player.Event)
		m.playback = ev.State
		var cmd tea.Cmd
		if ev.Started {
			cmd = m.recordPlay(ev.URL)
		}
		if ev.Err != nil && ev.State != player.Idle {
			m.notice = "Play/pause failed"
		}
		return m, tea.Batch(cmd, m.waitForPlayback())

	case MsgHistoryLoaded:
		data := msg.data.(historyLoaded)
		if data.err != nil {
			m.logger.Warn("failed to load history", "err", data.err)
			m.notice = "Could not load history"
			return m, nil
		}
		m.plays = data.events
		return m, nil

	case MsgHistoryRecorded:
		if err, _ := msg.data.(error); err != nil {
			m.logger.Warn("failed to record play", "err", err)
			return m, nil
		}
		if m.showHistory {
			return m, m.loadHistory()
		}
		return m, nil

	case MsgOpened:
		data := msg.data.(struct {
			url string
			err error
		})
		if data.err != nil {
			m.logger.Warn("failed to open artwork", "url", data.url, "err", data.err)
			m.notice = "Could not open artwork"
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) onCatalog(data catalogFetched) {
	if data.err != nil {
		if m.app.CatalogFailed(data.token, data.err) {
			m.logger.Debug("catalog fetch settled with error", "err", data.err)
		}
		return
	}

	if !m.app.CatalogLoaded(data.token, data.catalog) {
		return
	}
	m.notice = ""
	m.clampCursors()
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.searching = false
		m.search.Blur()
		return m, nil
	case msg.String() == "ctrl+c":
		return m.quit()
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.app.Query() {
		m.app.SetQuery(m.search.Value())
		m.playlistCursor = 0
	}
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()

	case key.Matches(msg, m.keys.history):
		m.showHistory = !m.showHistory
		if m.showHistory {
			return m, m.loadHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.back):
		switch {
		case m.showHistory:
			m.showHistory = false
		case m.app.Query() != "":
			m.search.SetValue("")
			m.app.SetQuery("")
			m.clampCursors()
		case m.focus == TrackPane:
			m.focus = PlaylistPane
		}
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.showHistory = false
		m.searching = true
		m.focus = PlaylistPane
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.pane):
		if m.focus == PlaylistPane {
			m.focus = TrackPane
		} else {
			m.focus = PlaylistPane
		}
		return m, nil

	case key.Matches(msg, m.keys.up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.enter):
		m.choose()
		return m, nil

	case key.Matches(msg, m.keys.toggle):
		if m.bridge == nil {
			return m, nil
		}
		m.bridge.Toggle()
		return m, nil

	case key.Matches(msg, m.keys.reload):
		return m, m.startFetch(true)

	case key.Matches(msg, m.keys.artwork):
		return m, m.openArtwork()
	}

	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
	m.app.CancelFetch()
	return m, tea.Quit
}

// move shifts the cursor of the focused pane by delta, staying in bounds.
func (m *Model) move(delta int) {
	switch m.focus {
	case PlaylistPane:
		m.playlistCursor = clamp(m.playlistCursor+delta, len(m.app.Playlists()))
	case TrackPane:
		if p := m.app.SelectedPlaylist(); p != nil {
			m.trackCursor = clamp(m.trackCursor+delta, len(p.Tracks))
		}
	}
}

// choose acts on the cursor: a playlist becomes selected, a track becomes current.
func (m *Model) choose() {
	switch m.focus {
	case PlaylistPane:
		visible := m.app.Playlists()
		if len(visible) == 0 {
			return
		}
		m.app.SelectPlaylist(visible[clamp(m.playlistCursor, len(visible))].ID)
		m.trackCursor = 0
		m.focus = TrackPane

	case TrackPane:
		p := m.app.SelectedPlaylist()
		if p == nil || len(p.Tracks) == 0 {
			return
		}
		t := p.Tracks[clamp(m.trackCursor, len(p.Tracks))]
		m.app.SelectTrack(p.Ref(t))
	}
}

// clampCursors points the playlist cursor at the selected playlist when it is visible.
func (m *Model) clampCursors() {
	visible := m.app.Playlists()
	id := m.app.SelectedPlaylistID()
	for i, p := range visible {
		if p.ID == id {
			m.playlistCursor = i
			break
		}
	}
	m.playlistCursor = clamp(m.playlistCursor, len(visible))

	if p := m.app.SelectedPlaylist(); p != nil {
		m.trackCursor = clamp(m.trackCursor, len(p.Tracks))
	}
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// currentURL is the absolute audio URL of the current track, or "".
func (m *Model) currentURL() string {
	t := m.app.CurrentTrack()
	if t == nil || t.AudioURL == "" {
		return ""
	}
	return m.catalog.ResolveURL(t.AudioURL)
}

func (m *Model) syncPlayback() {
	if m.bridge != nil {
		m.bridge.Sync(m.currentURL())
	}
}

// startFetch cancels any in-flight fetch and starts a new one. A throttled
// reload leaves the in-flight fetch alone and only sets a notice.
func (m *Model) startFetch(reload bool) tea.Cmd {
	if reload && !m.catalog.AllowReload() {
		m.notice = throttledNotice
		return nil
	}

	if m.fetchCancel != nil {
		m.fetchCancel()
	}

	tok := m.app.BeginFetch()
	ctx, cancel := context.WithCancel(m.ctx)
	m.fetchCancel = cancel

	fetch := m.catalog.FetchCatalog
	return func() tea.Msg {
		c, err := fetch(ctx)
		return catalogFetchedMsg(tok, c, err)
	}
}

func (m *Model) waitForPlayback() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	events := m.bridge.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return playbackMsg(ev)
	}
}

// recordPlay stores the current track in the session history if it is what started playing.
func (m *Model) recordPlay(url string) tea.Cmd {
	if m.history == nil || url == "" || url != m.currentURL() {
		return nil
	}

	ref := m.app.CurrentRef()
	p, ok := m.app.Catalog().Playlist(ref.PlaylistID)
	if !ok {
		return nil
	}
	t, ok := p.Track(ref.TrackID)
	if !ok {
		return nil
	}

	event := models.NewPlayEvent(p, t, m.now())
	repo := m.history
	return func() tea.Msg {
		return historyRecordedMsg(repo.Create(event))
	}
}

func (m *Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	repo := m.history
	return func() tea.Msg {
		events, err := repo.List(historyLimit)
		return historyLoadedMsg(events, err)
	}
}

// openArtwork opens the artwork of the current track, or of the selected playlist from the playlist pane.
func (m *Model) openArtwork() tea.Cmd {
	var path string
	if t := m.app.CurrentTrack(); t != nil && m.focus == TrackPane {
		path = t.ArtworkURL
	}
	if path == "" {
		if p := m.app.SelectedPlaylist(); p != nil {
			path = p.ArtworkURL
		}
	}
	if path == "" {
		m.notice = "No artwork"
		return nil
	}

	url := m.catalog.ResolveURL(path)
	open := m.openURL
	return func() tea.Msg {
		return openedMsg(url, open(url))
	}
}

// View renders the UI based on the current state.
func (m *Model) View() string {
	var sections []string

	header := styles.title.Render("djay")
	if c := m.app.Catalog(); c != nil {
		if totals := joinNonEmpty(" · ", c.TotalCountText, c.TotalDurationText); totals != "" {
			header += "  " + styles.muted.Render(totals)
		}
	}
	sections = append(sections, header)

	if banner := renderBanner(m.app.Banner()); banner != "" {
		sections = append(sections, banner)
	}

	if m.searching || m.app.Query() != "" {
		sections = append(sections, m.search.View())
	}

	if m.showHistory {
		sections = append(sections, styles.pane.Render(renderHistory(m.plays)))
	} else {
		sections = append(sections, m.renderPanes())
	}

	sections = append(sections, renderPlayerBar(m.app.CurrentTrack(), m.playback))

	if m.notice != "" {
		sections = append(sections, styles.notice.Render(m.notice))
	}
	sections = append(sections, m.help.ShortHelpView([]key.Binding{
		m.keys.search, m.keys.pane, m.keys.enter, m.keys.toggle, m.keys.reload, m.keys.history, m.keys.quit,
	}))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderPanes() string {
	left := m.renderPlaylistPane()
	right := m.renderDetailPane()

	leftStyle, rightStyle := styles.pane, styles.pane
	if m.focus == PlaylistPane {
		leftStyle = styles.focus
	} else {
		rightStyle = styles.focus
	}

	if m.width > 0 {
		lw := m.width / 3
		leftStyle = leftStyle.Width(lw)
		rightStyle = rightStyle.Width(max(m.width-lw-4, 20))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, leftStyle.Render(left), rightStyle.Render(right))
}

func (m *Model) renderPlaylistPane() string {
	if m.app.Catalog() == nil {
		if m.app.Loading() {
			return loadingText
		}
		return styles.muted.Render(noPlaylistsText)
	}

	visible := m.app.Playlists()
	if len(visible) == 0 {
		if strings.TrimSpace(m.app.Query()) != "" {
			return styles.muted.Render(noMatchesText)
		}
		return styles.muted.Render(noPlaylistsText)
	}

	selected := m.app.SelectedPlaylist()
	lines := make([]string, 0, len(visible))
	for i, p := range visible {
		active := selected != nil && selected.ID == p.ID
		cursor := m.focus == PlaylistPane && i == m.playlistCursor
		lines = append(lines, renderPlaylistEntry(p, active, cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderDetailPane() string {
	p := m.app.SelectedPlaylist()
	if p == nil {
		if m.app.Loading() {
			return loadingText
		}
		return ""
	}

	var b strings.Builder
	b.WriteString(renderDetailHeader(p, m.app.Catalog()))
	b.WriteString("\n\n")

	if len(p.Tracks) == 0 {
		b.WriteString(styles.muted.Render(noTracksText))
		return b.String()
	}

	current := m.app.CurrentRef()
	for i, t := range p.Tracks {
		active := current == p.Ref(t)
		cursor := m.focus == TrackPane && i == m.trackCursor
		b.WriteString(renderTrackRow(t, active, cursor))
		if i < len(p.Tracks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Close cancels any in-flight fetch. The bridge is owned by the caller.
func (m *Model) Close() {
	if m.fetchCancel != nil {
		m.fetchCancel()
	}
}

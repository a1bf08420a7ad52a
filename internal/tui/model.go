// Package tui provides the Bubble Tea live decoding screen.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aditya-nis/EyeTalk/internal/config"
	"github.com/Aditya-nis/EyeTalk/internal/decoder"
	"github.com/Aditya-nis/EyeTalk/internal/drill"
	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
	"github.com/Aditya-nis/EyeTalk/internal/session"
	"github.com/Aditya-nis/EyeTalk/internal/source"
	statsPkg "github.com/Aditya-nis/EyeTalk/internal/stats"
	"github.com/Aditya-nis/EyeTalk/internal/store"
	"github.com/Aditya-nis/EyeTalk/internal/trace"
)

const (
	defaultHistorySize = 5
	drillLength        = 5
	weakWindow         = 20
	weakTop            = 6
	weakFactor         = 3.0
	subscriberBuffer   = 64
	flashDuration      = 120 * time.Millisecond
)

// Options configures the live screen.
type Options struct {
	Config      decoder.Config
	Table       *morse.Table
	Store       *store.Store
	Interval    time.Duration
	QueueSize   int
	RecordPath  string
	Drill       bool
	HistorySize int
	Watcher     *config.Watcher
	Logger      *slog.Logger
}

// Model implements the Bubble Tea decoding UI.
type Model struct {
	opts     Options
	cfg      decoder.Config
	pending  *decoder.Config
	logger   *slog.Logger
	copyText func(string) error

	sess     *session.Session
	sub      <-chan decoder.Event
	toggle   *source.Toggle
	recorder *trace.Writer
	gen      int
	runs     int

	keys      keyMap
	help      help.Model
	theme     theme
	flash     morse.Element
	flashSeq  int
	input     textinput.Model
	prompting bool

	drillGen    *drill.Generator
	drillTarget []string
	drillOffset int
	weakSet     map[string]struct{}

	history   []string
	status    string
	savedText string

	width  int
	height int

	lastLPM    float64
	hasLast    bool
	allLPM     float64
	allUnknown float64
	allCounts  model.Counters
	allMs      int64
}

type eventMsg struct {
	gen   int
	event decoder.Event
	ok    bool
}

type flashDoneMsg struct {
	seq int
}

type reloadMsg config.Reload

type reloadErrMsg struct {
	err error
}

// NewModel constructs the live screen. The first session starts in Init.
func NewModel(opts Options) *Model {
	if opts.Table == nil {
		opts.Table = morse.Default()
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	input := textinput.New()
	input.Placeholder = "H, I, YES"
	input.Prompt = "drill> "
	input.CharLimit = 120

	m := &Model{
		opts:     opts,
		cfg:      opts.Config,
		logger:   logger,
		copyText: clipboard.WriteAll,
		keys:     defaultKeyMap(),
		help:     help.New(),
		theme:    darkTheme(),
		input:    input,
		weakSet:  map[string]struct{}{},
	}
	if opts.Drill {
		m.drillGen = drill.New(opts.Table)
		m.refreshWeakSet()
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startSession(), m.watchConfig())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case eventMsg:
		if msg.gen != m.gen || !msg.ok {
			return m, nil
		}
		flash := m.handleEvent(msg.event)
		return m, tea.Batch(waitForEvent(msg.gen, m.sub), flash)
	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = 0
		}
		return m, nil
	case reloadMsg:
		cfg := msg.Decoder
		m.pending = &cfg
		m.status = "config reloaded; applies to the next session"
		return m, m.watchConfig()
	case reloadErrMsg:
		m.logger.Warn("config reload rejected", "error", msg.err)
		m.status = fmt.Sprintf("config reload rejected: %v", msg.err)
		return m, m.watchConfig()
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.finishSession()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Blink):
		if m.toggle != nil {
			m.toggle.Toggle()
		}
	case key.Matches(msg, m.keys.Pause):
		m.togglePause()
	case key.Matches(msg, m.keys.Clear):
		m.clear()
	case key.Matches(msg, m.keys.Save):
		m.saveTranscript()
	case key.Matches(msg, m.keys.Copy):
		m.copyToClipboard()
	case key.Matches(msg, m.keys.Restart):
		m.finishSession()
		return m, m.startSession()
	case key.Matches(msg, m.keys.Drill):
		m.prompting = true
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Theme):
		m.theme = m.theme.toggled()
		m.status = m.theme.name + " theme"
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.finishSession()
		return m, tea.Quit
	case tea.KeyEsc:
		m.prompting = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.prompting = false
		m.input.Blur()
		m.setDrill(m.input.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	contentWidth := 0
	if m.width > 0 {
		contentWidth = int(float64(m.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
	}
	content := m.renderBody(contentWidth)
	if contentWidth > 0 {
		content = m.theme.base.Width(contentWidth).Render(content)
	} else {
		content = m.theme.base.Render(content)
	}
	footer := m.renderFooter()
	helpView := m.help.View(m.keys)
	if m.width == 0 || m.height == 0 {
		return strings.Join([]string{content, footer, helpView}, "\n")
	}
	reserved := lipgloss.Height(helpView) + 1
	bodyHeight := m.height - reserved
	if bodyHeight < 1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpBlock := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, helpView)
	return body + "\n" + footerLine + "\n" + helpBlock
}

func (m *Model) renderBody(width int) string {
	var lines []string
	if m.sess == nil {
		lines = append(lines, m.theme.paused.Render("NO SESSION"))
	} else {
		snap := m.sess.Snapshot()
		lines = append(lines, m.renderBadges(snap))
		token := snap.Token.String()
		if token == "" {
			token = " "
		}
		lines = append(lines, m.theme.token.Render(token))
		lines = append(lines, wrapCells(buildTextCells(m.theme, snap.Symbols, morse.Unknown), width))
		if len(m.drillTarget) > 0 {
			lines = append(lines, "", m.renderDrill(snap.Symbols, width))
		}
	}
	if m.prompting {
		lines = append(lines, "", m.input.View())
	}
	if len(m.history) > 0 {
		lines = append(lines, "")
		for _, text := range m.history {
			lines = append(lines, m.theme.history.Render(text))
		}
	}
	if m.status != "" {
		lines = append(lines, "", m.theme.footer.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBadges(snap session.Snapshot) string {
	eyes := m.theme.open.Render("EYES OPEN")
	if m.toggle != nil && m.toggle.Closed() {
		eyes = m.theme.closed.Render("EYES CLOSED")
	}
	if m.flash != 0 {
		eyes += " " + m.theme.flash.Render(m.flash.String())
	}
	state := ""
	switch {
	case snap.Paused:
		state = m.theme.paused.Render("PAUSED")
	case !snap.Running:
		state = m.theme.paused.Render("ENDED")
	}
	if state == "" {
		return eyes
	}
	return eyes + " " + state
}

func (m *Model) renderDrill(symbols []string, width int) string {
	decoded := symbols
	if m.drillOffset <= len(decoded) {
		decoded = decoded[m.drillOffset:]
	}
	statuses, _ := drill.Progress(m.drillTarget, decoded)
	return wrapCells(buildPromptCells(m.theme, m.drillTarget, statuses), width)
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.sess != nil {
		counters := m.sess.Snapshot().Counters
		segments = append(segments, fmt.Sprintf("Letters %d · %d dots · %d dashes", counters.Letters, counters.Dots, counters.Dashes))
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f LPM", m.lastLPM))
	}
	segments = append(segments, fmt.Sprintf("All-time %.1f LPM · %.1f%% unknown", m.allLPM, m.allUnknown*100))
	return m.theme.footer.Render(strings.Join(segments, "  "))
}

// handleEvent applies one session event. A classified blink returns a command that ends its
// flash.
func (m *Model) handleEvent(ev decoder.Event) tea.Cmd {
	switch ev.Type {
	case decoder.EventBlink:
		m.flash = ev.Element
		m.flashSeq++
		seq := m.flashSeq
		return tea.Tick(flashDuration, func(time.Time) tea.Msg {
			return flashDoneMsg{seq: seq}
		})
	case decoder.EventLetter:
		m.advanceDrill()
	case decoder.EventNoise:
		m.status = fmt.Sprintf("ignored %s closure", ev.Duration.Round(time.Millisecond))
	case session.EventError:
		m.status = fmt.Sprintf("source error: %s", ev.Message)
	case session.EventEnded:
		if m.status == "" {
			m.status = "session ended"
		}
	}
	return nil
}

func (m *Model) startSession() tea.Cmd {
	if m.pending != nil {
		m.cfg = *m.pending
		m.pending = nil
	}
	m.toggle = source.NewToggle(m.opts.Interval)
	opts := []session.Option{
		session.WithQueueSize(m.opts.QueueSize),
		session.WithLogger(m.logger),
		session.WithNoiseEvents(),
	}
	m.runs++
	if m.opts.RecordPath != "" {
		path := recordPath(m.opts.RecordPath, m.runs)
		w, err := trace.Create(path, m.toggle.Name())
		if err != nil {
			m.logger.Error("failed to create trace", "path", path, "error", err)
			m.status = fmt.Sprintf("recording disabled: %v", err)
		} else {
			m.recorder = w
			opts = append(opts, session.WithRecorder(w))
		}
	}
	sess, err := session.New(m.cfg, m.opts.Table, m.toggle, opts...)
	if err != nil {
		_ = m.toggle.Close()
		m.closeRecorder()
		m.status = fmt.Sprintf("failed to start session: %v", err)
		return nil
	}
	sub := sess.Subscribe(subscriberBuffer)
	if err := sess.Start(context.Background()); err != nil {
		sess.Stop()
		m.closeRecorder()
		m.status = fmt.Sprintf("failed to start session: %v", err)
		return nil
	}
	m.sess = sess
	m.sub = sub
	m.gen++
	m.savedText = ""
	m.drillOffset = 0
	if m.drillGen != nil {
		m.nextPrompt()
	}
	return waitForEvent(m.gen, sub)
}

func (m *Model) finishSession() {
	if m.sess == nil {
		return
	}
	m.sess.Flush()
	text := m.sess.Snapshot().Text
	if m.opts.Store != nil && strings.TrimSpace(text) != "" && text != m.savedText {
		m.saveTranscript()
	}
	m.sess.Stop()
	m.closeRecorder()
	m.sess = nil
	m.sub = nil
	m.toggle = nil
}

func (m *Model) closeRecorder() {
	if m.recorder == nil {
		return
	}
	samples := m.recorder.Count()
	if err := m.recorder.Close(); err != nil {
		m.logger.Warn("failed to close trace", "error", err)
	} else {
		m.logger.Info("trace recorded", "samples", samples)
	}
	m.recorder = nil
}

func (m *Model) togglePause() {
	if m.sess == nil {
		return
	}
	if m.sess.Snapshot().Paused {
		m.sess.Resume()
		m.status = ""
		return
	}
	m.sess.Pause()
	m.status = "paused"
}

func (m *Model) clear() {
	if m.sess == nil {
		return
	}
	text := m.sess.Clear()
	if strings.TrimSpace(text) != "" {
		m.pushHistory(text)
	}
	m.drillOffset = 0
	m.savedText = ""
}

func (m *Model) pushHistory(text string) {
	m.history = append([]string{text}, m.history...)
	if len(m.history) > m.opts.HistorySize {
		m.history = m.history[:m.opts.HistorySize]
	}
}

func (m *Model) saveTranscript() {
	if m.sess == nil {
		return
	}
	rec := m.sess.Transcript()
	switch {
	case strings.TrimSpace(rec.Text) == "":
		m.status = "nothing to save"
		return
	case rec.Text == m.savedText:
		m.status = "already saved"
		return
	case m.opts.Store == nil:
		m.status = "no database configured"
		return
	}
	id, err := m.opts.Store.InsertTranscript(context.Background(), rec, statsPkg.SymbolCounts(rec.Symbols))
	if err != nil {
		m.logger.Error("failed to save transcript", "error", err)
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.logger.Info("transcript saved", "id", id, "letters", rec.Counters.Letters)
	m.savedText = rec.Text
	m.addFooterStats(rec.Counters, rec.EndedAt.Sub(rec.StartedAt).Milliseconds())
	m.status = fmt.Sprintf("saved transcript #%d", id)
	if m.drillGen != nil {
		m.refreshWeakSet()
	}
}

func (m *Model) copyToClipboard() {
	if m.sess == nil {
		return
	}
	text := m.sess.Snapshot().Text
	if strings.TrimSpace(text) == "" {
		m.status = "nothing to copy"
		return
	}
	if err := m.copyText(text); err != nil {
		m.logger.Warn("clipboard copy failed", "error", err)
		m.status = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.status = "copied to clipboard"
}

func (m *Model) setDrill(value string) {
	symbols := statsPkg.ParseSymbolList(value)
	if len(symbols) == 0 {
		m.drillTarget = nil
		m.status = "drill cleared"
		return
	}
	for _, sym := range symbols {
		if _, ok := m.opts.Table.Encode(sym); !ok {
			m.status = fmt.Sprintf("unknown symbol %q", sym)
			return
		}
	}
	m.drillTarget = symbols
	m.markDrillStart()
	m.status = ""
}

func (m *Model) nextPrompt() {
	if len(m.weakSet) > 0 {
		m.drillTarget = m.drillGen.NextWeighted(drillLength, m.weakSet, weakFactor)
	} else {
		m.drillTarget = m.drillGen.Next(drillLength)
	}
	m.markDrillStart()
}

func (m *Model) markDrillStart() {
	m.drillOffset = 0
	if m.sess != nil {
		m.drillOffset = len(m.sess.Snapshot().Symbols)
	}
}

func (m *Model) advanceDrill() {
	if len(m.drillTarget) == 0 || m.sess == nil {
		return
	}
	symbols := m.sess.Snapshot().Symbols
	if m.drillOffset > len(symbols) {
		m.drillOffset = 0
	}
	decoded := symbols[m.drillOffset:]
	if !drill.Complete(m.drillTarget, decoded) {
		return
	}
	_, matched := drill.Progress(m.drillTarget, decoded)
	m.status = fmt.Sprintf("drill %d/%d", matched, len(m.drillTarget))
	if m.drillGen != nil {
		m.nextPrompt()
	} else {
		m.drillTarget = nil
	}
}

func (m *Model) refreshWeakSet() {
	if m.opts.Store == nil || m.drillGen == nil {
		return
	}
	aggs, err := m.opts.Store.RecentSymbolAggregates(context.Background(), weakWindow, "keyboard")
	if err != nil {
		m.logger.Warn("failed to load weak symbols", "error", err)
		return
	}
	if len(aggs) == 0 {
		m.weakSet = map[string]struct{}{}
		return
	}
	m.weakSet = statsPkg.SelectWeakSymbols(aggs, m.drillGen.Symbols(), weakTop)
}

func (m *Model) loadFooterStats() {
	if m.opts.Store == nil {
		return
	}
	transcripts, err := m.opts.Store.ListTranscripts(context.Background(), model.StatsConfig{})
	if err != nil {
		m.logger.Warn("failed to load transcript stats", "error", err)
		return
	}
	for _, t := range transcripts {
		m.addFooterStats(t.Counters, t.DurationMs)
	}
}

func (m *Model) addFooterStats(counters model.Counters, durationMs int64) {
	m.lastLPM, _ = statsPkg.TranscriptMetrics(counters, durationMs)
	m.hasLast = true
	m.allCounts.Letters += counters.Letters
	m.allCounts.Unknown += counters.Unknown
	m.allMs += durationMs
	m.allLPM, m.allUnknown = statsPkg.TranscriptMetrics(m.allCounts, m.allMs)
}

func (m *Model) watchConfig() tea.Cmd {
	if m.opts.Watcher == nil {
		return nil
	}
	return waitForReload(m.opts.Watcher)
}

func waitForEvent(gen int, sub <-chan decoder.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub
		return eventMsg{gen: gen, event: ev, ok: ok}
	}
}

func waitForReload(w *config.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case r, ok := <-w.Reloads():
			if !ok {
				return nil
			}
			return reloadMsg(r)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return reloadErrMsg{err: err}
		}
	}
}

// recordPath numbers traces after the first one: trace.msgpack, trace-2.msgpack, ...
func recordPath(base string, run int) string {
	if run <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), run, ext)
}

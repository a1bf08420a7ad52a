package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aditya-nis/EyeTalk/internal/decoder"
	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
	"github.com/Aditya-nis/EyeTalk/internal/store"
)

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	if opts.Config == (decoder.Config{}) {
		opts.Config = decoder.DefaultConfig()
	}
	m := NewModel(opts)
	if cmd := m.startSession(); cmd == nil {
		t.Fatalf("expected session to start: %s", m.status)
	}
	t.Cleanup(m.finishSession)
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSpaceTogglesEyes(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.toggle.Closed() {
		t.Fatalf("expected eyes closed after space")
	}
	if !strings.Contains(m.View(), "EYES CLOSED") {
		t.Fatalf("expected closed badge in view:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.toggle.Closed() {
		t.Fatalf("expected eyes open after second space")
	}
}

func TestPauseResume(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Update(runeKey('p'))
	if !m.sess.Snapshot().Paused {
		t.Fatalf("expected paused session")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Fatalf("expected paused badge")
	}
	m.Update(runeKey('p'))
	if m.sess.Snapshot().Paused {
		t.Fatalf("expected resumed session")
	}
}

func TestRestartStartsNewSession(t *testing.T) {
	m := newTestModel(t, Options{})
	first := m.sess
	gen := m.gen
	_, cmd := m.Update(runeKey('n'))
	if cmd == nil {
		t.Fatalf("expected event listener for the new session")
	}
	if m.sess == first || m.gen != gen+1 {
		t.Fatalf("expected a fresh session")
	}
	select {
	case <-first.Done():
	default:
		t.Fatalf("previous session should be stopped")
	}
}

func TestRestartAppliesReloadedConfig(t *testing.T) {
	m := newTestModel(t, Options{})
	cfg := decoder.DefaultConfig()
	cfg.LetterPause = 1500 * time.Millisecond
	m.Update(reloadMsg{Decoder: cfg})
	if m.sess.Config().LetterPause == cfg.LetterPause {
		t.Fatalf("reload should not touch the running session")
	}
	m.Update(runeKey('n'))
	if m.sess.Config().LetterPause != cfg.LetterPause {
		t.Fatalf("expected reloaded config on the next session, got %v", m.sess.Config())
	}
}

func TestStaleEventsAreIgnored(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := m.Update(eventMsg{gen: m.gen - 1, ok: true, event: decoder.Event{Type: decoder.EventLetter}})
	if cmd != nil {
		t.Fatalf("stale events should not re-subscribe")
	}
	_, cmd = m.Update(eventMsg{gen: m.gen, ok: true, event: decoder.Event{Type: decoder.EventBlink}})
	if cmd == nil {
		t.Fatalf("current events should keep listening")
	}
}

func TestPushHistoryKeepsNewest(t *testing.T) {
	m := NewModel(Options{Config: decoder.DefaultConfig(), HistorySize: 2})
	m.pushHistory("ONE")
	m.pushHistory("TWO")
	m.pushHistory("THREE")
	if len(m.history) != 2 || m.history[0] != "THREE" || m.history[1] != "TWO" {
		t.Fatalf("unexpected history %q", m.history)
	}
}

func TestCopyAndSaveWithEmptyText(t *testing.T) {
	m := newTestModel(t, Options{})
	copied := ""
	m.copyText = func(text string) error {
		copied = text
		return nil
	}
	m.Update(runeKey('y'))
	if copied != "" || m.status != "nothing to copy" {
		t.Fatalf("unexpected copy result %q status %q", copied, m.status)
	}
	m.Update(runeKey('s'))
	if m.status != "nothing to save" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestSaveKeepsLetterInProgress(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "eyetalk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := newTestModel(t, Options{Store: st, Interval: 5 * time.Millisecond})

	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	m.Update(space)
	time.Sleep(150 * time.Millisecond)
	m.Update(space)
	deadline := time.Now().Add(time.Second)
	for m.sess.Snapshot().Token.String() != "." {
		if time.Now().After(deadline) {
			t.Fatalf("expected a pending dot, got %q", m.sess.Snapshot().Token.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Update(runeKey('s'))
	snap := m.sess.Snapshot()
	if snap.Token.String() != "." || snap.Text != "" {
		t.Fatalf("save should not resolve the pending letter: token %q text %q", snap.Token.String(), snap.Text)
	}
	if m.status != "nothing to save" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestDrillPromptEntry(t *testing.T) {
	m := newTestModel(t, Options{Table: morse.Default()})
	m.Update(runeKey('d'))
	if !m.prompting {
		t.Fatalf("expected drill prompt")
	}
	for _, r := range "H, YES" {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.prompting {
		t.Fatalf("prompt should close on enter")
	}
	if len(m.drillTarget) != 2 || m.drillTarget[0] != "H" || m.drillTarget[1] != "YES" {
		t.Fatalf("unexpected drill target %q", m.drillTarget)
	}
	if !strings.Contains(m.View(), "YES") {
		t.Fatalf("expected drill prompt in view")
	}

	m.setDrill("H, NOPE")
	if !strings.Contains(m.status, "NOPE") {
		t.Fatalf("expected unknown symbol status, got %q", m.status)
	}
	if len(m.drillTarget) != 2 {
		t.Fatalf("invalid drill should keep the previous target")
	}
}

func TestDrillModeLoadsStoreStats(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "eyetalk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	start := time.Unix(0, 0)
	rec := model.TranscriptRecord{
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		Source:    "keyboard",
		Text:      "HI",
		Symbols:   []string{"H", "I"},
		Counters:  model.Counters{Letters: 6},
	}
	if _, err := st.InsertTranscript(context.Background(), rec, []model.SymbolStats{{Symbol: "H", Count: 1}, {Symbol: "I", Count: 1}}); err != nil {
		t.Fatalf("insert transcript: %v", err)
	}

	m := newTestModel(t, Options{Store: st, Drill: true})
	if !m.hasLast || m.lastLPM != 6 {
		t.Fatalf("expected footer stats from store, got %+v", m.lastLPM)
	}
	if len(m.weakSet) != weakTop {
		t.Fatalf("expected %d weak symbols, got %v", weakTop, m.weakSet)
	}
	if _, ok := m.weakSet["H"]; ok {
		t.Fatalf("practiced symbol should not be weak")
	}
	if len(m.drillTarget) != drillLength {
		t.Fatalf("expected a drill prompt, got %q", m.drillTarget)
	}
}

func TestRecordPath(t *testing.T) {
	if got := recordPath("/tmp/run.msgpack", 1); got != "/tmp/run.msgpack" {
		t.Fatalf("unexpected first path %q", got)
	}
	if got := recordPath("/tmp/run.msgpack", 3); got != "/tmp/run-3.msgpack" {
		t.Fatalf("unexpected numbered path %q", got)
	}
}

func TestRecordingWritesTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "run.msgpack")
	m := newTestModel(t, Options{RecordPath: path, Interval: 5 * time.Millisecond})
	if m.recorder == nil {
		t.Fatalf("expected recorder: %s", m.status)
	}
	time.Sleep(30 * time.Millisecond)
	m.finishSession()
	if m.recorder != nil {
		t.Fatalf("recorder should be closed with the session")
	}
}

func TestNoiseEventShowsDebounceStatus(t *testing.T) {
	m := newTestModel(t, Options{})
	m.Update(eventMsg{gen: m.gen, ok: true, event: decoder.Event{Type: decoder.EventNoise, Duration: 42 * time.Millisecond}})
	if m.status != "ignored 42ms closure" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestBlinkFlashesUntilExpired(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := m.Update(eventMsg{gen: m.gen, ok: true, event: decoder.Event{Type: decoder.EventBlink, Element: morse.Dash}})
	if cmd == nil {
		t.Fatalf("expected flash timer and event listener")
	}
	if m.flash != morse.Dash || !strings.Contains(m.View(), " - ") {
		t.Fatalf("expected dash flash in view:\n%s", m.View())
	}
	first := m.flashSeq

	m.Update(eventMsg{gen: m.gen, ok: true, event: decoder.Event{Type: decoder.EventBlink, Element: morse.Dot}})
	m.Update(flashDoneMsg{seq: first})
	if m.flash != morse.Dot {
		t.Fatalf("an older timer should not end the newer flash")
	}
	m.Update(flashDoneMsg{seq: m.flashSeq})
	if m.flash != 0 {
		t.Fatalf("expected flash to end, got %q", m.flash)
	}
}

func TestThemeToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.theme.name != "dark" {
		t.Fatalf("expected dark theme by default, got %q", m.theme.name)
	}
	m.Update(runeKey('t'))
	if m.theme.name != "light" || m.status != "light theme" {
		t.Fatalf("expected light theme, got %q status %q", m.theme.name, m.status)
	}
	m.Update(runeKey('t'))
	if m.theme.name != "dark" {
		t.Fatalf("expected dark theme again, got %q", m.theme.name)
	}
}

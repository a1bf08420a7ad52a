// Package main provides the CLI entrypoint for eyetalk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Aditya-nis/EyeTalk/internal/config"
	"github.com/Aditya-nis/EyeTalk/internal/decoder"
	"github.com/Aditya-nis/EyeTalk/internal/export"
	"github.com/Aditya-nis/EyeTalk/internal/logging"
	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
	"github.com/Aditya-nis/EyeTalk/internal/session"
	"github.com/Aditya-nis/EyeTalk/internal/source"
	"github.com/Aditya-nis/EyeTalk/internal/stats"
	"github.com/Aditya-nis/EyeTalk/internal/store"
	"github.com/Aditya-nis/EyeTalk/internal/trace"
	"github.com/Aditya-nis/EyeTalk/internal/tui"
)

const (
	defaultCurveWindow  = 20
	defaultHistoryLimit = 5
	defaultTermWidth    = 80
	defaultTopSymbols   = 3
)

var (
	decShort       time.Duration
	decLong        time.Duration
	decLetterPause time.Duration
	decWordPause   time.Duration

	liveRecord   string
	liveDrill    bool
	liveInterval time.Duration

	replayEvents bool
	replaySave   bool
	replayPace   float64
	replayToCSV  string

	tableReference bool

	statsSource      string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsSymbols     string

	historyLimit int

	exportFormat string
	exportOut    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "eyetalk",
		Short:         "Decode blinks into Morse symbols",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runLiveCmd,
	}

	defaults := decoder.DefaultConfig()
	rootCmd.PersistentFlags().DurationVar(&decShort, "short", defaults.ShortBlinkMin, "closures at or below this are ignored")
	rootCmd.PersistentFlags().DurationVar(&decLong, "long", defaults.LongBlinkMin, "closures at or above this are dashes")
	rootCmd.PersistentFlags().DurationVar(&decLetterPause, "letter-pause", defaults.LetterPause, "open-eye gap that ends a letter")
	rootCmd.PersistentFlags().DurationVar(&decWordPause, "word-pause", defaults.WordPause, "open-eye gap that adds a word space")

	rootCmd.Flags().StringVar(&liveRecord, "record", "", "write every sample to this trace file")
	rootCmd.Flags().BoolVar(&liveDrill, "drill", false, "show practice prompts")
	rootCmd.Flags().DurationVar(&liveInterval, "sample-interval", source.DefaultInterval, "keyboard sampling cadence")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

type appConfig struct {
	file    config.FileConfig
	decoder decoder.Config
	table   *morse.Table
}

func loadAppConfig(cmd *cobra.Command) (appConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return appConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyDurationConfig(cmd, "short", &decShort, fileCfg.Decoder.ShortBlink); err != nil {
		return appConfig{}, err
	}
	if err := applyDurationConfig(cmd, "long", &decLong, fileCfg.Decoder.LongBlink); err != nil {
		return appConfig{}, err
	}
	if err := applyDurationConfig(cmd, "letter-pause", &decLetterPause, fileCfg.Decoder.LetterPause); err != nil {
		return appConfig{}, err
	}
	if err := applyDurationConfig(cmd, "word-pause", &decWordPause, fileCfg.Decoder.WordPause); err != nil {
		return appConfig{}, err
	}
	decCfg := decoder.Config{
		ShortBlinkMin: decShort,
		LongBlinkMin:  decLong,
		LetterPause:   decLetterPause,
		WordPause:     decWordPause,
	}
	if err := decCfg.Validate(); err != nil {
		return appConfig{}, err
	}
	table, err := buildTable(fileCfg.Table)
	if err != nil {
		return appConfig{}, err
	}
	return appConfig{file: fileCfg, decoder: decCfg, table: table}, nil
}

func buildTable(cfg config.TableConfig) (*morse.Table, error) {
	table := morse.Default()
	if cfg.Letters != nil && !*cfg.Letters {
		table = morse.Reference()
	}
	if cfg.Extra == nil || strings.TrimSpace(*cfg.Extra) == "" {
		return table, nil
	}
	entries, err := morse.LoadEntries(*cfg.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbol table: %w", err)
	}
	extended, err := table.Extend(entries...)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbol table: %w", err)
	}
	return extended, nil
}

func openLogger(fileCfg config.FileConfig, component string) *logging.Logger {
	level := logging.LevelInfo
	if fileCfg.Log.Level != nil {
		parsed, err := logging.ParseLevel(*fileCfg.Log.Level)
		if err != nil {
			logErrf("ignoring log level: %v\n", err)
		} else {
			level = parsed
		}
	}
	path := config.DefaultLogPath()
	if fileCfg.Log.File != nil && strings.TrimSpace(*fileCfg.Log.File) != "" {
		path = *fileCfg.Log.File
	}
	logger, err := logging.New(logging.Config{Level: level, FilePath: path, Component: component})
	if err != nil {
		logErrf("logging disabled: %v\n", err)
		return logging.Discard()
	}
	return logger
}

func closeLogger(logger *logging.Logger) {
	if cerr := logger.Close(); cerr != nil {
		logErrf("failed to close log: %v\n", cerr)
	}
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func runLiveCmd(cmd *cobra.Command, _ []string) error {
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyDurationConfig(cmd, "sample-interval", &liveInterval, app.file.Session.SampleInterval); err != nil {
		return err
	}
	applyBoolConfig(cmd, "drill", &liveDrill, app.file.Session.Drill)
	if liveInterval <= 0 {
		return fmt.Errorf("--sample-interval must be > 0")
	}
	recordPath := liveRecord
	if recordPath == "" && app.file.Session.Record != nil && *app.file.Session.Record {
		recordPath = filepath.Join(config.DefaultTraceDir(), time.Now().Format("20060102-150405")+".msgpack")
	}
	queueSize := session.DefaultQueueSize
	if app.file.Session.QueueSize != nil {
		queueSize = *app.file.Session.QueueSize
	}
	historySize := 0
	if app.file.Session.History != nil {
		historySize = *app.file.Session.History
	}

	logger := openLogger(app.file, "eyetalk")
	defer closeLogger(logger)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	var watcher *config.Watcher
	if w, err := config.Watch(config.DefaultConfigPath(), app.decoder); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		watcher = w
		defer func() {
			if cerr := watcher.Close(); cerr != nil {
				logger.Warn("failed to stop config watcher", "error", cerr)
			}
		}()
	}

	m := tui.NewModel(tui.Options{
		Config:      app.decoder,
		Table:       app.table,
		Store:       st,
		Interval:    liveInterval,
		QueueSize:   queueSize,
		RecordPath:  recordPath,
		Drill:       liveDrill,
		HistorySize: historySize,
		Watcher:     watcher,
		Logger:      logger.WithComponent("tui"),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if _, err := config.EnsureFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Decode a recorded .msgpack or .csv trace",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().BoolVar(&replayEvents, "events", false, "print decoder events")
	cmd.Flags().BoolVar(&replaySave, "save", false, "store the transcript")
	cmd.Flags().Float64Var(&replayPace, "pace", 0, "replay speed factor (0 decodes as fast as possible)")
	cmd.Flags().StringVar(&replayToCSV, "to-csv", "", "also write the trace as a seconds,eyes CSV file")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}
	tr, err := trace.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	if replayToCSV != "" {
		err := writeFileAtomic(replayToCSV, "trace-*", func(w io.Writer) error {
			return trace.EncodeCSV(w, tr.Samples)
		})
		if err != nil {
			return err
		}
		logErrf("Wrote %d samples to %s\n", len(tr.Samples), replayToCSV)
	}

	logger := openLogger(app.file, "replay")
	defer closeLogger(logger)

	rec, err := replayTrace(cmd.Context(), cmd.OutOrStdout(), tr, app, logger)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if !replaySave {
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	id, err := st.InsertTranscript(context.Background(), rec, stats.SymbolCounts(rec.Symbols))
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	logErrf("Saved transcript #%d\n", id)
	return nil
}

func replayTrace(ctx context.Context, out io.Writer, tr trace.Trace, app appConfig, logger *logging.Logger) (model.TranscriptRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var srcOpts []source.ReplayOption
	if replayPace > 0 {
		srcOpts = append(srcOpts, source.WithPacing(replayPace))
	}
	src := source.NewReplay(tr, srcOpts...)
	opts := []session.Option{session.WithLogger(logger.WithComponent("session"))}
	if replayEvents {
		opts = append(opts, session.WithNoiseEvents(), session.WithEventSink(func(ev decoder.Event) {
			if _, err := fmt.Fprintln(out, describeEvent(tr.StartedAt, ev)); err != nil {
				logger.Warn("failed to print event", "error", err)
			}
		}))
	}
	sess, err := session.New(app.decoder, app.table, src, opts...)
	if err != nil {
		return model.TranscriptRecord{}, err
	}

	if err := sess.Start(ctx); err != nil {
		return model.TranscriptRecord{}, err
	}
	<-sess.Done()
	if err := sess.Err(); err != nil {
		return model.TranscriptRecord{}, fmt.Errorf("replay failed: %w", err)
	}

	rec := sess.Transcript()
	if len(tr.Samples) > 0 {
		rec.StartedAt, rec.EndedAt = transcriptSpan(tr, time.Now())
	}
	return rec, nil
}

// transcriptSpan anchors a replayed transcript on its samples. Offset-only traces end now.
func transcriptSpan(tr trace.Trace, now time.Time) (time.Time, time.Time) {
	if tr.HasWallClock() {
		return tr.Samples[0].At, tr.Samples[len(tr.Samples)-1].At
	}
	return now.Add(-tr.Duration()), now
}

func describeEvent(start time.Time, ev decoder.Event) string {
	offset := ""
	if !start.IsZero() && !ev.At.IsZero() && !ev.At.Before(start) {
		offset = fmt.Sprintf("%8.3fs ", ev.At.Sub(start).Seconds())
	}
	switch ev.Type {
	case decoder.EventBlink:
		return fmt.Sprintf("%sblink %s %s", offset, ev.Element, ev.Duration)
	case decoder.EventNoise:
		return fmt.Sprintf("%snoise %s", offset, ev.Duration)
	case decoder.EventLetter:
		return fmt.Sprintf("%sletter %s %s", offset, ev.Symbol, ev.Code)
	case decoder.EventWordSpace:
		return offset + "word space"
	case session.EventError:
		return fmt.Sprintf("%serror %s", offset, ev.Message)
	default:
		return offset + string(ev.Type)
	}
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the symbol table",
		Args:  cobra.NoArgs,
		RunE:  runTableCmd,
	}
	cmd.Flags().BoolVar(&tableReference, "reference", false, "print only pictograms, words and digits")
	return cmd
}

func runTableCmd(cmd *cobra.Command, _ []string) error {
	table := morse.Reference()
	if !tableReference {
		app, err := loadAppConfig(cmd)
		if err != nil {
			return err
		}
		table = app.table
	}
	if err := stats.RenderCodes(cmd.OutOrStdout(), table); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSource, "source", "", "source filter (keyboard, replay:<name>)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N transcripts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsSymbols, "symbol", "", "comma-separated symbols for per-symbol curves")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	app, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}

	cfg := model.StatsConfig{
		Source:      statsSource,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Symbols:     statsSymbols,
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return renderStats(cmd.OutOrStdout(), report, app.table, cfg.CurveWindow, terminalWidth())
}

func renderStats(w io.Writer, report stats.Report, table *morse.Table, window, width int) error {
	if err := stats.RenderSummary(w, report.Transcripts); err != nil {
		return err
	}
	if len(report.Transcripts) == 0 {
		return nil
	}
	if err := stats.RenderSymbolTable(w, "Symbols (all)", report.SymbolAggsAll, table); err != nil {
		return err
	}
	if len(report.WindowTranscriptIDs) < len(report.Transcripts) {
		title := fmt.Sprintf("Symbols (last %d)", len(report.WindowTranscriptIDs))
		if err := stats.RenderSymbolTable(w, title, report.SymbolAggsWindow, table); err != nil {
			return err
		}
	}
	curveWidth := stats.CurveWidthFor(width)
	if err := stats.RenderCurve(w, report.Transcripts, window, curveWidth); err != nil {
		return err
	}
	symbols := report.Symbols
	if len(symbols) == 0 {
		symbols = stats.TopSymbolsByFrequency(report.SymbolAggsAll, defaultTopSymbols)
	}
	return stats.RenderSymbolCurves(w, report.Transcripts, report.PerTranscript, symbols, window, curveWidth)
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transcripts",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of transcripts")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	transcripts, err := st.RecentTranscripts(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list transcripts: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), transcripts)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id|latest>",
		Short: "Export a transcript as txt or json",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", string(export.FormatText), "txt or json")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	transcript, err := findTranscript(context.Background(), st, args[0])
	if err != nil {
		return err
	}
	doc := export.FromTranscript(transcript)
	if exportOut == "" {
		return export.Write(cmd.OutOrStdout(), format, doc)
	}
	if err := writeExport(exportOut, format, doc); err != nil {
		return err
	}
	logErrf("Wrote %s\n", exportOut)
	return nil
}

func findTranscript(ctx context.Context, st *store.Store, ref string) (model.TranscriptAggregate, error) {
	var (
		transcript model.TranscriptAggregate
		err        error
	)
	if strings.EqualFold(ref, "latest") {
		transcript, err = st.LatestTranscript(ctx)
	} else {
		id, perr := strconv.ParseInt(ref, 10, 64)
		if perr != nil {
			return model.TranscriptAggregate{}, fmt.Errorf("invalid transcript id %q (want a number or latest)", ref)
		}
		transcript, err = st.GetTranscript(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return model.TranscriptAggregate{}, fmt.Errorf("no transcript %q; run: eyetalk history", ref)
	}
	if err != nil {
		return model.TranscriptAggregate{}, fmt.Errorf("failed to load transcript: %w", err)
	}
	return transcript, nil
}

func writeExport(path string, format export.Format, doc export.Document) error {
	return writeFileAtomic(path, "export-*", func(w io.Writer) error {
		return export.Write(w, format, doc)
	})
}

func writeFileAtomic(path, pattern string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, _, err := config.ParseDuration(name, value)
	if err != nil {
		return err
	}
	*target = d
	return nil
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

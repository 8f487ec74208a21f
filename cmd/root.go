package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fragmede/threadgrab/internal/api"
	"github.com/fragmede/threadgrab/internal/config"
	"github.com/fragmede/threadgrab/internal/logging"
	"github.com/fragmede/threadgrab/internal/pipeline"
	"github.com/fragmede/threadgrab/internal/render"
	"github.com/fragmede/threadgrab/internal/resolve"
	"github.com/fragmede/threadgrab/internal/thread"
	"github.com/fragmede/threadgrab/internal/ui"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

type flags struct {
	save      string
	stdout    bool
	format    string
	max       int
	sort      string
	filter    string
	workers   int
	rpm       float64
	noProg    bool
	verbose   bool
	logFile   bool
	logPath   string
	wrapWidth int
	from      string
}

var rootCmd = newRootCmd()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ui.ErrCanceled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(exitInterrupted)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "threadgrab [flags] <url>",
		Short: "Download a whole discussion thread, expanding every collapsed reply",
		Long: `threadgrab fetches a thread, follows every "load more replies" stub
concurrently, and writes the reconstructed comment tree as plain text,
HTML, JSON or a SQLite database.

Sort keys: default, rand, upvotes, upvotes-asc, comments, comments-asc,
new, old, edited, edited-asc.

Filters: upvotes>N, replies<=N, author=NAME, author!=NAME, edited,
not-edited (operators: = == != < <= > >=).

With --from, the thread is read back from a previous sqlite export
instead of being fetched, so it can be filtered, sorted and written in
another format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd, cfg, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.save, "save", "s", "", "save path (default output.<format extension>)")
	fl.BoolVarP(&f.stdout, "output", "o", false, "write to stdout instead of a file")
	fl.StringVarP(&f.format, "format", "f", "default", "output format: default/d, html/h, json/j, sqlite/db")
	fl.IntVarP(&f.max, "max", "m", 0, "maximum number of comments to fetch (min 2, 0 for no limit)")
	fl.StringVar(&f.sort, "sort", "default", "sort order")
	fl.StringVar(&f.filter, "filter", "", "keep only matching comments and their ancestors")
	fl.IntVarP(&f.workers, "workers", "j", 0, "concurrent stub fetches (default number of CPUs)")
	fl.Float64Var(&f.rpm, "rpm", 0, "pace requests to this many per minute (0 for unpaced)")
	fl.BoolVar(&f.noProg, "no-progress", false, "disable the progress display")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fl.BoolVar(&f.logFile, "log-file", false, "also write a JSON log to the log path")
	fl.StringVar(&f.logPath, "log-path", "", "log file location (default under the config dir)")
	fl.IntVar(&f.wrapWidth, "wrap", 0, "word-wrap plain text at this width")
	fl.StringVar(&f.from, "from", "", "read the thread from this sqlite export instead of fetching it")
	return cmd
}

// buildConfig layers defaults, THREADGRAB_* variables, then explicit
// flags.
func buildConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.FromEnv(config.Default())
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()

	if fl.Changed("format") {
		format, err := config.ParseFormat(f.format)
		if err != nil {
			return cfg, err
		}
		cfg.SetFormat(format)
	}
	if fl.Changed("save") {
		cfg.SavePath = f.save
	}
	if fl.Changed("output") {
		cfg.ToStdout = f.stdout
	}
	if fl.Changed("max") {
		cfg.MaxNodes = f.max
		if f.max > 0 {
			cfg.MaxNodes = max(f.max, config.MinNodes)
		}
	}
	if fl.Changed("sort") {
		cfg.Sort = f.sort
	}
	if fl.Changed("filter") {
		cfg.Filter = f.filter
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("rpm") {
		cfg.RequestsPerMinute = f.rpm
	}
	if fl.Changed("log-path") {
		cfg.LogPath = f.logPath
	}
	if f.noProg {
		cfg.Progress = false
	}
	cfg.Verbose = f.verbose

	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, cfg config.Config, f flags, rawURL string) error {
	filter, err := thread.ParseFilter(cfg.Filter)
	if err != nil {
		return err
	}
	sort, err := thread.ParseSort(cfg.Sort)
	if err != nil {
		return err
	}
	formatter, err := render.New(cfg.Format)
	if err != nil {
		return err
	}
	if p, ok := formatter.(render.Plain); ok {
		p.Width = f.wrapWidth
		formatter = p
	}

	stderr := cmd.ErrOrStderr()
	showProgress := cfg.Progress && !cfg.Verbose && f.from == "" && isTerminal(stderr)

	level := new(slog.LevelVar)
	switch {
	case cfg.Verbose:
		level.Set(slog.LevelDebug)
	case showProgress:
		// Records would tear the progress display; the display shows
		// failures itself and the summary repeats them.
		level.Set(slog.LevelError)
	}
	handlers := logging.Fanout{logging.New(stderr, level, isTerminal(stderr)).Handler()}
	if f.logFile {
		fileLog, file, err := logging.NewFile(cfg.LogPath, slog.LevelDebug)
		if err != nil {
			return err
		}
		defer file.Close()
		handlers = append(handlers, fileLog.Handler())
	}
	logger, runID := logging.WithRun(slog.New(handlers))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client := api.NewClient(api.Options{
		Timeout:           cfg.RequestTimeout,
		Retries:           cfg.Retries,
		UserAgent:         cfg.UserAgent,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
		Logger:            logger,
	})

	var res *pipeline.Result
	job := func(ctx context.Context, r ui.Reporter) error {
		var err error
		res, err = pipeline.Run(ctx, client, pipeline.Options{
			URL:        rawURL,
			MaxNodes:   cfg.MaxNodes,
			Workers:    cfg.Workers,
			Filter:     filter,
			Sort:       sort,
			Logger:     logger,
			OnProgress: r.Progress,
			OnStatus:   r.Status,
		})
		return err
	}

	start := time.Now()
	switch {
	case f.from != "":
		var exportRun string
		res, exportRun, err = fromExport(f.from, rawURL, filter, sort)
		if exportRun != "" {
			runID = exportRun
		}
	case showProgress:
		url, _ := api.ParseThreadURL(rawURL)
		err = ui.Run(ctx, stderr, url, job)
		level.Set(slog.LevelInfo)
	default:
		err = job(ctx, ui.Reporter{
			Progress: func(p resolve.Progress) { logger.Debug("progress", "status", p.String()) },
			Status:   func(text string, _ bool) { logger.Debug("status", "phase", text) },
		})
	}
	if err != nil {
		return err
	}

	doc := render.Document{
		Source:           res.BaseURL,
		RunID:            runID,
		Forest:           res.Forest,
		DeclaredComments: res.DeclaredComments,
		FetchedAt:        time.Now(),
	}
	written, err := write(cmd.OutOrStdout(), cfg, formatter, doc)
	if err != nil {
		return err
	}

	logger.Info("done",
		"kept", res.Kept,
		"fetched", res.Fetched,
		"stubs", res.Report.Stubs,
		"failed", res.Report.Failed,
		"elapsed", resolve.FormatDuration(time.Since(start)))
	dest := cfg.SavePath
	if cfg.ToStdout {
		dest = "stdout"
	}
	printSummary(stderr, res, dest, written, time.Since(start))
	return nil
}

// printSummary reports what was written and every shortfall of the run:
// failed stubs and a fetched count that differs from the declared one.
func printSummary(w io.Writer, res *pipeline.Result, dest string, written int64, elapsed time.Duration) {
	fmt.Fprintf(w, "Wrote %s comments (%s) to %s in %s\n",
		humanize.Comma(int64(res.Kept)), humanize.Bytes(uint64(written)), dest, resolve.FormatDuration(elapsed))
	if res.Report.Failed > 0 {
		fmt.Fprintf(w, "%s of %s stubs could not be resolved\n",
			humanize.Comma(int64(res.Report.Failed)), humanize.Comma(int64(res.Report.Stubs)))
	}
	switch missing := res.Missing(); {
	case missing > 0:
		fmt.Fprintf(w, "%s declared comments were not returned by the provider\n", humanize.Comma(missing))
	case missing < 0:
		fmt.Fprintf(w, "%s more comments were returned than the post declared\n", humanize.Comma(-missing))
	}
}

// fromExport reads the thread for rawURL back from a sqlite export and
// filters and sorts it like a fetched one. It also returns the run id
// the export was written with.
func fromExport(path, rawURL string, filter thread.FilterSpec, sort thread.SortSpec) (*pipeline.Result, string, error) {
	url, base := api.ParseThreadURL(rawURL)
	doc, err := render.Load(path, base)
	if err != nil {
		return nil, "", err
	}
	res := &pipeline.Result{
		URL:              url,
		BaseURL:          base,
		Fetched:          thread.Count(doc.Forest),
		DeclaredComments: doc.DeclaredComments,
	}
	filtered, ok := thread.Filter(doc.Forest, filter)
	if !ok || len(filtered) == 0 {
		return nil, "", pipeline.ErrNothingSurvived
	}
	res.Forest = thread.Sort(filtered, sort, nil)
	res.Kept = thread.Count(res.Forest)
	return res, doc.RunID, nil
}

// write renders doc to stdout or to the configured file and returns the
// number of bytes written.
func write(stdout io.Writer, cfg config.Config, formatter render.Formatter, doc render.Document) (int64, error) {
	if cfg.ToStdout {
		cw := &countingWriter{w: stdout}
		err := formatter.Format(cw, doc)
		return cw.n, err
	}

	if cfg.Format == config.FormatSQLite {
		if err := render.Export(cfg.SavePath, doc); err != nil {
			return 0, err
		}
		info, err := os.Stat(cfg.SavePath)
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}

	file, err := os.Create(cfg.SavePath)
	if err != nil {
		return 0, fmt.Errorf("creating output: %w", err)
	}
	cw := &countingWriter{w: file}
	if err := formatter.Format(cw, doc); err != nil {
		file.Close()
		return cw.n, fmt.Errorf("writing %s: %w", cfg.SavePath, err)
	}
	return cw.n, file.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && logging.IsTerminal(f)
}

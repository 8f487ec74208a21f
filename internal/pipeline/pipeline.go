// Package pipeline runs one thread download from the root fetch to the
// sorted forest handed to a formatter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/fragmede/threadgrab/internal/api"
	"github.com/fragmede/threadgrab/internal/resolve"
	"github.com/fragmede/threadgrab/internal/thread"
)

var (
	// ErrEmptyThread means the root payload decoded to no nodes.
	ErrEmptyThread = errors.New("thread has no posts or comments")
	// ErrNothingSurvived means the filter removed every node.
	ErrNothingSurvived = errors.New("nothing survived filtering")
)

type Options struct {
	// URL is the thread URL as the user typed it.
	URL string
	// MaxNodes is the node budget; zero means unlimited.
	MaxNodes int
	Workers  int
	Filter   thread.FilterSpec
	Sort     thread.SortSpec
	// Rand drives the random sort. Nil uses the global source.
	Rand       *rand.Rand
	Logger     *slog.Logger
	OnProgress func(resolve.Progress)
	// OnStatus receives a short description of each phase, and of stub
	// failures with isError set.
	OnStatus func(text string, isError bool)
}

type Result struct {
	URL     string
	BaseURL string
	Forest  []*thread.Node
	Report  resolve.Report

	// Fetched is the number of nodes before filtering.
	Fetched int
	// Kept is the number of nodes in Forest.
	Kept int
	// DeclaredComments is the post's num_comments, zero if absent.
	DeclaredComments int64
}

// Missing returns how many comments the provider declared but the run did
// not fetch. It is negative when more were fetched than declared.
func (r *Result) Missing() int64 {
	if r.DeclaredComments == 0 {
		return 0
	}
	// The post itself is not a comment.
	return r.DeclaredComments - int64(r.Fetched-1)
}

// Run fetches the thread, resolves every stub, then filters and sorts.
// When ctx is cancelled during resolution Run returns the partial result
// along with the context's error.
func Run(ctx context.Context, f resolve.Fetcher, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	status := opts.OnStatus
	if status == nil {
		status = func(string, bool) {}
	}

	url, base := api.ParseThreadURL(opts.URL)
	res := &Result{URL: url, BaseURL: base}
	logger.Debug("fetching thread", "url", url)
	status("fetching thread", false)

	body, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching thread: %w", err)
	}

	st := thread.NewRunState(opts.MaxNodes)
	forest, err := thread.BuildForest(body, st)
	if err != nil {
		return nil, fmt.Errorf("decoding thread: %w", err)
	}
	if len(forest) == 0 {
		return nil, ErrEmptyThread
	}
	logger.Debug("thread decoded", "nodes", st.Count(), "stubs", st.Registered())
	if n := st.Registered(); n > 0 {
		status(fmt.Sprintf("resolving %d stubs", n), false)
	}

	tree := resolve.NewTree(forest, st)
	r := resolve.New(f, tree, st, resolve.Options{
		BaseURL:    base,
		Workers:    opts.Workers,
		Logger:     logger,
		OnProgress: opts.OnProgress,
	})
	res.Report, err = r.Run(ctx)
	forest = tree.Nodes()
	res.Fetched = thread.Count(forest)
	res.DeclaredComments = st.DeclaredComments()
	if err != nil {
		res.Forest, res.Kept = forest, res.Fetched
		return res, fmt.Errorf("resolving stubs: %w", err)
	}

	if res.Report.Failed > 0 {
		logger.Warn("some stubs could not be resolved", "failed", res.Report.Failed, "stubs", res.Report.Stubs)
		status(fmt.Sprintf("%d of %d stubs failed", res.Report.Failed, res.Report.Stubs), true)
	}
	if missing := res.Missing(); missing != 0 {
		logger.Info("comment count differs from declared",
			"declared", res.DeclaredComments, "fetched", res.Fetched-1, "difference", missing)
	}

	status("filtering", false)
	filtered, ok := thread.Filter(forest, opts.Filter)
	if !ok || len(filtered) == 0 {
		return res, ErrNothingSurvived
	}

	res.Forest = thread.Sort(filtered, opts.Sort, opts.Rand)
	res.Kept = thread.Count(res.Forest)
	logger.Debug("thread ready", "kept", res.Kept, "depth", thread.MaxDepth(res.Forest), "filter", opts.Filter, "sort", opts.Sort)
	return res, nil
}

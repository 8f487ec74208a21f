// Package resolve expands the "more" stubs of a decoded thread. Stub
// fetches run concurrently on a bounded pool and every result is merged
// into one shared tree.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fragmede/threadgrab/internal/api"
	"github.com/fragmede/threadgrab/internal/thread"
)

// StubState is where a stub is in its lifecycle.
type StubState int

const (
	StubPending StubState = iota
	StubFetching
	StubMerged
	StubDiscarded
	StubFailed
)

func (s StubState) String() string {
	switch s {
	case StubPending:
		return "pending"
	case StubFetching:
		return "fetching"
	case StubMerged:
		return "merged"
	case StubDiscarded:
		return "discarded"
	case StubFailed:
		return "failed"
	default:
		return fmt.Sprintf("StubState(%d)", int(s))
	}
}

// Fetcher retrieves a URL's body. *api.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Resolver.
type Options struct {
	// BaseURL is the thread URL that stub ids are appended to.
	BaseURL string
	// Workers bounds concurrent fetches. Zero means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
	// OnProgress is called after every stub finishes. It may be called
	// from several goroutines at once.
	OnProgress func(Progress)
}

// Report summarises a finished run.
type Report struct {
	Stubs     int
	Merged    int
	Discarded int
	Failed    int
	// Declared is the sum of the counts the stubs announced.
	Declared int64
	// Nodes is the decoded-node counter at the end of the run.
	Nodes   int64
	Elapsed time.Duration
	// Errors holds the failure of every failed stub, keyed by id.
	Errors map[string]error
}

// Resolved returns how many stubs reached a final state.
func (r Report) Resolved() int { return r.Merged + r.Discarded + r.Failed }

// Resolver drives stub resolution for one run.
type Resolver struct {
	fetcher    Fetcher
	tree       *Tree
	state      *thread.RunState
	base       string
	workers    int
	log        *slog.Logger
	onProgress func(Progress)

	mu       sync.Mutex
	start    time.Time
	resolved int
	states   map[string]StubState
	errs     map[string]error
}

// New returns a Resolver that merges into tree and shares st with the
// decoder.
func New(f Fetcher, tree *Tree, st *thread.RunState, opts Options) *Resolver {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		fetcher:    f,
		tree:       tree,
		state:      st,
		base:       opts.BaseURL,
		workers:    workers,
		log:        logger,
		onProgress: opts.OnProgress,
		states:     make(map[string]StubState),
		errs:       make(map[string]error),
	}
}

// Run resolves every registered stub, including stubs discovered inside
// fetched continuations, and returns once none is pending or running.
// Stubs that would start after the node budget is spent are discarded
// without a fetch. A cancelled context stops new fetches; Run then waits
// for running ones and returns the context's error with the partial
// report.
func (r *Resolver) Run(ctx context.Context) (Report, error) {
	r.mu.Lock()
	r.start = time.Now()
	r.mu.Unlock()

	for _, id := range r.state.Stubs() {
		r.setState(id, StubPending)
	}

	// Tasks never return errors, so a plain group keeps one failure from
	// cancelling its siblings.
	var g errgroup.Group
	g.SetLimit(r.workers)

	var inflight atomic.Int64
	wake := make(chan struct{}, 1)

	for ctx.Err() == nil {
		// Load before claiming: if nothing was running when we looked and
		// nothing is left to claim, nothing can appear later.
		running := inflight.Load()
		id, ok := r.state.NextStub()
		if !ok {
			if running == 0 {
				break
			}
			select {
			case <-wake:
			case <-ctx.Done():
			}
			continue
		}

		if r.state.Exhausted() {
			r.finish(id, StubDiscarded, nil)
			for _, rest := range r.state.DrainStubs() {
				r.finish(rest, StubDiscarded, nil)
			}
			r.log.Debug("node budget spent, discarding stubs", "max", r.state.Max())
			continue
		}

		r.setState(id, StubFetching)
		inflight.Add(1)
		g.Go(func() error {
			defer func() {
				inflight.Add(-1)
				select {
				case wake <- struct{}{}:
				default:
				}
			}()
			r.resolveStub(ctx, id)
			return nil
		})
	}

	_ = g.Wait()

	rep := r.report()
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

// States returns a copy of every stub's current state.
func (r *Resolver) States() map[string]StubState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]StubState, len(r.states))
	for id, s := range r.states {
		out[id] = s
	}
	return out
}

func (r *Resolver) resolveStub(ctx context.Context, id string) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("stub task panicked", "stub", id, "panic", p)
			r.finish(id, StubFailed, fmt.Errorf("panic: %v", p))
		}
	}()

	url := api.StubURL(r.base, id)
	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.log.Warn("stub fetch failed", "stub", id, "err", err)
		r.finish(id, StubFailed, err)
		return
	}

	forest, err := thread.BuildForest(body, r.state)
	if err != nil {
		r.log.Warn("stub payload rejected", "stub", id, "err", err)
		r.finish(id, StubFailed, err)
		return
	}

	res := r.tree.Merge(forest)
	r.log.Debug("stub merged", "stub", id, "outcome", res.Outcome, "anchor", res.AnchorID, "attached", res.Attached)
	if res.Outcome == OutcomeDiscarded {
		r.finish(id, StubDiscarded, nil)
		return
	}
	r.finish(id, StubMerged, nil)
}

func (r *Resolver) setState(id string, s StubState) {
	r.mu.Lock()
	r.states[id] = s
	r.mu.Unlock()
}

func (r *Resolver) finish(id string, s StubState, err error) {
	r.mu.Lock()
	if prev, ok := r.states[id]; ok && prev >= StubMerged {
		r.mu.Unlock()
		return
	}
	r.states[id] = s
	if err != nil {
		r.errs[id] = err
	}
	r.resolved++
	p := r.progressLocked()
	r.mu.Unlock()

	if r.onProgress != nil {
		r.onProgress(p)
	}
}

func (r *Resolver) progressLocked() Progress {
	return Progress{
		Resolved: r.resolved,
		Failed:   len(r.errs),
		Total:    r.state.Registered(),
		Declared: r.state.Declared(),
		Nodes:    r.state.Count(),
		Elapsed:  time.Since(r.start),
	}
}

func (r *Resolver) report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := Report{
		Stubs:    r.state.Registered(),
		Declared: r.state.Declared(),
		Nodes:    r.state.Count(),
		Elapsed:  time.Since(r.start),
		Errors:   make(map[string]error, len(r.errs)),
	}
	for _, s := range r.states {
		switch s {
		case StubMerged:
			rep.Merged++
		case StubDiscarded:
			rep.Discarded++
		case StubFailed:
			rep.Failed++
		}
	}
	for id, err := range r.errs {
		rep.Errors[id] = err
	}
	return rep
}

package resolve

import (
	"sync"

	"github.com/fragmede/threadgrab/internal/thread"
)

// Outcome says what a merge did with a fetched forest.
type Outcome int

const (
	// OutcomeDiscarded means nothing was attached.
	OutcomeDiscarded Outcome = iota
	// OutcomeFlat means a single fetched node's replies were appended to
	// the top level.
	OutcomeFlat
	// OutcomeSpliced means the fetched tail was attached under its anchor.
	OutcomeSpliced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFlat:
		return "flat"
	case OutcomeSpliced:
		return "spliced"
	default:
		return "discarded"
	}
}

// MergeResult describes one merge.
type MergeResult struct {
	Outcome  Outcome
	AnchorID string
	Attached int
}

// Tree is the forest shared by every resolution task. All mutation happens
// under its lock.
type Tree struct {
	mu    sync.Mutex
	nodes []*thread.Node
	state *thread.RunState
}

// NewTree wraps the initial forest. st is the run state whose node counter
// is corrected when an anchor is spliced.
func NewTree(forest []*thread.Node, st *thread.RunState) *Tree {
	return &Tree{nodes: forest, state: st}
}

// Nodes returns the top-level nodes. Call it once resolution has finished.
func (t *Tree) Nodes() []*thread.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes
}

// Len returns the number of nodes currently in the tree.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return thread.Count(t.nodes)
}

// Merge attaches a fetched forest f to the tree in one critical section.
//
// A forest of one node is a flat batch: that node's replies are appended
// to the top level. Otherwise f[0] is the anchor: the first tree node with
// the same id, searching each sibling list before descending, receives
// f[1:] as extra children. The anchor was already counted when the tree
// was first decoded, so its second count is taken back.
func (t *Tree) Merge(f []*thread.Node) MergeResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case len(f) == 0:
		return MergeResult{Outcome: OutcomeDiscarded}
	case len(f) < 2:
		t.nodes = append(t.nodes, f[0].Children...)
		return MergeResult{Outcome: OutcomeFlat, Attached: len(f[0].Children)}
	}

	target := findAnchor(t.nodes, f[0])
	if target == nil {
		return MergeResult{Outcome: OutcomeDiscarded, AnchorID: f[0].ID}
	}

	tail := f[1:]
	target.Children = append(target.Children, tail...)
	if t.state != nil {
		t.state.Uncount()
	}
	return MergeResult{Outcome: OutcomeSpliced, AnchorID: target.ID, Attached: len(tail)}
}

// findAnchor checks a whole sibling list before recursing into each
// sibling's children, left to right.
func findAnchor(level []*thread.Node, anchor *thread.Node) *thread.Node {
	for _, n := range level {
		if thread.Equal(n, anchor) {
			return n
		}
	}
	for _, n := range level {
		if n == nil {
			continue
		}
		if found := findAnchor(n.Children, anchor); found != nil {
			return found
		}
	}
	return nil
}

// Package thread holds the discussion tree model and the code that builds,
// filters and sorts it.
package thread

import (
	"math"
	"strings"
)

// Unknown is the timestamp sentinel for a missing created time and for a
// node that was never edited.
const Unknown int64 = math.MaxInt64

// Node is one post or comment. Children are owned by their parent; a node
// never appears twice in a forest.
type Node struct {
	ID        string
	ParentID  string
	Kind      string
	Author    string
	Text      string
	URL       string
	Permalink string
	Upvotes   uint64
	Depth     int
	IsAdult   bool
	Created   int64
	Edited    int64

	// NumComments is the provider's declared comment count. Only the root
	// post carries it.
	NumComments int

	Children []*Node
}

// Equal reports whether a and b are the same node. Identity is the id alone;
// content such as "[deleted]" legitimately repeats.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// IsEdited reports whether the node carries an edit time.
func (n *Node) IsEdited() bool {
	return n.Edited != Unknown
}

// IsTombstone reports whether the node's author or content was deleted or
// removed.
func (n *Node) IsTombstone() bool {
	return isTombstone(n.Author) || isTombstone(n.Text)
}

func isTombstone(s string) bool {
	s = strings.TrimSpace(s)
	return s == "[deleted]" || s == "[removed]"
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Children = CloneForest(n.Children)
	return &c
}

// CloneForest deep-copies every node in forest.
func CloneForest(forest []*Node) []*Node {
	if forest == nil {
		return nil
	}
	out := make([]*Node, len(forest))
	for i, n := range forest {
		out[i] = n.Clone()
	}
	return out
}

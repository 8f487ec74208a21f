package thread

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// SortKey selects the ordering applied to every sibling list.
type SortKey int

const (
	SortNone SortKey = iota
	SortRandom
	SortUpvotes
	SortReplies
	SortCreated
	SortEdited
)

// SortSpec is a sort key plus direction.
type SortSpec struct {
	Key       SortKey
	Ascending bool
}

var sortNames = map[string]SortSpec{
	"default":      {Key: SortNone},
	"none":         {Key: SortNone},
	"rand":         {Key: SortRandom},
	"random":       {Key: SortRandom},
	"upvotes":      {Key: SortUpvotes},
	"upvotes-asc":  {Key: SortUpvotes, Ascending: true},
	"comments":     {Key: SortReplies},
	"comments-asc": {Key: SortReplies, Ascending: true},
	"replies":      {Key: SortReplies},
	"replies-asc":  {Key: SortReplies, Ascending: true},
	"new":          {Key: SortCreated},
	"old":          {Key: SortCreated, Ascending: true},
	"edited":       {Key: SortEdited},
	"edited-asc":   {Key: SortEdited, Ascending: true},
}

// ParseSort reads a sort name such as "upvotes", "comments-asc", "new" or
// "rand".
func ParseSort(s string) (SortSpec, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return SortSpec{}, nil
	}
	spec, ok := sortNames[name]
	if !ok {
		return SortSpec{}, fmt.Errorf("invalid sort %q", s)
	}
	return spec, nil
}

func (s SortSpec) String() string {
	var name string
	switch s.Key {
	case SortRandom:
		return "rand"
	case SortUpvotes:
		name = "upvotes"
	case SortReplies:
		name = "comments"
	case SortCreated:
		if s.Ascending {
			return "old"
		}
		return "new"
	case SortEdited:
		name = "edited"
	default:
		return "default"
	}
	if s.Ascending {
		return name + "-asc"
	}
	return name
}

func (s SortSpec) key(n *Node) int64 {
	switch s.Key {
	case SortUpvotes:
		if n.Upvotes > uint64(Unknown) {
			return Unknown
		}
		return int64(n.Upvotes)
	case SortReplies:
		return int64(len(n.Children))
	case SortCreated:
		return n.Created
	case SortEdited:
		return n.Edited
	}
	return 0
}

// Sort reorders every sibling list of forest in place, at every depth, and
// returns forest. Ties keep their decoded order. SortRandom shuffles each
// level independently using rng, or the global source when rng is nil.
func Sort(forest []*Node, s SortSpec, rng *rand.Rand) []*Node {
	if s.Key == SortNone {
		return forest
	}
	sortLevel(forest, s, rng)
	return forest
}

func sortLevel(nodes []*Node, s SortSpec, rng *rand.Rand) {
	if len(nodes) > 1 {
		if s.Key == SortRandom {
			swap := func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] }
			if rng != nil {
				rng.Shuffle(len(nodes), swap)
			} else {
				rand.Shuffle(len(nodes), swap)
			}
		} else {
			slices.SortStableFunc(nodes, func(a, b *Node) int {
				if s.Ascending {
					return cmp.Compare(s.key(a), s.key(b))
				}
				return cmp.Compare(s.key(b), s.key(a))
			})
		}
	}
	for _, n := range nodes {
		if n != nil {
			sortLevel(n.Children, s, rng)
		}
	}
}

package thread

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterField selects what a filter looks at.
type FilterField int

const (
	FilterNone FilterField = iota
	FilterUpvotes
	FilterReplies
	FilterAuthor
	FilterEdited
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
)

var opSymbols = map[Op]string{
	OpEq:        "==",
	OpNotEq:     "!=",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
}

// Longest symbols first so "<=" is not read as "<".
var opParseOrder = []struct {
	sym string
	op  Op
}{
	{"==", OpEq}, {"!=", OpNotEq}, {"<=", OpLessEq}, {">=", OpGreaterEq},
	{"=", OpEq}, {"<", OpLess}, {">", OpGreater},
}

// FilterSpec is a single filter predicate.
type FilterSpec struct {
	Field  FilterField
	Op     Op
	Number uint64
	Text   string
	// Edited selects edited nodes when true and unedited ones when false.
	Edited bool
}

// ParseFilter reads expressions such as "upvotes>3", "replies<=2",
// "author=bob", "author!=bob", "edited" and "not-edited". An empty string
// or "none" is no filter.
func ParseFilter(s string) (FilterSpec, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "default":
		return FilterSpec{}, nil
	case "edited":
		return FilterSpec{Field: FilterEdited, Edited: true}, nil
	case "not-edited", "unedited":
		return FilterSpec{Field: FilterEdited}, nil
	}

	i := strings.IndexAny(s, "=!<>")
	if i <= 0 {
		return FilterSpec{}, fmt.Errorf("invalid filter %q: expected <field><op><value>", s)
	}
	name := strings.ToLower(strings.TrimSpace(s[:i]))
	rest := s[i:]

	var spec FilterSpec
	found := false
	for _, o := range opParseOrder {
		if strings.HasPrefix(rest, o.sym) {
			spec.Op = o.op
			rest = rest[len(o.sym):]
			found = true
			break
		}
	}
	if !found {
		return FilterSpec{}, fmt.Errorf("invalid filter %q: unknown operator", s)
	}
	value := strings.TrimSpace(rest)
	if value == "" {
		return FilterSpec{}, fmt.Errorf("invalid filter %q: missing value", s)
	}

	switch name {
	case "upvotes", "ups":
		spec.Field = FilterUpvotes
	case "replies", "comments":
		spec.Field = FilterReplies
	case "author":
		if spec.Op != OpEq && spec.Op != OpNotEq {
			return FilterSpec{}, fmt.Errorf("invalid filter %q: author supports only == and !=", s)
		}
		spec.Field = FilterAuthor
		spec.Text = value
		return spec, nil
	default:
		return FilterSpec{}, fmt.Errorf("invalid filter %q: unknown field %q", s, name)
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("invalid filter %q: %w", s, err)
	}
	spec.Number = n
	return spec, nil
}

func (f FilterSpec) String() string {
	switch f.Field {
	case FilterUpvotes:
		return fmt.Sprintf("upvotes%s%d", opSymbols[f.Op], f.Number)
	case FilterReplies:
		return fmt.Sprintf("replies%s%d", opSymbols[f.Op], f.Number)
	case FilterAuthor:
		return fmt.Sprintf("author%s%s", opSymbols[f.Op], f.Text)
	case FilterEdited:
		if f.Edited {
			return "edited"
		}
		return "not-edited"
	default:
		return "none"
	}
}

// Match applies the predicate to a single node. Reply counts are taken
// from the node as given.
func (f FilterSpec) Match(n *Node) bool {
	switch f.Field {
	case FilterUpvotes:
		return compare(n.Upvotes, f.Op, f.Number)
	case FilterReplies:
		return compare(uint64(len(n.Children)), f.Op, f.Number)
	case FilterAuthor:
		if f.Op == OpNotEq {
			return n.Author != f.Text
		}
		return n.Author == f.Text
	case FilterEdited:
		return n.IsEdited() == f.Edited
	default:
		return true
	}
}

func compare(v uint64, op Op, want uint64) bool {
	switch op {
	case OpEq:
		return v == want
	case OpNotEq:
		return v != want
	case OpLess:
		return v < want
	case OpLessEq:
		return v <= want
	case OpGreater:
		return v > want
	case OpGreaterEq:
		return v >= want
	}
	return false
}

// Filter returns a pruned copy of forest holding the nodes that satisfy f
// plus every ancestor of such a node. ok is false when forest is empty.
// The input is not modified.
func Filter(forest []*Node, f FilterSpec) (result []*Node, ok bool) {
	if len(forest) == 0 {
		return nil, false
	}
	if f.Field == FilterNone {
		return CloneForest(forest), true
	}
	required := make(map[string]struct{})
	return filterLevel(forest, f, required), true
}

// filterLevel filters one sibling list bottom-up. required collects the
// ids that must survive because a descendant did.
func filterLevel(nodes []*Node, f FilterSpec, required map[string]struct{}) []*Node {
	if len(nodes) == 0 {
		return nil
	}

	kept := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		c := *n
		c.Children = filterLevel(n.Children, f, required)

		// Children are pruned first, so a reply count sees survivors only.
		if _, req := required[c.ID]; f.Match(&c) || req {
			kept = append(kept, &c)
		}
	}

	for _, n := range kept {
		required[n.ParentID] = struct{}{}
	}
	return kept
}

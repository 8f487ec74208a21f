package thread

import (
	"testing"
)

// filterFixture is a root post followed by four top-level replies; r3 has
// two nested children.
func filterFixture() []*Node {
	return []*Node{
		{ID: "p1", Author: "op", Upvotes: 50, Edited: Unknown},
		{ID: "r1", ParentID: "p1", Author: "alice", Upvotes: 5, Edited: Unknown},
		{ID: "r2", ParentID: "p1", Author: "bob", Upvotes: 2, Edited: Unknown},
		{ID: "r3", ParentID: "p1", Author: "carol", Upvotes: 2, Edited: Unknown, Children: []*Node{
			{ID: "c1", ParentID: "r3", Author: "dave", Upvotes: 10, Depth: 1, Edited: 1700000500},
			{ID: "c2", ParentID: "r3", Author: "bob", Upvotes: 1, Depth: 1, Edited: Unknown},
		}},
		{ID: "r4", ParentID: "p1", Author: "erin", Upvotes: 8, Edited: Unknown},
	}
}

func TestFilterKeepsAncestorsOfMatches(t *testing.T) {
	spec, err := ParseFilter("upvotes>3")
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}

	got, ok := Filter(filterFixture(), spec)
	if !ok {
		t.Fatal("Filter() ok = false")
	}

	if want := []string{"p1", "r1", "r3", "r4"}; !equalStrings(ids(got), want) {
		t.Errorf("top-level ids = %v, want %v", ids(got), want)
	}
	r3 := FindByID(got, "r3")
	if r3 == nil {
		t.Fatal("r3 missing")
	}
	if want := []string{"c1"}; !equalStrings(ids(r3.Children), want) {
		t.Errorf("r3 children = %v, want %v", ids(r3.Children), want)
	}
	if FindByID(got, "r2") != nil {
		t.Error("r2 survived without a matching descendant")
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	forest := filterFixture()
	before := Count(forest)

	if _, ok := Filter(forest, FilterSpec{Field: FilterUpvotes, Op: OpGreater, Number: 100}); !ok {
		t.Fatal("Filter() ok = false")
	}
	if after := Count(forest); after != before {
		t.Errorf("input size changed from %d to %d", before, after)
	}
	if len(forest[3].Children) != 2 {
		t.Errorf("input r3 children = %d, want 2", len(forest[3].Children))
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got, ok := Filter(nil, FilterSpec{Field: FilterUpvotes})
	if ok || got != nil {
		t.Errorf("Filter(nil) = %v, %v; want nil, false", got, ok)
	}
}

func TestFilterNothingSurvives(t *testing.T) {
	got, ok := Filter(filterFixture(), FilterSpec{Field: FilterUpvotes, Op: OpGreater, Number: 1000})
	if !ok {
		t.Fatal("Filter() ok = false")
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", ids(got))
	}
}

func TestFilterVariants(t *testing.T) {
	tests := []struct {
		filter string
		want   []string // pre-order ids
	}{
		{"none", []string{"p1", "r1", "r2", "r3", "c1", "c2", "r4"}},
		{"author=bob", []string{"r2", "r3", "c2"}},
		{"author!=bob", []string{"p1", "r1", "r3", "c1", "r4"}},
		{"edited", []string{"r3", "c1"}},
		{"not-edited", []string{"p1", "r1", "r2", "r3", "c2", "r4"}},
		{"replies>1", nil},
		{"replies<=1", []string{"p1", "r1", "r2", "r3", "c1", "c2", "r4"}},
		{"replies==0", []string{"p1", "r1", "r2", "r3", "c1", "c2", "r4"}},
		{"upvotes<=2", []string{"r2", "r3", "c2"}},
		{"upvotes==10", []string{"r3", "c1"}},
		{"upvotes!=2", []string{"p1", "r1", "r3", "c1", "c2", "r4"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			spec, err := ParseFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseFilter() error = %v", err)
			}
			got, ok := Filter(filterFixture(), spec)
			if !ok {
				t.Fatal("Filter() ok = false")
			}
			var flat []string
			for _, f := range Flatten(got) {
				flat = append(flat, f.Node.ID)
			}
			if !equalStrings(flat, tt.want) {
				t.Errorf("ids = %v, want %v", flat, tt.want)
			}
		})
	}
}

func TestFilterEverySurvivorMatchesOrHasMatchingDescendant(t *testing.T) {
	forest := []*Node{
		{ID: "p", Upvotes: 1, Children: []*Node{
			{ID: "a", ParentID: "p", Upvotes: 0, Children: []*Node{
				{ID: "a1", ParentID: "a", Upvotes: 0, Children: []*Node{
					{ID: "a11", ParentID: "a1", Upvotes: 9},
				}},
				{ID: "a2", ParentID: "a", Upvotes: 0},
			}},
			{ID: "b", ParentID: "p", Upvotes: 7},
			{ID: "c", ParentID: "p", Upvotes: 0, Children: []*Node{
				{ID: "c1", ParentID: "c", Upvotes: 1},
			}},
		}},
	}
	spec := FilterSpec{Field: FilterUpvotes, Op: OpGreaterEq, Number: 5}

	got, _ := Filter(forest, spec)

	var hasMatch func(n *Node) bool
	hasMatch = func(n *Node) bool {
		if spec.Match(n) {
			return true
		}
		for _, c := range n.Children {
			if hasMatch(c) {
				return true
			}
		}
		return false
	}
	Walk(got, func(n *Node) {
		if !hasMatch(n) {
			t.Errorf("node %s survived with no matching descendant", n.ID)
		}
		for _, c := range n.Children {
			if c.ParentID != n.ID {
				t.Errorf("node %s sits under %s, parent id %s", c.ID, n.ID, c.ParentID)
			}
		}
	})

	var flat []string
	for _, f := range Flatten(got) {
		flat = append(flat, f.Node.ID)
	}
	if want := []string{"p", "a", "a1", "a11", "b"}; !equalStrings(flat, want) {
		t.Errorf("ids = %v, want %v", flat, want)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    FilterSpec
		wantErr bool
	}{
		{in: "", want: FilterSpec{}},
		{in: "none", want: FilterSpec{}},
		{in: "upvotes>3", want: FilterSpec{Field: FilterUpvotes, Op: OpGreater, Number: 3}},
		{in: "ups >= 10", want: FilterSpec{Field: FilterUpvotes, Op: OpGreaterEq, Number: 10}},
		{in: "replies<=2", want: FilterSpec{Field: FilterReplies, Op: OpLessEq, Number: 2}},
		{in: "comments<1", want: FilterSpec{Field: FilterReplies, Op: OpLess, Number: 1}},
		{in: "upvotes=4", want: FilterSpec{Field: FilterUpvotes, Op: OpEq, Number: 4}},
		{in: "upvotes!=4", want: FilterSpec{Field: FilterUpvotes, Op: OpNotEq, Number: 4}},
		{in: "author=Bob_1", want: FilterSpec{Field: FilterAuthor, Op: OpEq, Text: "Bob_1"}},
		{in: "Author != bob", want: FilterSpec{Field: FilterAuthor, Op: OpNotEq, Text: "bob"}},
		{in: "EDITED", want: FilterSpec{Field: FilterEdited, Edited: true}},
		{in: "not-edited", want: FilterSpec{Field: FilterEdited}},
		{in: "author>bob", wantErr: true},
		{in: "upvotes>", wantErr: true},
		{in: "upvotes>-1", wantErr: true},
		{in: "score>1", wantErr: true},
		{in: ">3", wantErr: true},
		{in: "upvotes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFilter(%q) expected error, got %+v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFilter(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterSpecString(t *testing.T) {
	for _, in := range []string{"upvotes>3", "replies<=2", "author==bob", "author!=bob", "edited", "not-edited", "none"} {
		spec, err := ParseFilter(in)
		if err != nil {
			t.Fatalf("ParseFilter(%q) error = %v", in, err)
		}
		if got := spec.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestFilterCountsRepliesAfterPruning(t *testing.T) {
	forest := []*Node{
		{ID: "p", Children: []*Node{
			{ID: "a", ParentID: "p"},
			{ID: "b", ParentID: "p"},
			{ID: "c", ParentID: "p"},
		}},
	}
	spec, err := ParseFilter("replies>1")
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}

	got, ok := Filter(forest, spec)
	if !ok {
		t.Fatal("Filter() ok = false")
	}
	if len(got) != 0 {
		t.Errorf("kept %v; p has no surviving replies", ids(got))
	}
}

package thread

import (
	"math/rand/v2"
	"testing"
)

func sortFixture() []*Node {
	return []*Node{
		{ID: "p", Upvotes: 10, Created: 100, Edited: Unknown},
		{ID: "a", Upvotes: 3, Created: 300, Edited: 900, Children: []*Node{
			{ID: "a1", Upvotes: 1, Created: 310, Edited: Unknown},
			{ID: "a2", Upvotes: 7, Created: 305, Edited: 950, Children: []*Node{
				{ID: "a21", Upvotes: 2, Created: 400, Edited: Unknown},
				{ID: "a22", Upvotes: 5, Created: 401, Edited: Unknown},
				{ID: "a23", Upvotes: 5, Created: 399, Edited: 1000},
			}},
		}},
		{ID: "b", Upvotes: 3, Created: 200, Edited: Unknown},
		{ID: "c", Upvotes: 8, Created: 250, Edited: 800, Children: []*Node{
			{ID: "c1", Upvotes: 4, Created: 260, Edited: Unknown},
		}},
	}
}

func preorder(forest []*Node) []string {
	var out []string
	Walk(forest, func(n *Node) { out = append(out, n.ID) })
	return out
}

func TestSortNoneIsStable(t *testing.T) {
	forest := sortFixture()
	before := preorder(forest)
	Sort(forest, SortSpec{Key: SortNone}, nil)
	if after := preorder(forest); !equalStrings(before, after) {
		t.Errorf("order changed: %v -> %v", before, after)
	}
}

func TestSortUpvotesDescending(t *testing.T) {
	forest := Sort(sortFixture(), SortSpec{Key: SortUpvotes}, nil)

	// a and b tie at 3 and keep their decoded order.
	want := []string{"p", "c", "c1", "a", "a2", "a22", "a23", "a21", "a1", "b"}
	if got := preorder(forest); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSortKeysAreMonotonicAtEveryDepth(t *testing.T) {
	specs := []SortSpec{
		{Key: SortUpvotes}, {Key: SortUpvotes, Ascending: true},
		{Key: SortReplies}, {Key: SortReplies, Ascending: true},
		{Key: SortCreated}, {Key: SortCreated, Ascending: true},
		{Key: SortEdited}, {Key: SortEdited, Ascending: true},
	}

	for _, spec := range specs {
		t.Run(spec.String(), func(t *testing.T) {
			forest := Sort(sortFixture(), spec, nil)

			var check func(level []*Node, depth int)
			check = func(level []*Node, depth int) {
				for i := 1; i < len(level); i++ {
					prev, cur := spec.key(level[i-1]), spec.key(level[i])
					if spec.Ascending && prev > cur || !spec.Ascending && prev < cur {
						t.Errorf("depth %d: %s(%d) before %s(%d)", depth, level[i-1].ID, prev, level[i].ID, cur)
					}
				}
				for _, n := range level {
					check(n.Children, depth+1)
				}
			}
			check(forest, 0)
		})
	}
}

func TestSortRecursesBelowDepthOne(t *testing.T) {
	forest := Sort(sortFixture(), SortSpec{Key: SortCreated, Ascending: true}, nil)
	a2 := FindByID(forest, "a2")
	if got, want := ids(a2.Children), []string{"a23", "a21", "a22"}; !equalStrings(got, want) {
		t.Errorf("a2 children = %v, want %v", got, want)
	}
}

func TestSortSingleNodeUnchanged(t *testing.T) {
	forest := []*Node{{ID: "only", Upvotes: 1}}
	Sort(forest, SortSpec{Key: SortUpvotes, Ascending: true}, nil)
	if forest[0].ID != "only" {
		t.Errorf("single node replaced by %s", forest[0].ID)
	}
}

func TestSortRandomKeepsMembership(t *testing.T) {
	forest := sortFixture()
	before := preorder(sortFixture())

	rng := rand.New(rand.NewPCG(1, 2))
	Sort(forest, SortSpec{Key: SortRandom}, rng)

	after := preorder(forest)
	if len(after) != len(before) {
		t.Fatalf("node count changed: %d -> %d", len(before), len(after))
	}
	seen := make(map[string]bool)
	for _, id := range after {
		seen[id] = true
	}
	for _, id := range before {
		if !seen[id] {
			t.Errorf("node %s lost by shuffle", id)
		}
	}
	a2 := FindByID(forest, "a2")
	if len(a2.Children) != 3 {
		t.Errorf("a2 children = %d, want 3", len(a2.Children))
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    SortSpec
		wantErr bool
	}{
		{in: "", want: SortSpec{}},
		{in: "default", want: SortSpec{}},
		{in: "rand", want: SortSpec{Key: SortRandom}},
		{in: "upvotes", want: SortSpec{Key: SortUpvotes}},
		{in: "Upvotes-Asc", want: SortSpec{Key: SortUpvotes, Ascending: true}},
		{in: "comments", want: SortSpec{Key: SortReplies}},
		{in: "comments-asc", want: SortSpec{Key: SortReplies, Ascending: true}},
		{in: "new", want: SortSpec{Key: SortCreated}},
		{in: "old", want: SortSpec{Key: SortCreated, Ascending: true}},
		{in: "edited", want: SortSpec{Key: SortEdited}},
		{in: "edited-asc", want: SortSpec{Key: SortEdited, Ascending: true}},
		{in: "best", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSort(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSort(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSort(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if again, _ := ParseSort(got.String()); again != got {
				t.Errorf("round trip of %q gave %+v", got.String(), again)
			}
		})
	}
}

package thread

// FlatNode is a node flattened out of the tree for display.
type FlatNode struct {
	Node  *Node
	Level int

	// Descendants is the size of the node's subtree, not counting itself.
	Descendants int
}

// Flatten converts the forest into a pre-order list.
func Flatten(forest []*Node) []FlatNode {
	var result []FlatNode

	// walk returns the total descendant count for this subtree.
	var walk func(n *Node, level int) int
	walk = func(n *Node, level int) int {
		idx := len(result)
		// Append placeholder; Descendants is filled after walking children.
		result = append(result, FlatNode{Node: n, Level: level})

		descendants := 0
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			descendants += 1 + walk(c, level+1)
		}
		result[idx].Descendants = descendants
		return descendants
	}

	for _, n := range forest {
		if n == nil {
			continue
		}
		walk(n, 0)
	}
	return result
}

// Walk calls fn for every node in pre-order.
func Walk(forest []*Node, fn func(*Node)) {
	for _, n := range forest {
		if n == nil {
			continue
		}
		fn(n)
		Walk(n.Children, fn)
	}
}

// Find returns the first node, depth-first, for which match is true.
func Find(forest []*Node, match func(*Node) bool) *Node {
	for _, n := range forest {
		if n == nil {
			continue
		}
		if match(n) {
			return n
		}
		if found := Find(n.Children, match); found != nil {
			return found
		}
	}
	return nil
}

// FindByID returns the node with the given id.
func FindByID(forest []*Node, id string) *Node {
	return Find(forest, func(n *Node) bool { return n.ID == id })
}

// Count returns the total number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	Walk(forest, func(*Node) { total++ })
	return total
}

// MaxDepth returns the number of levels below the top level.
func MaxDepth(forest []*Node) int {
	deepest := 0
	for _, n := range forest {
		if n == nil || len(n.Children) == 0 {
			continue
		}
		if d := 1 + MaxDepth(n.Children); d > deepest {
			deepest = d
		}
	}
	return deepest
}

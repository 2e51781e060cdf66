package scene

import (
	"fmt"
)

// Forest is the resolved entity hierarchy of one scene. Relationships are
// stored as anchor ids and resolved through Nodes.
type Forest struct {
	Nodes map[string]*Node
	Order []string // Node creation order

	// Dangling counts nodes made roots because their parent did not resolve.
	Dangling int
	// CyclesBroken counts nodes made roots to break a parent cycle.
	CyclesBroken int
	// SkippedTransforms counts transforms whose owning entity was unknown.
	SkippedTransforms int
}

// BuildForest joins transform and entity records into a forest.
//
// A node is created for every transform whose owning entity is known; the
// first such transform wins when an entity owns several. A node's parent is
// found by following the transform's parent transform to its entity. If any
// hop fails, or the parent chain would loop back to the node, the node
// becomes a root.
func BuildForest(transforms []TransformRecord, entities []EntityRecord) *Forest {
	entityByID := make(map[string]*EntityRecord, len(entities))
	for i := range entities {
		if _, dup := entityByID[entities[i].AnchorID]; !dup {
			entityByID[entities[i].AnchorID] = &entities[i]
		}
	}
	transformByID := make(map[string]*TransformRecord, len(transforms))
	for i := range transforms {
		if _, dup := transformByID[transforms[i].AnchorID]; !dup {
			transformByID[transforms[i].AnchorID] = &transforms[i]
		}
	}

	f := &Forest{Nodes: make(map[string]*Node, len(transforms))}

	// Pass 1: one node per resolvable transform.
	for i := range transforms {
		tr := &transforms[i]
		entity, ok := entityByID[tr.OwningEntityID]
		if !ok {
			f.SkippedTransforms++
			continue
		}
		if _, exists := f.Nodes[entity.AnchorID]; exists {
			continue
		}
		parentID, resolved := resolveParent(tr, transformByID, entityByID)
		if !resolved {
			f.Dangling++
		}
		f.Nodes[entity.AnchorID] = &Node{
			ID:       entity.AnchorID,
			Name:     entity.DisplayName,
			ParentID: parentID,
		}
		f.Order = append(f.Order, entity.AnchorID)
	}

	// Pass 2: drop parents that never became nodes.
	for _, id := range f.Order {
		n := f.Nodes[id]
		if n.ParentID == "" {
			continue
		}
		if _, ok := f.Nodes[n.ParentID]; !ok {
			n.ParentID = ""
			f.Dangling++
		}
	}

	// Pass 3: break cycles. Each loop is cut at its first-created member.
	settled := make(map[string]bool, len(f.Nodes))
	for _, id := range f.Order {
		n := f.Nodes[id]
		path, cycle, terminates := f.walkAncestors(n, settled)
		if cycle {
			n.ParentID = ""
			f.CyclesBroken++
		}
		if terminates {
			settled[id] = true
			for _, p := range path {
				settled[p] = true
			}
		}
	}

	// Pass 4: link children in creation order.
	for _, id := range f.Order {
		n := f.Nodes[id]
		if n.ParentID == "" {
			continue
		}
		parent := f.Nodes[n.ParentID]
		parent.Children = append(parent.Children, id)
	}

	return f
}

// resolveParent follows parent transform → owning entity. resolved is false
// when a parent was named but a hop failed.
func resolveParent(tr *TransformRecord, transforms map[string]*TransformRecord, entities map[string]*EntityRecord) (id string, resolved bool) {
	if tr.ParentTransformID == "" {
		return "", true
	}
	parentTr, ok := transforms[tr.ParentTransformID]
	if !ok {
		return "", false
	}
	parent, ok := entities[parentTr.OwningEntityID]
	if !ok {
		return "", false
	}
	return parent.AnchorID, true
}

// walkAncestors follows n's parent chain. cycle reports that the chain
// comes back to n. terminates reports that it ends at a root, possibly via a
// node already known to reach one; it is false when the chain runs into a
// loop that does not include n.
func (f *Forest) walkAncestors(n *Node, settled map[string]bool) (path []string, cycle, terminates bool) {
	seen := map[string]struct{}{n.ID: {}}
	cur := n.ParentID
	for {
		if cur == "" || settled[cur] {
			return path, false, true
		}
		if cur == n.ID {
			return path, true, true
		}
		if _, loop := seen[cur]; loop {
			return path, false, false
		}
		seen[cur] = struct{}{}
		path = append(path, cur)

		next, ok := f.Nodes[cur]
		if !ok {
			return path, false, true
		}
		cur = next.ParentID
	}
}

// Node returns the node with the given entity anchor.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.Nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (f *Forest) Len() int {
	return len(f.Nodes)
}

// Depth returns the number of ancestors of id, or -1 when id is not a node.
func (f *Forest) Depth(id string) int {
	n, ok := f.Nodes[id]
	if !ok {
		return -1
	}
	depth := 0
	for n.ParentID != "" && depth <= len(f.Nodes) {
		n, ok = f.Nodes[n.ParentID]
		if !ok {
			break
		}
		depth++
	}
	return depth
}

// Roots returns root ids in creation order.
func (f *Forest) Roots() []string {
	var roots []string
	for _, id := range f.Order {
		if f.Nodes[id].IsRoot() {
			roots = append(roots, id)
		}
	}
	return roots
}

// Walk visits every node depth-first, pre-order, starting from each root in
// creation order. Children are visited in the order they were linked.
func (f *Forest) Walk(visit func(n *Node, depth int)) {
	type frame struct {
		id    string
		depth int
	}

	for _, root := range f.Roots() {
		stack := []frame{{id: root}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := f.Nodes[top.id]
			visit(n, top.depth)

			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{id: n.Children[i], depth: top.depth + 1})
			}
		}
	}
}

// Validate reports the first structural fault: a parent that is not a node,
// a child listed by the wrong parent or twice, or a node that is its own
// ancestor.
func (f *Forest) Validate() error {
	owner := make(map[string]string, len(f.Nodes))
	for _, id := range f.Order {
		n := f.Nodes[id]
		for _, child := range n.Children {
			if prev, dup := owner[child]; dup {
				return fmt.Errorf("node %s is a child of both %s and %s", child, prev, id)
			}
			owner[child] = id
			c, ok := f.Nodes[child]
			if !ok {
				return fmt.Errorf("node %s lists unknown child %s", id, child)
			}
			if c.ParentID != id {
				return fmt.Errorf("node %s lists child %s whose parent is %q", id, child, c.ParentID)
			}
		}
	}

	settled := make(map[string]bool, len(f.Nodes))
	for _, id := range f.Order {
		n := f.Nodes[id]
		if n.ParentID != "" {
			if _, ok := f.Nodes[n.ParentID]; !ok {
				return fmt.Errorf("node %s has unknown parent %s", id, n.ParentID)
			}
			if owner[id] != n.ParentID {
				return fmt.Errorf("node %s is missing from its parent's children", id)
			}
		}
		path, cycle, terminates := f.walkAncestors(n, settled)
		if cycle {
			return fmt.Errorf("node %s is its own ancestor", id)
		}
		if terminates {
			settled[id] = true
			for _, p := range path {
				settled[p] = true
			}
		}
	}

	return nil
}

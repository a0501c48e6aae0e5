package normalize

import (
	"github.com/anhcx0209/ontodia-search/model"
)

// ClassTree folds class rows and links each class under its parent.
//
// A class keeps the first parent reported for it. Classes whose parent is
// absent from the response, is the class itself, or would close a cycle
// become roots. Roots and children keep first-seen order.
func ClassTree(resp *Response) []*model.ClassNode {
	nodes := classNodes(resp)

	attached := make(map[string]string, nodes.Len())
	roots := make([]*model.ClassNode, 0)
	nodes.Range(func(id string, node *model.ClassNode) bool {
		parent, ok := nodes.Get(node.ParentID)
		if !ok || closesCycle(attached, id, node.ParentID) {
			roots = append(roots, node)
			return true
		}
		attached[id] = node.ParentID
		parent.Children = append(parent.Children, node)
		return true
	})
	return roots
}

// closesCycle reports whether linking child under parent would make child
// its own ancestor.
func closesCycle(attached map[string]string, child, parent string) bool {
	for cur := parent; cur != ""; {
		if cur == child {
			return true
		}
		next, ok := attached[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

package lexical

import (
	"github.com/codesandbox/lexical/lexical_errors"
)

// Node kind lits, also used by the snapshot store codec.
const (
	KindElement   = byte('E')
	KindParagraph = byte('P')
	KindText      = byte('T')
	KindLineBreak = byte('B')
)

// Node is the generic contract all tree nodes satisfy. Concrete kinds
// are ElementNode (containers), TextNode and LineBreakNode (leaves);
// specializations embed one of those and override the capability
// queries.
//
// Every node has two temporal views: the latest committed version,
// owned by the Document registry, and at most one writable clone per
// open update scope. Read methods resolve through the committed
// version; mutators go through Update.Writable.
type Node interface {
	Key() NodeKey

	// ParentKey names the element whose children sequence contains
	// this node's key, NullKey for a detached node.
	ParentKey() NodeKey

	Flags() uint32
	Kind() byte

	// TextContent flattens the node's text. Inert leaves are skipped
	// unless includeInert; likewise directionless leaves and
	// includeDirectionless.
	TextContent(includeInert, includeDirectionless bool) string

	clone() Node
	base() *baseNode
}

type baseNode struct {
	doc    *Document
	key    NodeKey
	parent NodeKey
	flags  uint32
}

func (n *baseNode) base() *baseNode { return n }

func (n *baseNode) Key() NodeKey { return n.key }

// latestBase resolves the committed version's fields, falling back to
// the receiver for nodes not registered yet (created in an open scope).
func (n *baseNode) latestBase() *baseNode {
	if lat := n.doc.NodeByKey(n.key); lat != nil {
		return lat.base()
	}
	return n
}

func (n *baseNode) ParentKey() NodeKey { return n.latestBase().parent }

func (n *baseNode) Flags() uint32 { return n.latestBase().flags }

// Direction derives the tri-state text direction from the flag bits.
func (n *baseNode) Direction() Direction {
	flags := n.Flags()
	switch {
	case flags&FlagDirectionLTR != 0:
		return DirLTR
	case flags&FlagDirectionRTL != 0:
		return DirRTL
	default:
		return DirNone
	}
}

// IsDirectionless reports whether the node is marked as having no
// intrinsic text directionality.
func (n *baseNode) IsDirectionless() bool {
	return n.Flags()&FlagDirectionless != 0
}

// latest returns the committed version of n, or n itself when the key
// is not registered (scope-fresh node).
func latest(n Node) Node {
	if lat := n.base().doc.NodeByKey(n.Key()); lat != nil {
		return lat
	}
	return n
}

// Parent resolves the committed parent element, nil for detached
// nodes and stale keys.
func Parent(n Node) *ElementNode {
	pk := n.ParentKey()
	if pk == NullKey {
		return nil
	}
	parent, ok := n.base().doc.NodeByKey(pk).(elementLike)
	if !ok {
		return nil
	}
	return parent.asElement()
}

// IndexWithinParent is the node's slot in its parent's children
// sequence, -1 for detached nodes.
func IndexWithinParent(n Node) int {
	parent := Parent(n)
	if parent == nil {
		return -1
	}
	for i, key := range parent.latest().children {
		if key == n.Key() {
			return i
		}
	}
	return -1
}

// PrevSibling returns the committed sibling before n, nil at the
// first slot or when detached.
func PrevSibling(n Node) Node {
	parent := Parent(n)
	if parent == nil {
		return nil
	}
	i := IndexWithinParent(n)
	if i <= 0 {
		return nil
	}
	return parent.ChildAtIndex(i - 1)
}

// NextSibling returns the committed sibling after n.
func NextSibling(n Node) Node {
	parent := Parent(n)
	if parent == nil {
		return nil
	}
	i := IndexWithinParent(n)
	if i < 0 {
		return nil
	}
	return parent.ChildAtIndex(i + 1)
}

// IsAttached reports whether n is reachable from the document root.
func IsAttached(n Node) bool {
	doc := n.base().doc
	key := n.Key()
	for key != NullKey {
		if key == doc.rootKey {
			return true
		}
		cur := doc.NodeByKey(key)
		if cur == nil {
			return false
		}
		key = cur.base().parent
	}
	return false
}

// Remove detaches n from its parent and unregisters it, along with
// its descendants, at commit. The parent's children sequence must
// contain the key; a miss means the registry is corrupt.
func (u *Update) Remove(n Node) error {
	if err := u.check(); err != nil {
		return err
	}
	if n.Key() == u.doc.rootKey {
		return lexical_errors.ErrInvariant
	}
	w, err := u.Writable(n)
	if err != nil {
		return err
	}
	parentKey := w.base().parent
	if parentKey != NullKey {
		pel, ok := u.NodeByKey(parentKey).(elementLike)
		if !ok {
			return lexical_errors.ErrInvariant
		}
		wp, err := u.writableElement(pel)
		if err != nil {
			return err
		}
		index := -1
		for i, key := range wp.children {
			if key == w.Key() {
				index = i
				break
			}
		}
		if index < 0 {
			return lexical_errors.ErrInvariant
		}
		wp.children = append(wp.children[:index], wp.children[index+1:]...)
		u.adjustPointsOnRemoval(w.Key(), parentKey, index)
		w.base().parent = NullKey
	}
	u.removeSubtree(w)
	return nil
}

// removeSubtree marks the node and all its descendants removed.
func (u *Update) removeSubtree(n Node) {
	if el, ok := n.(elementLike); ok {
		for _, key := range el.asElement().currentChildren(u) {
			if child := u.NodeByKey(key); child != nil {
				u.removeSubtree(child)
			}
		}
	}
	u.removed[n.Key()] = struct{}{}
	delete(u.writable, n.Key())
}

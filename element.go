package lexical

import (
	"strings"

	"github.com/codesandbox/lexical/lexical_errors"
)

// elementLike is satisfied by ElementNode and every specialization
// embedding it; generic tree algorithms go through it instead of
// switching on concrete types.
type elementLike interface {
	Node
	asElement() *ElementNode
}

// ElementNode is a container node: an ordered sequence of child keys
// plus structural metadata. Specializations embed it and override the
// capability queries.
type ElementNode struct {
	baseNode
	children []NodeKey
	format   ElementFormat
	indent   int
}

// NewElementNode creates a detached element inside the scope.
func NewElementNode(u *Update) (*ElementNode, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	el := &ElementNode{baseNode: baseNode{doc: u.doc, key: u.doc.issueKey()}}
	u.register(el)
	return el, nil
}

func (el *ElementNode) asElement() *ElementNode { return el }

// AsElement views any container node (ElementNode or a specialization
// embedding it) as its element core.
func AsElement(n Node) (*ElementNode, bool) {
	el, ok := n.(elementLike)
	if !ok {
		return nil, false
	}
	return el.asElement(), true
}

func (el *ElementNode) Kind() byte { return KindElement }

func (el *ElementNode) clone() Node {
	cp := *el
	cp.children = append([]NodeKey(nil), el.children...)
	return &cp
}

// latest resolves the committed version of this element, falling back
// to the receiver for scope-fresh nodes.
func (el *ElementNode) latest() *ElementNode {
	if lat, ok := el.doc.NodeByKey(el.key).(elementLike); ok {
		return lat.asElement()
	}
	return el
}

// currentChildren is the in-scope view: the writable's children when
// a clone exists, the committed sequence otherwise.
func (el *ElementNode) currentChildren(u *Update) []NodeKey {
	if u != nil {
		if w, ok := u.writable[el.key]; ok {
			if wel, ok := w.(elementLike); ok {
				return wel.asElement().children
			}
		}
	}
	return el.latest().children
}

// ChildrenKeys returns the committed child key sequence.
func (el *ElementNode) ChildrenKeys() []NodeKey {
	lat := el.latest()
	return append([]NodeKey(nil), lat.children...)
}

func (el *ElementNode) ChildrenSize() int {
	return len(el.latest().children)
}

func (el *ElementNode) IsEmpty() bool {
	return el.ChildrenSize() == 0
}

// Children resolves the child keys, silently skipping stale ones.
func (el *ElementNode) Children() []Node {
	lat := el.latest()
	nodes := make([]Node, 0, len(lat.children))
	for _, key := range lat.children {
		if child := el.doc.NodeByKey(key); child != nil {
			nodes = append(nodes, child)
		}
	}
	return nodes
}

func (el *ElementNode) FirstChild() Node {
	return el.ChildAtIndex(0)
}

func (el *ElementNode) LastChild() Node {
	return el.ChildAtIndex(len(el.latest().children) - 1)
}

// ChildAtIndex is O(1) slot access; out-of-range returns nil.
func (el *ElementNode) ChildAtIndex(i int) Node {
	lat := el.latest()
	if i < 0 || i >= len(lat.children) {
		return nil
	}
	return el.doc.NodeByKey(lat.children[i])
}

// FirstDescendant walks down through first children while a deeper
// one exists.
func (el *ElementNode) FirstDescendant() Node {
	var node Node = el.latest()
	for {
		container, ok := node.(elementLike)
		if !ok {
			return node
		}
		first := container.asElement().FirstChild()
		if first == nil {
			return node
		}
		node = first
	}
}

// LastDescendant walks down through last children while a deeper one
// exists.
func (el *ElementNode) LastDescendant() Node {
	var node Node = el.latest()
	for {
		container, ok := node.(elementLike)
		if !ok {
			return node
		}
		last := container.asElement().LastChild()
		if last == nil {
			return node
		}
		node = last
	}
}

// DescendantByIndex resolves a child-slot index to a concrete leaf or
// element boundary. An empty element is its own single position; an
// index past the last child clamps into the last child's last
// descendant; an in-range index resolves to that child's first
// descendant. Note the two sides resolve differently.
func (el *ElementNode) DescendantByIndex(i int) Node {
	lat := el.latest()
	if len(lat.children) == 0 {
		return lat
	}
	if i >= len(lat.children) {
		if last, ok := el.LastChild().(elementLike); ok {
			return last.asElement().LastDescendant()
		}
		return el.LastChild()
	}
	if child, ok := el.ChildAtIndex(i).(elementLike); ok {
		return child.asElement().FirstDescendant()
	}
	return el.ChildAtIndex(i)
}

// AllTextNodes flattens all text leaves depth-first left-to-right,
// recursing into nested elements. Inert leaves are skipped unless
// includeInert.
func (el *ElementNode) AllTextNodes(includeInert bool) []*TextNode {
	var texts []*TextNode
	for _, child := range el.latest().Children() {
		switch c := child.(type) {
		case *TextNode:
			if includeInert || !c.IsInert() {
				texts = append(texts, c)
			}
		case elementLike:
			texts = append(texts, c.asElement().AllTextNodes(includeInert)...)
		}
	}
	return texts
}

// TextContent concatenates the children's text. A child element that
// is not the last child gets a double-newline block separator after
// its content; this is the canonical plain-text rendering of block
// boundaries.
func (el *ElementNode) TextContent(includeInert, includeDirectionless bool) string {
	lat := el.latest()
	if !includeInert && !includeDirectionless {
		if cached, ok := el.doc.content.Get(el.key); ok {
			return cached
		}
	}
	var sb strings.Builder
	children := lat.Children()
	for i, child := range children {
		sb.WriteString(child.TextContent(includeInert, includeDirectionless))
		if _, ok := child.(elementLike); ok && i != len(children)-1 {
			sb.WriteString("\n\n")
		}
	}
	text := sb.String()
	if !includeInert && !includeDirectionless {
		el.doc.content.Add(el.key, text)
	}
	return text
}

func (el *ElementNode) Format() ElementFormat {
	return el.latest().format
}

func (el *ElementNode) Indent() int {
	return el.latest().indent
}

// IsDirty reports whether the scope's dirty-element set contains this
// element.
func (el *ElementNode) IsDirty(u *Update) bool {
	if u == nil {
		return false
	}
	_, ok := u.dirtyElements[el.key]
	return ok
}

// Append moves the given nodes to the end of this element's children,
// in argument order. A node that already has a parent is detached
// from it in the same step; there is no transient state with two
// parents. Appending the element itself or one of its ancestors fails
// with ErrInvariant. Appending a directionless node triggers direction
// resolution.
func (el *ElementNode) Append(u *Update, nodes ...Node) error {
	w, err := u.writableElement(el)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		wn, err := u.Writable(n)
		if err != nil {
			return err
		}
		if wn.Key() == u.doc.rootKey {
			return lexical_errors.ErrInvariant
		}
		// self or an ancestor would close a parent cycle
		for key := el.key; key != NullKey; {
			if key == wn.Key() {
				return lexical_errors.ErrInvariant
			}
			anc := u.NodeByKey(key)
			if anc == nil {
				break
			}
			key = anc.base().parent
		}
		oldParent := wn.base().parent
		if oldParent != NullKey {
			op, ok := u.NodeByKey(oldParent).(elementLike)
			if !ok {
				return lexical_errors.ErrInvariant
			}
			wop, err := u.writableElement(op)
			if err != nil {
				return err
			}
			index := -1
			for i, key := range wop.children {
				if key == wn.Key() {
					index = i
					break
				}
			}
			if index < 0 {
				// the claimed parent does not list the child
				return lexical_errors.ErrInvariant
			}
			wop.children = append(wop.children[:index], wop.children[index+1:]...)
		}
		wn.base().parent = el.key
		w.children = append(w.children, wn.Key())
		if wn.base().flags&(FlagDirectionLTR|FlagDirectionRTL) == 0 {
			if err := resolveDirection(u, wn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clear removes all children through each child's own removal, so
// per-child invariants (selection adjustment included) hold.
func (el *ElementNode) Clear(u *Update) error {
	w, err := u.writableElement(el)
	if err != nil {
		return err
	}
	for len(w.children) > 0 {
		child := u.NodeByKey(w.children[0])
		if child == nil {
			// stale key, tolerated on read but dropped here
			w.children = w.children[1:]
			continue
		}
		if err := u.Remove(child); err != nil {
			return err
		}
	}
	return nil
}

func (el *ElementNode) SetFormat(u *Update, format ElementFormat) error {
	w, err := u.writableElement(el)
	if err != nil {
		return err
	}
	w.format = format
	return nil
}

func (el *ElementNode) SetIndent(u *Update, indent int) error {
	if indent < 0 {
		indent = 0
	}
	w, err := u.writableElement(el)
	if err != nil {
		return err
	}
	w.indent = indent
	return nil
}

// SetDirection applies a tri-state direction: any existing flag is
// cleared first, DirNone clears both.
func (el *ElementNode) SetDirection(u *Update, dir Direction) error {
	w, err := u.writableElement(el)
	if err != nil {
		return err
	}
	w.flags &^= FlagDirectionLTR | FlagDirectionRTL
	switch dir {
	case DirLTR:
		w.flags |= FlagDirectionLTR
	case DirRTL:
		w.flags |= FlagDirectionRTL
	}
	return nil
}

// Capability queries. These are the extension points node-type
// specializations override; generic algorithms consult them instead
// of switching on kinds.

func (el *ElementNode) InsertNewAfter(u *Update) (Node, error) { return nil, nil }
func (el *ElementNode) CanInsertTab() bool                    { return false }
func (el *ElementNode) CollapseAtStart(u *Update) bool        { return false }
func (el *ElementNode) ExcludeFromCopy() bool                 { return false }
func (el *ElementNode) CanExtractContents() bool              { return true }
func (el *ElementNode) CanReplaceWith(replacement Node) bool  { return true }
func (el *ElementNode) CanInsertAfter(node Node) bool         { return true }
func (el *ElementNode) CanBeEmpty() bool                      { return true }
func (el *ElementNode) CanInsertTextBefore() bool             { return true }
func (el *ElementNode) CanInsertTextAfter() bool              { return true }
func (el *ElementNode) IsInline() bool                        { return false }
func (el *ElementNode) CanSelectionRemove() bool              { return true }

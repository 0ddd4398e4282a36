package lexical

import (
	"github.com/codesandbox/lexical/lexical_errors"
)

// PointType says what a selection point's offset indexes: a child
// slot of an element, or a character position inside a text leaf.
type PointType byte

const (
	ElementPointType = PointType('E')
	TextPointType    = PointType('T')
)

// Point is a symbolic selection endpoint: (node key, offset, kind).
// It holds no live reference into the tree; consumers re-resolve it
// through the registry before use, so structural edits cannot leave
// it dangling.
type Point struct {
	Key    NodeKey
	Offset int
	Type   PointType
}

func (p *Point) Set(key NodeKey, offset int, typ PointType) {
	p.Key = key
	p.Offset = offset
	p.Type = typ
}

func (p Point) Is(other Point) bool {
	return p.Key == other.Key && p.Offset == other.Offset && p.Type == other.Type
}

// Resolve looks the point's node up in the committed registry; nil
// for stale points.
func (p Point) Resolve(d *Document) Node {
	return d.NodeByKey(p.Key)
}

// ResolvePoint is the in-scope variant of Point.Resolve.
func (u *Update) ResolvePoint(p Point) Node {
	return u.NodeByKey(p.Key)
}

// RangeSelection is a pair of independently valid points. Anchor is
// where the selection started, focus where it currently ends; equal
// points denote a collapsed cursor.
type RangeSelection struct {
	Anchor Point
	Focus  Point
	dirty  bool
}

func NewRangeSelection(anchor, focus Point) *RangeSelection {
	return &RangeSelection{Anchor: anchor, Focus: focus, dirty: true}
}

func (s *RangeSelection) IsCollapsed() bool {
	return s.Anchor.Is(s.Focus)
}

// IsDirty reports whether the selection changed during the current or
// most recent scope and must be re-applied to the rendering surface.
func (s *RangeSelection) IsDirty() bool {
	return s.dirty
}

// setPoints mutates the scope's selection in place, constructing a
// fresh one if none exists. Mutation marks the selection dirty; other
// subsystems poll for that.
func (u *Update) setPoints(aKey NodeKey, aOff int, aType PointType, fKey NodeKey, fOff int, fType PointType) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	if u.selection == nil {
		u.selection = NewRangeSelection(
			Point{Key: aKey, Offset: aOff, Type: aType},
			Point{Key: fKey, Offset: fOff, Type: fType},
		)
		return u.selection, nil
	}
	u.selection.Anchor.Set(aKey, aOff, aType)
	u.selection.Focus.Set(fKey, fOff, fType)
	u.selection.dirty = true
	return u.selection, nil
}

// Select points the selection at this element's child slots. With no
// offsets both points land after the last child ("select at the
// end"); explicit offsets are clamped to 0..childrenCount.
func (el *ElementNode) Select(u *Update, offsets ...int) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	count := len(el.currentChildren(u))
	anchor, focus := count, count
	if len(offsets) > 0 {
		anchor = clampOffset(offsets[0], count)
	}
	if len(offsets) > 1 {
		focus = clampOffset(offsets[1], count)
	}
	return u.setPoints(el.key, anchor, ElementPointType, el.key, focus, ElementPointType)
}

// SelectStart collapses the selection at the first descendant. A text
// or element descendant takes the cursor itself; a leaf that cannot
// hold one (line break, embedded object) hands off to its previous
// neighbor.
func (el *ElementNode) SelectStart(u *Update) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	switch first := el.FirstDescendant().(type) {
	case *TextNode:
		return first.Select(u, 0, 0)
	case elementLike:
		return first.asElement().Select(u, 0, 0)
	default:
		return selectPrevious(u, first)
	}
}

// SelectEnd collapses the selection at the last descendant.
func (el *ElementNode) SelectEnd(u *Update) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	switch last := el.LastDescendant().(type) {
	case *TextNode:
		size := last.TextContentSize()
		return last.Select(u, size, size)
	case elementLike:
		return last.asElement().Select(u)
	default:
		return selectNext(u, last)
	}
}

// selectPrevious collapses the selection just before n: at the end of
// the previous sibling, or on the parent slot when n is first.
func selectPrevious(u *Update, n Node) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	switch prev := PrevSibling(n).(type) {
	case *TextNode:
		size := prev.TextContentSize()
		return prev.Select(u, size, size)
	case elementLike:
		return prev.asElement().SelectEnd(u)
	case nil:
		parent := Parent(n)
		if parent == nil {
			return nil, lexical_errors.ErrNodeUnknown
		}
		index := IndexWithinParent(n)
		if index < 0 {
			index = 0
		}
		return parent.Select(u, index, index)
	default:
		return selectPrevious(u, prev)
	}
}

// selectNext collapses the selection just after n.
func selectNext(u *Update, n Node) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	switch next := NextSibling(n).(type) {
	case *TextNode:
		return next.Select(u, 0, 0)
	case elementLike:
		return next.asElement().SelectStart(u)
	case nil:
		parent := Parent(n)
		if parent == nil {
			return nil, lexical_errors.ErrNodeUnknown
		}
		index := IndexWithinParent(n) + 1
		return parent.Select(u, index, index)
	default:
		return selectNext(u, next)
	}
}

// pointNode resolves a point to the concrete node it sits at: the
// leaf itself for text points, the boundary descendant for element
// points.
func (u *Update) pointNode(p Point) Node {
	n := u.NodeByKey(p.Key)
	if n == nil {
		return nil
	}
	if p.Type == ElementPointType {
		if el, ok := n.(elementLike); ok {
			return el.asElement().DescendantByIndex(p.Offset)
		}
	}
	return n
}

// Nodes derives the node-level range covered by the selection: every
// node between the anchor and focus boundaries in document order,
// inclusive.
func (s *RangeSelection) Nodes(u *Update) []Node {
	first := u.pointNode(s.Anchor)
	last := u.pointNode(s.Focus)
	if first == nil || last == nil {
		return nil
	}
	if first.Key() == last.Key() {
		return []Node{first}
	}
	var order []Node
	var walk func(n Node)
	walk = func(n Node) {
		order = append(order, n)
		if el, ok := n.(elementLike); ok {
			for _, child := range el.asElement().Children() {
				walk(child)
			}
		}
	}
	walk(u.doc.Root())
	lo, hi := -1, -1
	for i, n := range order {
		if n.Key() == first.Key() || n.Key() == last.Key() {
			if lo < 0 {
				lo = i
			} else {
				hi = i
			}
		}
	}
	if lo < 0 || hi < 0 {
		return nil
	}
	return order[lo : hi+1]
}

// adjustPointsOnRemoval normalizes selection points referencing the
// removed subtree to the removed node's former slot in its parent.
func (u *Update) adjustPointsOnRemoval(removed, parentKey NodeKey, index int) {
	if u.selection == nil {
		return
	}
	for _, p := range []*Point{&u.selection.Anchor, &u.selection.Focus} {
		if u.pointWithin(p.Key, removed) {
			p.Set(parentKey, index, ElementPointType)
			u.selection.dirty = true
		}
	}
}

// pointWithin walks the in-scope parent chain looking for root.
func (u *Update) pointWithin(key, root NodeKey) bool {
	for key != NullKey {
		if key == root {
			return true
		}
		n := u.NodeByKey(key)
		if n == nil {
			return false
		}
		key = n.base().parent
	}
	return false
}

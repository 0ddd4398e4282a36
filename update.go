package lexical

import (
	"github.com/codesandbox/lexical/lexical_errors"
)

// Update is an open mutation scope over a Document. It owns every
// writable clone created inside it until commit; rollback discards
// them without touching the registry. The handle is passed explicitly
// to every mutator; there is no ambient active-scope state.
type Update struct {
	doc *Document

	// writable clones and scope-fresh nodes, by key
	writable map[NodeKey]Node
	removed  map[NodeKey]struct{}

	dirtyNodes    map[NodeKey]struct{}
	dirtyElements map[NodeKey]struct{}

	selection *RangeSelection

	active bool
}

func newUpdate(doc *Document) *Update {
	u := &Update{
		doc:           doc,
		writable:      make(map[NodeKey]Node),
		removed:       make(map[NodeKey]struct{}),
		dirtyNodes:    make(map[NodeKey]struct{}),
		dirtyElements: make(map[NodeKey]struct{}),
		active:        true,
	}
	if sel := doc.selection.Load(); sel != nil {
		cp := *sel
		u.selection = &cp
	}
	return u
}

func (u *Update) check() error {
	if u == nil || !u.active {
		return lexical_errors.ErrReadOnly
	}
	return nil
}

func (u *Update) Document() *Document { return u.doc }

// NodeByKey resolves a key inside the scope: the writable clone if
// one exists, the committed version otherwise, nil for removed or
// unknown keys.
func (u *Update) NodeByKey(key NodeKey) Node {
	if _, gone := u.removed[key]; gone {
		return nil
	}
	if w, ok := u.writable[key]; ok {
		return w
	}
	return u.doc.NodeByKey(key)
}

// Writable returns the scope's writable clone for the node, creating
// it on first request by shallow-copying the latest committed fields.
// Repeated calls with the same key return the same clone.
func (u *Update) Writable(n Node) (Node, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	key := n.Key()
	if _, gone := u.removed[key]; gone {
		return nil, lexical_errors.ErrNodeUnknown
	}
	if w, ok := u.writable[key]; ok {
		return w, nil
	}
	w := latest(n).clone()
	u.writable[key] = w
	u.markDirty(w)
	return w, nil
}

func (u *Update) writableElement(el elementLike) (*ElementNode, error) {
	w, err := u.Writable(el)
	if err != nil {
		return nil, err
	}
	wel, ok := w.(elementLike)
	if !ok {
		return nil, lexical_errors.ErrNotAnElement
	}
	return wel.asElement(), nil
}

func (u *Update) markDirty(n Node) {
	if _, ok := n.(elementLike); ok {
		u.dirtyElements[n.Key()] = struct{}{}
	} else {
		u.dirtyNodes[n.Key()] = struct{}{}
	}
}

// register adds a scope-fresh node; it becomes committed state only
// if the scope commits.
func (u *Update) register(n Node) {
	u.writable[n.Key()] = n
	u.markDirty(n)
}

// Selection returns the scope's selection, nil if none exists yet.
func (u *Update) Selection() *RangeSelection {
	return u.selection
}

// SetSelection replaces the scope's selection outright.
func (u *Update) SetSelection(sel *RangeSelection) error {
	if err := u.check(); err != nil {
		return err
	}
	u.selection = sel
	if sel != nil {
		sel.dirty = true
	}
	return nil
}

// commit promotes every writable clone to the latest committed
// version, all-or-nothing from the scope's point of view: the scope
// is closed before the registry is touched, and rollback after this
// point is impossible.
func (u *Update) commit() {
	u.active = false
	doc := u.doc

	for key := range u.removed {
		doc.nodes.Delete(key)
	}
	for key, w := range u.writable {
		doc.nodes.Store(key, w)
	}
	doc.selection.Store(u.selection)

	doc.invalidateContent(u.dirtyNodes)
	doc.invalidateContent(u.dirtyElements)

	if doc.opts.Store != nil {
		if err := doc.opts.Store.persist(doc, u); err != nil {
			doc.log.Error("snapshot persist failed", "error", err)
		}
	}

	doc.committed.Add(1)
	if len(u.dirtyNodes) > 0 || len(u.dirtyElements) > 0 {
		doc.fireListeners(u.dirtyNodes, u.dirtyElements)
	}
	if u.selection != nil {
		// listeners saw the dirty flag; the committed copy starts clean
		u.selection.dirty = false
	}
}

// rollback abandons the scope; the registry keeps the pre-scope
// latest version of every touched key.
func (u *Update) rollback() {
	u.active = false
	u.writable = nil
	u.removed = nil
	u.selection = nil
	u.doc.rolledBack.Add(1)
}

package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commits root -> [p1(t1, t2), p2(t3)]
func buildSelectionDoc(t *testing.T, doc *Document) (p1, p2 *ParagraphNode, t1, t2, t3 *TextNode) {
	mustUpdate(t, doc, func(u *Update) error {
		p1, _ = NewParagraphNode(u)
		p2, _ = NewParagraphNode(u)
		if err := doc.Root().Append(u, p1, p2); err != nil {
			return err
		}
		t1, _ = NewTextNode(u, "first")
		t2, _ = NewTextNode(u, "second")
		if err := p1.Append(u, t1, t2); err != nil {
			return err
		}
		t3, _ = NewTextNode(u, "third")
		return p2.Append(u, t3)
	})
	return
}

func TestElementSelectDefaultsToEnd(t *testing.T) {
	doc := newTestDoc(t)
	var p *ParagraphNode
	mustUpdate(t, doc, func(u *Update) error {
		p, _ = NewParagraphNode(u)
		if err := doc.Root().Append(u, p); err != nil {
			return err
		}
		for _, s := range []string{"a", "b", "c", "d"} {
			tn, _ := NewTextNode(u, s)
			if err := p.Append(u, tn); err != nil {
				return err
			}
		}
		return nil
	})

	mustUpdate(t, doc, func(u *Update) error {
		sel, err := p.Select(u)
		require.NoError(t, err)
		assert.Equal(t, Point{p.Key(), 4, ElementPointType}, sel.Anchor)
		assert.Equal(t, Point{p.Key(), 4, ElementPointType}, sel.Focus)
		assert.True(t, sel.IsCollapsed())
		return nil
	})

	sel := doc.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, 4, sel.Anchor.Offset)
	assert.False(t, sel.IsDirty())
}

func TestElementSelectClamps(t *testing.T) {
	doc := newTestDoc(t)
	p1, _, _, _, _ := buildSelectionDoc(t, doc)
	mustUpdate(t, doc, func(u *Update) error {
		sel, err := p1.Select(u, -3, 99)
		require.NoError(t, err)
		assert.Equal(t, 0, sel.Anchor.Offset)
		assert.Equal(t, 2, sel.Focus.Offset)
		return nil
	})
}

func TestTextSelect(t *testing.T) {
	doc := newTestDoc(t)
	_, _, t1, _, _ := buildSelectionDoc(t, doc)
	mustUpdate(t, doc, func(u *Update) error {
		sel, err := t1.Select(u, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, Point{t1.Key(), 1, TextPointType}, sel.Anchor)
		assert.Equal(t, Point{t1.Key(), 3, TextPointType}, sel.Focus)

		// offsets clamp to the rune count
		sel, err = t1.Select(u, 0, 50)
		require.NoError(t, err)
		assert.Equal(t, t1.TextContentSize(), sel.Focus.Offset)
		return nil
	})
}

func TestSelectStartEnd(t *testing.T) {
	doc := newTestDoc(t)
	_, _, t1, _, t3 := buildSelectionDoc(t, doc)
	root := doc.Root()

	mustUpdate(t, doc, func(u *Update) error {
		sel, err := root.SelectStart(u)
		require.NoError(t, err)
		assert.Equal(t, Point{t1.Key(), 0, TextPointType}, sel.Anchor)

		sel, err = root.SelectEnd(u)
		require.NoError(t, err)
		size := t3.TextContentSize()
		assert.Equal(t, Point{t3.Key(), size, TextPointType}, sel.Focus)
		return nil
	})
}

func TestSelectAroundLineBreak(t *testing.T) {
	doc := newTestDoc(t)
	var p *ParagraphNode
	var br *LineBreakNode
	mustUpdate(t, doc, func(u *Update) error {
		p, _ = NewParagraphNode(u)
		if err := doc.Root().Append(u, p); err != nil {
			return err
		}
		br, _ = NewLineBreakNode(u)
		return p.Append(u, br)
	})

	// a lone line break cannot hold the cursor; the paragraph slot does
	mustUpdate(t, doc, func(u *Update) error {
		sel, err := p.SelectStart(u)
		require.NoError(t, err)
		assert.Equal(t, Point{p.Key(), 0, ElementPointType}, sel.Anchor)

		sel, err = p.SelectEnd(u)
		require.NoError(t, err)
		assert.Equal(t, Point{p.Key(), 1, ElementPointType}, sel.Focus)

		sel, err = br.SelectPrevious(u)
		require.NoError(t, err)
		assert.Equal(t, 0, sel.Anchor.Offset)

		sel, err = br.SelectNext(u)
		require.NoError(t, err)
		assert.Equal(t, 1, sel.Anchor.Offset)
		return nil
	})
}

func TestSelectionNodes(t *testing.T) {
	doc := newTestDoc(t)
	_, p2, t1, t2, t3 := buildSelectionDoc(t, doc)

	mustUpdate(t, doc, func(u *Update) error {
		if _, err := t1.Select(u, 0, 0); err != nil {
			return err
		}
		sel := u.Selection()
		sel.Focus.Set(t3.Key(), 2, TextPointType)
		if err := u.SetSelection(sel); err != nil {
			return err
		}

		nodes := sel.Nodes(u)
		keys := make([]NodeKey, 0, len(nodes))
		for _, n := range nodes {
			keys = append(keys, n.Key())
		}
		assert.Equal(t, []NodeKey{t1.Key(), t2.Key(), p2.Key(), t3.Key()}, keys)

		// reversed direction covers the same range
		sel.Anchor.Set(t3.Key(), 2, TextPointType)
		sel.Focus.Set(t1.Key(), 0, TextPointType)
		assert.Len(t, sel.Nodes(u), 4)
		return nil
	})
}

func TestSelectionNodesCollapsed(t *testing.T) {
	doc := newTestDoc(t)
	_, _, t1, _, _ := buildSelectionDoc(t, doc)
	mustUpdate(t, doc, func(u *Update) error {
		sel, err := t1.Select(u, 2, 2)
		require.NoError(t, err)
		nodes := sel.Nodes(u)
		require.Len(t, nodes, 1)
		assert.Equal(t, t1.Key(), nodes[0].Key())
		return nil
	})
}

func TestRemovalNormalizesSelection(t *testing.T) {
	doc := newTestDoc(t)
	p1, _, t1, _, _ := buildSelectionDoc(t, doc)
	root := doc.Root()

	mustUpdate(t, doc, func(u *Update) error {
		_, err := t1.Select(u, 3, 3)
		return err
	})

	mustUpdate(t, doc, func(u *Update) error {
		return u.Remove(p1)
	})

	sel := doc.Selection()
	require.NotNil(t, sel)
	// both points land on the removed paragraph's former slot
	assert.Equal(t, Point{root.Key(), 0, ElementPointType}, sel.Anchor)
	assert.Equal(t, Point{root.Key(), 0, ElementPointType}, sel.Focus)
}

func TestSelectionReadableInsideScope(t *testing.T) {
	doc := newTestDoc(t)
	_, _, t1, t2, _ := buildSelectionDoc(t, doc)
	mustUpdate(t, doc, func(u *Update) error {
		_, err := t1.Select(u, 1, 1)
		return err
	})

	mustUpdate(t, doc, func(u *Update) error {
		if _, err := t2.Select(u, 0, 0); err != nil {
			return err
		}
		// the committed view stays at the previous selection while
		// the scope is open
		committed := doc.Selection()
		require.NotNil(t, committed)
		assert.Equal(t, t1.Key(), committed.Anchor.Key)
		assert.Equal(t, t2.Key(), u.Selection().Anchor.Key)
		return nil
	})

	assert.Equal(t, t2.Key(), doc.Selection().Anchor.Key)
}

func TestPointResolve(t *testing.T) {
	doc := newTestDoc(t)
	p1, _, t1, _, _ := buildSelectionDoc(t, doc)

	tp := Point{Key: t1.Key(), Offset: 1, Type: TextPointType}
	assert.Equal(t, t1.Key(), tp.Resolve(doc).Key())

	ep := Point{Key: p1.Key(), Offset: 1, Type: ElementPointType}
	mustUpdate(t, doc, func(u *Update) error {
		assert.Equal(t, p1.Key(), u.ResolvePoint(ep).Key())
		// element points resolve to the boundary descendant
		n := u.pointNode(ep)
		require.NotNil(t, n)
		assert.Equal(t, KindText, n.Kind())
		return nil
	})

	stale := Point{Key: NodeKey(9999), Type: TextPointType}
	assert.Nil(t, stale.Resolve(doc))
}

package lexical

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc := newTestDoc(t)
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, NodeKey(1), root.Key())
	assert.Equal(t, NullKey, root.ParentKey())
	assert.True(t, root.IsEmpty())
	assert.Equal(t, 1, doc.Size())
	assert.Nil(t, doc.Selection())
	assert.NotEqual(t, "", doc.ID().String())
}

func TestNodeByKey(t *testing.T) {
	doc := newTestDoc(t)
	p, tn := buildDoc(t, doc)
	assert.Nil(t, doc.NodeByKey(NodeKey(777)))
	assert.Equal(t, p.Key(), doc.NodeByKey(p.Key()).Key())
	assert.Equal(t, tn.Key(), doc.NodeByKey(tn.Key()).Key())
	assert.Equal(t, 3, doc.Size())
}

func TestUpdateListener(t *testing.T) {
	doc := newTestDoc(t)
	p, tn := buildDoc(t, doc)

	var gotNodes, gotElements map[NodeKey]struct{}
	calls := 0
	doc.AddListener("test", func(d *Document, dirtyNodes, dirtyElements map[NodeKey]struct{}) {
		calls++
		gotNodes, gotElements = dirtyNodes, dirtyElements
	})

	mustUpdate(t, doc, func(u *Update) error {
		return tn.SetText(u, "changed")
	})
	require.Equal(t, 1, calls)
	assert.Contains(t, gotNodes, tn.Key())
	assert.NotContains(t, gotElements, tn.Key())

	mustUpdate(t, doc, func(u *Update) error {
		return p.SetIndent(u, 1)
	})
	require.Equal(t, 2, calls)
	assert.Contains(t, gotElements, p.Key())

	// a clean scope fires nothing
	mustUpdate(t, doc, func(u *Update) error { return nil })
	assert.Equal(t, 2, calls)

	require.NoError(t, doc.RemoveListener("test"))
	mustUpdate(t, doc, func(u *Update) error {
		return tn.SetText(u, "again")
	})
	assert.Equal(t, 2, calls)

	assert.ErrorIs(t, doc.RemoveListener("missing"), ErrListenerNotFound)
}

func TestListenerSkippedOnRollback(t *testing.T) {
	doc := newTestDoc(t)
	_, tn := buildDoc(t, doc)

	calls := 0
	doc.AddListener("test", func(d *Document, dirtyNodes, dirtyElements map[NodeKey]struct{}) {
		calls++
	})
	err := doc.Update(func(u *Update) error {
		if err := tn.SetText(u, "never"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestDocumentCollector(t *testing.T) {
	doc := newTestDoc(t)
	buildDoc(t, doc)

	dc := NewDocumentCollector(doc)
	assert.Equal(t, 5, testutil.CollectAndCount(dc))
}

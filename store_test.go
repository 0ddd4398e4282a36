package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	doc, err := NewDocument(Options{Store: store})
	require.NoError(t, err)

	var p *ParagraphNode
	var tn *TextNode
	mustUpdate(t, doc, func(u *Update) error {
		p, _ = NewParagraphNode(u)
		if err := doc.Root().Append(u, p); err != nil {
			return err
		}
		if err := p.SetFormat(u, FormatAlignRight); err != nil {
			return err
		}
		if err := p.SetIndent(u, 2); err != nil {
			return err
		}
		tn, _ = NewTextNode(u, "שלום world")
		br, _ := NewLineBreakNode(u)
		return p.Append(u, tn, br)
	})

	loaded, err := LoadDocument(store, Options{})
	require.NoError(t, err)

	assert.Equal(t, doc.ID(), loaded.ID())
	assert.Equal(t, doc.Size(), loaded.Size())

	root := loaded.Root()
	require.Equal(t, 1, root.ChildrenSize())
	lp, ok := root.FirstChild().(*ParagraphNode)
	require.True(t, ok)
	assert.Equal(t, p.Key(), lp.Key())
	assert.Equal(t, FormatAlignRight, lp.Format())
	assert.Equal(t, 2, lp.Indent())
	assert.Equal(t, DirRTL, lp.Direction())
	assert.Equal(t, "שלום world\n", lp.TextContent(false, false))

	lt, ok := lp.FirstChild().(*TextNode)
	require.True(t, ok)
	assert.Equal(t, tn.Key(), lt.Key())
	assert.Equal(t, "שלום world", lt.Text())
	assert.Equal(t, KindLineBreak, lp.LastChild().Kind())
}

func TestStoreKeyIssuanceResumes(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	doc, err := NewDocument(Options{Store: store})
	require.NoError(t, err)
	buildDoc(t, doc)

	loaded, err := LoadDocument(store, Options{})
	require.NoError(t, err)

	var fresh *TextNode
	mustUpdate(t, loaded, func(u *Update) error {
		fresh, _ = NewTextNode(u, "new")
		p := loaded.Root().FirstChild().(*ParagraphNode)
		return p.Append(u, fresh)
	})
	assert.Greater(t, uint64(fresh.Key()), uint64(3))
	assert.NotNil(t, loaded.NodeByKey(fresh.Key()))
}

func TestStorePersistsRemovals(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	doc, err := NewDocument(Options{Store: store})
	require.NoError(t, err)
	p, tn := buildDoc(t, doc)

	mustUpdate(t, doc, func(u *Update) error {
		return u.Remove(p)
	})

	loaded, err := LoadDocument(store, Options{})
	require.NoError(t, err)
	assert.Nil(t, loaded.NodeByKey(p.Key()))
	assert.Nil(t, loaded.NodeByKey(tn.Key()))
	assert.Equal(t, 1, loaded.Size())
}

func TestStoreSkipsUnchanged(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	doc, err := NewDocument(Options{Store: store})
	require.NoError(t, err)
	p, tn := buildDoc(t, doc)

	h1, ok := store.hashes.Load(p.Key())
	require.True(t, ok)

	// touching the text leaves the paragraph payload identical
	mustUpdate(t, doc, func(u *Update) error {
		return tn.SetText(u, "other")
	})
	h2, ok := store.hashes.Load(p.Key())
	require.True(t, ok)
	assert.Equal(t, h1, h2)

	mustUpdate(t, doc, func(u *Update) error {
		return p.SetIndent(u, 4)
	})
	h3, _ := store.hashes.Load(p.Key())
	assert.NotEqual(t, h1, h3)
}

func TestStoreClosed(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Error(t, store.Close())
	_, err = LoadDocument(store, Options{})
	assert.Error(t, err)
}

func TestDocumentEncodeDecode(t *testing.T) {
	doc := newTestDoc(t)
	p, _ := buildDoc(t, doc)

	blob := EncodeDocument(doc)
	decoded, err := DecodeDocument(blob, Options{})
	require.NoError(t, err)

	assert.Equal(t, doc.ID(), decoded.ID())
	assert.Equal(t, doc.Size(), decoded.Size())
	assert.Equal(t, "hello", decoded.Root().TextContent(false, false))

	// decoded documents accept further updates
	mustUpdate(t, decoded, func(u *Update) error {
		fresh, _ := NewTextNode(u, "!")
		dp, ok := decoded.NodeByKey(p.Key()).(*ParagraphNode)
		require.True(t, ok)
		return dp.Append(u, fresh)
	})
	assert.Equal(t, "hello!", decoded.Root().TextContent(false, false))

	_, err = DecodeDocument([]byte("garbage"), Options{})
	assert.Error(t, err)
	_, err = DecodeDocument(blob[:len(blob)-2], Options{})
	assert.Error(t, err)
	_, err = DecodeDocument(nil, Options{})
	assert.Error(t, err)
}

func TestNodeRecordCodec(t *testing.T) {
	doc := newTestDoc(t)
	p, tn := buildDoc(t, doc)

	for _, n := range []Node{doc.Root(), latest(p), latest(tn)} {
		payload := encodeNode(latest(n))
		decoded, err := decodeNode(doc, payload)
		require.NoError(t, err)
		assert.Equal(t, n.Key(), decoded.Key())
		assert.Equal(t, n.Kind(), decoded.Kind())
		assert.Equal(t, n.base().parent, decoded.base().parent)
	}

	_, err := decodeNode(doc, []byte{0})
	assert.ErrorIs(t, err, ErrBadNodeRecord)
}

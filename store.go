package lexical

import (
	"bytes"
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/cockroachdb/pebble"
	"github.com/codesandbox/lexical/lexical_errors"
	"github.com/codesandbox/lexical/protocol"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var WriteOptions = pebble.WriteOptions{Sync: false}

// Store key layout: lit 'N' + big-endian node key for node records,
// 'R' for the root key, 'D' for the document id.
func NKey(key NodeKey) []byte {
	var ret = [16]byte{'N'}
	return binary.BigEndian.AppendUint64(ret[:1], uint64(key))
}

const nKeyLen = 1 + 8

func NKeyNodeKey(k []byte) NodeKey {
	if len(k) != nKeyLen || k[0] != 'N' {
		return NullKey
	}
	return NodeKey(binary.BigEndian.Uint64(k[1:]))
}

var keyRoot = []byte{'R'}
var keyDocID = []byte{'D'}

// Store persists committed node state to a pebble database, written
// incrementally from the dirty sets at every commit. Unchanged nodes
// are skipped by payload hash.
type Store struct {
	db     *pebble.DB
	dir    string
	hashes *xsync.MapOf[NodeKey, uint64]
}

func OpenStore(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "lexical: cannot open snapshot store")
	}
	return &Store{
		db:     db,
		dir:    dir,
		hashes: xsync.NewMapOf[NodeKey, uint64](),
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Close() error {
	if s.db == nil {
		return lexical_errors.ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// init records a fresh document's identity and whatever nodes it
// starts with (the root).
func (s *Store) init(doc *Document) error {
	b := s.db.NewBatch()
	_ = b.Set(keyDocID, []byte(doc.id.String()), nil)
	_ = b.Set(keyRoot, protocol.ZipUint64(uint64(doc.rootKey)), nil)
	var err error
	doc.nodes.Range(func(key NodeKey, n Node) bool {
		payload := encodeNode(n)
		s.hashes.Store(key, xxhash.Sum64(payload))
		err = b.Set(NKey(key), payload, nil)
		return err == nil
	})
	if err != nil {
		return errors.Wrap(err, "lexical: snapshot init")
	}
	return errors.Wrap(s.db.Apply(b, &WriteOptions), "lexical: snapshot init")
}

// persist flushes one committed scope: deletes for removed keys,
// re-encoded records for touched ones.
func (s *Store) persist(doc *Document, u *Update) error {
	if s.db == nil {
		return lexical_errors.ErrClosed
	}
	b := s.db.NewBatch()
	for key := range u.removed {
		_ = b.Delete(NKey(key), nil)
		s.hashes.Delete(key)
	}
	for key, n := range u.writable {
		payload := encodeNode(n)
		h := xxhash.Sum64(payload)
		if prev, ok := s.hashes.Load(key); ok && prev == h {
			continue
		}
		_ = b.Set(NKey(key), payload, nil)
		s.hashes.Store(key, h)
	}
	return errors.Wrap(s.db.Apply(b, &WriteOptions), "lexical: snapshot persist")
}

// Node record TLV: outer lit is the node kind; inside, tiny records
// for key ('K'), parent ('P'), flags ('G'), then kind-specific fields
// (children 'C', format 'M', indent 'I', text 'S').
func encodeNode(n Node) []byte {
	body := protocol.Join(
		protocol.TinyRecord('K', protocol.ZipUint64(uint64(n.Key()))),
		protocol.TinyRecord('P', protocol.ZipUint64(uint64(n.base().parent))),
		protocol.TinyRecord('G', protocol.ZipUint64(uint64(n.base().flags))),
	)
	switch node := n.(type) {
	case elementLike:
		el := node.asElement()
		var childbuf []byte
		for _, key := range el.children {
			childbuf = protocol.AppendZipUint64(childbuf, uint64(key))
		}
		body = protocol.Join(body,
			protocol.TinyRecord('M', protocol.ZipUint64(uint64(el.format))),
			protocol.TinyRecord('I', protocol.ZipUint64(uint64(el.indent))),
			protocol.Record('C', childbuf),
		)
	case *TextNode:
		body = protocol.Join(body, protocol.Record('S', []byte(node.text)))
	}
	return protocol.Record(n.Kind(), body)
}

var ErrBadNodeRecord = errors.New("lexical: bad node record")

// decodeNode reconstructs a node from its record. The load path owns
// the document exclusively, so it writes fields directly instead of
// going through an update scope.
func decodeNode(doc *Document, payload []byte) (Node, error) {
	kind, body, _, err := protocol.TakeAnyWary(payload)
	if err != nil {
		return nil, ErrBadNodeRecord
	}
	kbody, rest := protocol.Take('K', body)
	pbody, rest := protocol.Take('P', rest)
	gbody, rest := protocol.Take('G', rest)
	if kbody == nil || pbody == nil || gbody == nil {
		return nil, ErrBadNodeRecord
	}
	base := baseNode{
		doc:    doc,
		key:    NodeKey(protocol.UnzipUint64(kbody)),
		parent: NodeKey(protocol.UnzipUint64(pbody)),
		flags:  uint32(protocol.UnzipUint64(gbody)),
	}
	if base.key == NullKey {
		return nil, ErrBadNodeRecord
	}
	switch kind {
	case KindElement, KindParagraph:
		mbody, rest2 := protocol.Take('M', rest)
		ibody, rest2 := protocol.Take('I', rest2)
		cbody, _ := protocol.Take('C', rest2)
		if mbody == nil || ibody == nil || cbody == nil {
			return nil, ErrBadNodeRecord
		}
		el := ElementNode{
			baseNode: base,
			format:   ElementFormat(protocol.UnzipUint64(mbody)),
			indent:   int(protocol.UnzipUint64(ibody)),
		}
		for len(cbody) > 0 {
			var child uint64
			child, cbody = protocol.TakeZipUint64(cbody)
			el.children = append(el.children, NodeKey(child))
		}
		if kind == KindParagraph {
			return &ParagraphNode{el}, nil
		}
		return &el, nil
	case KindText:
		sbody, _ := protocol.Take('S', rest)
		if sbody == nil {
			return nil, ErrBadNodeRecord
		}
		return &TextNode{baseNode: base, text: string(sbody)}, nil
	case KindLineBreak:
		return &LineBreakNode{baseNode: base}, nil
	default:
		return nil, ErrBadNodeRecord
	}
}

// LoadDocument rebuilds a document from a store and reattaches the
// store for further commits. Key issuance resumes above the highest
// persisted key.
func LoadDocument(store *Store, opts Options) (*Document, error) {
	if store.db == nil {
		return nil, lexical_errors.ErrClosed
	}
	opts.SetDefaults()
	opts.Store = store

	idval, closer, err := store.db.Get(keyDocID)
	if err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot load")
	}
	id, err := uuid.Parse(string(idval))
	_ = closer.Close()
	if err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot load")
	}
	rootval, closer, err := store.db.Get(keyRoot)
	if err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot load")
	}
	rootKey := NodeKey(protocol.UnzipUint64(rootval))
	_ = closer.Close()

	cache, err := lru.New[NodeKey, string](opts.ContentCacheSize)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		id:        id,
		rootKey:   rootKey,
		nodes:     xsync.NewMapOf[NodeKey, Node](),
		listeners: xsync.NewMapOf[string, UpdateListener](),
		content:   cache,
		opts:      opts,
		log:       opts.Logger.With("document", id.String()),
	}

	it, err := store.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'N'},
		UpperBound: []byte{'O'},
	})
	if err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot load")
	}
	var maxKey NodeKey
	for it.First(); it.Valid(); it.Next() {
		key := NKeyNodeKey(it.Key())
		if key == NullKey {
			continue
		}
		payload := append([]byte(nil), it.Value()...)
		n, err := decodeNode(doc, payload)
		if err != nil {
			_ = it.Close()
			return nil, err
		}
		doc.nodes.Store(key, n)
		store.hashes.Store(key, xxhash.Sum64(payload))
		if key > maxKey {
			maxKey = key
		}
	}
	if err := it.Close(); err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot load")
	}
	if doc.NodeByKey(rootKey) == nil {
		return nil, lexical_errors.ErrNodeUnknown
	}
	doc.nextKey.Store(uint64(maxKey))
	return doc, nil
}

// EncodeDocument flattens the committed document into a single TLV
// stream: the document id ('D'), the root key ('R'), then one record
// per node. The stream is self-contained and store-independent;
// DecodeDocument rebuilds a document from it.
func EncodeDocument(doc *Document) []byte {
	recs := protocol.Records{
		protocol.Record('D', []byte(doc.id.String())),
		protocol.Record('R', protocol.ZipUint64(uint64(doc.rootKey))),
	}
	doc.nodes.Range(func(key NodeKey, n Node) bool {
		recs = append(recs, encodeNode(n))
		return true
	})
	doc.log.Debug("document encoded", "records", len(recs), "bytes", recs.TotalLen())
	return protocol.Concat(recs...)
}

// DecodeDocument rebuilds a document from an EncodeDocument stream.
func DecodeDocument(data []byte, opts Options) (*Document, error) {
	opts.SetDefaults()
	recs, err := protocol.Split(bytes.NewBuffer(data))
	if err != nil {
		return nil, errors.Wrap(err, "lexical: snapshot decode")
	}
	cache, err := lru.New[NodeKey, string](opts.ContentCacheSize)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		nodes:     xsync.NewMapOf[NodeKey, Node](),
		listeners: xsync.NewMapOf[string, UpdateListener](),
		content:   cache,
		opts:      opts,
	}
	var maxKey NodeKey
	for _, rec := range recs {
		switch protocol.Lit(rec) {
		case 'D':
			body, _, err := protocol.TakeWary('D', rec)
			if err != nil {
				return nil, ErrBadNodeRecord
			}
			if doc.id, err = uuid.Parse(string(body)); err != nil {
				return nil, errors.Wrap(err, "lexical: snapshot decode")
			}
		case 'R':
			body, _, err := protocol.TakeWary('R', rec)
			if err != nil {
				return nil, ErrBadNodeRecord
			}
			doc.rootKey = NodeKey(protocol.UnzipUint64(body))
		default:
			n, err := decodeNode(doc, rec)
			if err != nil {
				return nil, err
			}
			doc.nodes.Store(n.Key(), n)
			if n.Key() > maxKey {
				maxKey = n.Key()
			}
		}
	}
	if doc.NodeByKey(doc.rootKey) == nil {
		return nil, lexical_errors.ErrNodeUnknown
	}
	doc.nextKey.Store(uint64(maxKey))
	doc.log = opts.Logger.With("document", doc.id.String())
	return doc, nil
}

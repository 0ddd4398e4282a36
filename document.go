package lexical

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/codesandbox/lexical/utils"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

type Options struct {
	Logger utils.Logger

	// Store, when set, receives committed node state after every
	// update and can restore the document later.
	Store *Store

	// ContentCacheSize bounds the committed text-content cache.
	ContentCacheSize int
}

func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelError)
	}
	if o.ContentCacheSize == 0 {
		o.ContentCacheSize = 1024
	}
}

// UpdateListener is fired after each committed update with the keys
// that were touched. Reconciliation layers consume these to project
// the tree onto a presentation surface.
type UpdateListener func(doc *Document, dirtyNodes, dirtyElements map[NodeKey]struct{})

// Document owns the node registry: the authoritative latest committed
// version of every node, keyed by NodeKey. All mutation goes through
// Update; reads outside an update only ever see committed state.
type Document struct {
	id      uuid.UUID
	rootKey NodeKey

	nodes   *xsync.MapOf[NodeKey, Node]
	nextKey atomic.Uint64

	// one update scope at a time; scopes do not nest
	updLock   sync.Mutex
	selection atomic.Pointer[RangeSelection]

	listeners *xsync.MapOf[string, UpdateListener]
	content   *lru.Cache[NodeKey, string]

	committed  atomic.Uint64
	rolledBack atomic.Uint64
	created    atomic.Uint64

	opts Options
	log  utils.Logger
}

// NewDocument creates an empty document: a registry holding a single
// root element.
func NewDocument(opts Options) (*Document, error) {
	opts.SetDefaults()
	cache, err := lru.New[NodeKey, string](opts.ContentCacheSize)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	doc := &Document{
		id:        id,
		nodes:     xsync.NewMapOf[NodeKey, Node](),
		listeners: xsync.NewMapOf[string, UpdateListener](),
		content:   cache,
		opts:      opts,
		log:       opts.Logger.With("document", id.String()),
	}
	root := &ElementNode{baseNode: baseNode{doc: doc, key: doc.issueKey()}}
	doc.rootKey = root.key
	doc.nodes.Store(root.key, root)
	if opts.Store != nil {
		if err := opts.Store.init(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *Document) issueKey() NodeKey {
	d.created.Add(1)
	return NodeKey(d.nextKey.Add(1))
}

func (d *Document) ID() uuid.UUID { return d.id }

func (d *Document) Logger() utils.Logger { return d.log }

// Root returns the document's root element.
func (d *Document) Root() *ElementNode {
	n, _ := d.NodeByKey(d.rootKey).(*ElementNode)
	return n
}

// NodeByKey returns the latest committed version of the node, or nil
// if the key is unknown or the node was removed.
func (d *Document) NodeByKey(key NodeKey) Node {
	if key == NullKey {
		return nil
	}
	n, ok := d.nodes.Load(key)
	if !ok {
		return nil
	}
	return n
}

// Size is the number of registered (committed) nodes.
func (d *Document) Size() int {
	return d.nodes.Size()
}

// Selection returns the committed selection, nil if none was made.
// Safe to call inside an open update scope; it sees the committed
// state, not the scope's (use Update.Selection for that).
func (d *Document) Selection() *RangeSelection {
	return d.selection.Load()
}

// Update opens a serialized mutation scope, runs fn inside it, and
// commits the writable clones if fn returns nil. A non-nil error
// rolls the whole scope back; no clone is promoted.
func (d *Document) Update(fn func(u *Update) error) error {
	d.updLock.Lock()
	defer d.updLock.Unlock()

	u := newUpdate(d)
	if err := fn(u); err != nil {
		u.rollback()
		return err
	}
	u.commit()
	return nil
}

// AddListener registers a commit listener under a name; an existing
// listener under the same name is replaced.
func (d *Document) AddListener(name string, l UpdateListener) {
	d.listeners.Store(name, l)
}

var ErrListenerNotFound = errors.New("lexical: listener not found")

func (d *Document) RemoveListener(name string) error {
	if _, ok := d.listeners.LoadAndDelete(name); !ok {
		return ErrListenerNotFound
	}
	return nil
}

func (d *Document) fireListeners(dirtyNodes, dirtyElements map[NodeKey]struct{}) {
	d.listeners.Range(func(name string, l UpdateListener) bool {
		l(d, dirtyNodes, dirtyElements)
		return true
	})
}

// invalidateContent drops cached text content for the dirty keys and
// every committed ancestor, since element content aggregates children.
func (d *Document) invalidateContent(dirty map[NodeKey]struct{}) {
	for key := range dirty {
		d.content.Remove(key)
		n := d.NodeByKey(key)
		for n != nil {
			parent := n.base().parent
			if parent == NullKey {
				break
			}
			d.content.Remove(parent)
			n = d.NodeByKey(parent)
		}
	}
}

package lexical

// ParagraphNode is the canonical element specialization: a block that
// may be empty, collapses into its parent at the start, and spawns a
// sibling paragraph on insert-after.
type ParagraphNode struct {
	ElementNode
}

func NewParagraphNode(u *Update) (*ParagraphNode, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	p := &ParagraphNode{ElementNode{baseNode: baseNode{doc: u.doc, key: u.doc.issueKey()}}}
	u.register(p)
	return p, nil
}

func (p *ParagraphNode) Kind() byte { return KindParagraph }

func (p *ParagraphNode) clone() Node {
	cp := *p
	cp.children = append([]NodeKey(nil), p.children...)
	return &cp
}

// InsertNewAfter continues the block flow: a fresh paragraph under
// the same parent.
func (p *ParagraphNode) InsertNewAfter(u *Update) (Node, error) {
	parent := Parent(p)
	if parent == nil {
		return nil, nil
	}
	next, err := NewParagraphNode(u)
	if err != nil {
		return nil, err
	}
	if err := parent.Append(u, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (p *ParagraphNode) CollapseAtStart(u *Update) bool { return true }

package lexical

import "unicode/utf8"

// TextNode is the text-bearing leaf. Formatting marks beyond the
// inert flag are left to specializations.
type TextNode struct {
	baseNode
	text string
}

// NewTextNode creates a detached text leaf inside the scope.
func NewTextNode(u *Update, text string) (*TextNode, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	tn := &TextNode{baseNode: baseNode{doc: u.doc, key: u.doc.issueKey()}, text: text}
	u.register(tn)
	return tn, nil
}

func (tn *TextNode) Kind() byte { return KindText }

func (tn *TextNode) clone() Node {
	cp := *tn
	return &cp
}

func (tn *TextNode) latest() *TextNode {
	if lat, ok := tn.doc.NodeByKey(tn.key).(*TextNode); ok {
		return lat
	}
	return tn
}

func (tn *TextNode) Text() string {
	return tn.latest().text
}

// TextContentSize is the character (rune) count, the unit text-point
// offsets are expressed in.
func (tn *TextNode) TextContentSize() int {
	return utf8.RuneCountInString(tn.Text())
}

func (tn *TextNode) TextContent(includeInert, includeDirectionless bool) string {
	lat := tn.latest()
	if lat.IsInert() && !includeInert {
		return ""
	}
	if lat.IsDirectionless() && !includeDirectionless {
		return ""
	}
	return lat.text
}

// IsInert marks logically hidden content, excluded from normal text
// aggregation.
func (tn *TextNode) IsInert() bool {
	return tn.Flags()&FlagTextInert != 0
}

func (tn *TextNode) SetText(u *Update, text string) error {
	w, err := u.Writable(tn)
	if err != nil {
		return err
	}
	w.(*TextNode).text = text
	return nil
}

func (tn *TextNode) SetInert(u *Update, inert bool) error {
	w, err := u.Writable(tn)
	if err != nil {
		return err
	}
	if inert {
		w.base().flags |= FlagTextInert
	} else {
		w.base().flags &^= FlagTextInert
	}
	return nil
}

func (tn *TextNode) SetDirectionless(u *Update, directionless bool) error {
	w, err := u.Writable(tn)
	if err != nil {
		return err
	}
	if directionless {
		w.base().flags |= FlagDirectionless
	} else {
		w.base().flags &^= FlagDirectionless
	}
	return nil
}

// Select points both ends of the selection into this leaf's
// characters. Offsets are clamped to the text length.
func (tn *TextNode) Select(u *Update, anchorOffset, focusOffset int) (*RangeSelection, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	size := tn.TextContentSize()
	if w, ok := u.writable[tn.key]; ok {
		size = utf8.RuneCountInString(w.(*TextNode).text)
	}
	anchorOffset = clampOffset(anchorOffset, size)
	focusOffset = clampOffset(focusOffset, size)
	return u.setPoints(tn.key, anchorOffset, TextPointType, tn.key, focusOffset, TextPointType)
}

func clampOffset(off, size int) int {
	if off < 0 {
		return 0
	}
	if off > size {
		return size
	}
	return off
}

// LineBreakNode is a leaf that cannot hold an internal cursor;
// selecting it lands on a neighbor instead.
type LineBreakNode struct {
	baseNode
}

func NewLineBreakNode(u *Update) (*LineBreakNode, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	br := &LineBreakNode{baseNode: baseNode{doc: u.doc, key: u.doc.issueKey()}}
	u.register(br)
	return br, nil
}

func (br *LineBreakNode) Kind() byte { return KindLineBreak }

func (br *LineBreakNode) clone() Node {
	cp := *br
	return &cp
}

func (br *LineBreakNode) TextContent(includeInert, includeDirectionless bool) string {
	return "\n"
}

// SelectPrevious moves the selection just before this node: into the
// previous sibling's end, or the parent slot when there is none.
func (br *LineBreakNode) SelectPrevious(u *Update) (*RangeSelection, error) {
	return selectPrevious(u, br)
}

// SelectNext moves the selection just after this node.
func (br *LineBreakNode) SelectNext(u *Update) (*RangeSelection, error) {
	return selectNext(u, br)
}

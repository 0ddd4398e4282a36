package lexical

import "strconv"

// NodeKey is an opaque, document-unique identifier, stable for the
// node's lifetime. It is the only legal way to reference another
// node; holding a pointer to a node across updates aliases stale
// clones.
type NodeKey uint64

// NullKey is the zero key; it never resolves to a node.
const NullKey = NodeKey(0)

func (k NodeKey) String() string {
	return strconv.FormatUint(uint64(k), 10)
}

// Node flag bits. Direction bits live on any node kind; the leaf
// bits only mean anything on text nodes. FlagDirectionless marks a
// node with no intrinsic directionality: its direction is derived
// from content when it is attached, and its text is excluded from
// direction-sensitive aggregation by default.
const (
	FlagDirectionLTR = uint32(1) << iota
	FlagDirectionRTL
	FlagTextInert
	FlagDirectionless
)

// Element format bits.
type ElementFormat uint32

const (
	FormatAlignLeft ElementFormat = 1 << iota
	FormatAlignCenter
	FormatAlignRight
	FormatAlignJustify
)

// Direction is the tri-state text direction of a node: DirLTR,
// DirRTL, or DirNone when the node is directionless.
type Direction byte

const (
	DirNone = Direction(0)
	DirLTR  = Direction('L')
	DirRTL  = Direction('R')
)

func (d Direction) String() string {
	switch d {
	case DirLTR:
		return "ltr"
	case DirRTL:
		return "rtl"
	default:
		return ""
	}
}

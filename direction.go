package lexical

import "golang.org/x/text/unicode/bidi"

// textDirection scans for the first strongly-directional character
// (UAX#9 classes L, R, AL) and maps it to a Direction.
func textDirection(text string) Direction {
	for _, r := range text {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return DirLTR
		case bidi.R, bidi.AL:
			return DirRTL
		}
	}
	return DirNone
}

// resolveDirection derives a direction for a node that has none of
// its own, from its flattened text content, and propagates it up
// through ancestors that are still undirected. Invoked when a
// directionless node is attached to a parent.
func resolveDirection(u *Update, n Node) error {
	dir := textDirection(n.TextContent(false, true))
	if dir == DirNone {
		return nil
	}
	var bit uint32
	if dir == DirLTR {
		bit = FlagDirectionLTR
	} else {
		bit = FlagDirectionRTL
	}
	w, err := u.Writable(n)
	if err != nil {
		return err
	}
	if w.base().flags&(FlagDirectionLTR|FlagDirectionRTL) == 0 {
		w.base().flags |= bit
	}
	key := w.base().parent
	for key != NullKey {
		anc := u.NodeByKey(key)
		if anc == nil {
			break
		}
		if anc.base().flags&(FlagDirectionLTR|FlagDirectionRTL) != 0 {
			break
		}
		wa, err := u.Writable(anc)
		if err != nil {
			return err
		}
		wa.base().flags |= bit
		key = wa.base().parent
	}
	return nil
}

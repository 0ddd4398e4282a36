// Provides common lexical errors definitions.
package lexical_errors

import "errors"

var (
	// ErrReadOnly is returned by any mutator invoked outside an open
	// update scope. Wrap the mutation in Document.Update instead of
	// retrying.
	ErrReadOnly = errors.New("lexical: mutation outside an update scope")

	// ErrInvariant signals registry corruption (e.g. a node missing
	// from its claimed parent's children). Not recoverable; the
	// current scope should be abandoned.
	ErrInvariant = errors.New("lexical: tree invariant broken")

	ErrNodeUnknown  = errors.New("lexical: unknown node")
	ErrNotAnElement = errors.New("lexical: node is not an element")
	ErrClosed       = errors.New("lexical: no document open")
)

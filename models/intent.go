package models

// IntentKind enumerates the five structural intents a node can carry into
// its next save.
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentRoot
	IntentAppend
	IntentPrepend
	IntentBefore
	IntentAfter
)

func (k IntentKind) String() string {
	switch k {
	case IntentRoot:
		return "root"
	case IntentAppend:
		return "append"
	case IntentPrepend:
		return "prepend"
	case IntentBefore:
		return "before"
	case IntentAfter:
		return "after"
	default:
		return "none"
	}
}

// Intent is a buffered structural intent: where the node should go at its
// next save. Ref is the parent for append/prepend, the sibling for
// before/after, and nil for root.
type Intent struct {
	Kind IntentKind
	Ref  *Node
}

// Each node buffers at most one intent. Setting a new one before the
// previous was saved replaces it outright.

// AsRoot marks the node to become a root at the next save.
func (n *Node) AsRoot() *Node {
	n.pending = &Intent{Kind: IntentRoot}
	return n
}

// AppendTo marks the node to become the last child of parent.
func (n *Node) AppendTo(parent *Node) *Node {
	n.pending = &Intent{Kind: IntentAppend, Ref: parent}
	return n
}

// PrependTo marks the node to become the first child of parent.
func (n *Node) PrependTo(parent *Node) *Node {
	n.pending = &Intent{Kind: IntentPrepend, Ref: parent}
	return n
}

// PlaceBefore marks the node to become ref's previous sibling, adopting
// ref's parent.
func (n *Node) PlaceBefore(ref *Node) *Node {
	n.pending = &Intent{Kind: IntentBefore, Ref: ref}
	return n
}

// PlaceAfter marks the node to become ref's next sibling, adopting ref's
// parent.
func (n *Node) PlaceAfter(ref *Node) *Node {
	n.pending = &Intent{Kind: IntentAfter, Ref: ref}
	return n
}

// TakeIntent returns the buffered intent and clears it unconditionally,
// so a second save without a new intent is a plain row write rather than
// a repeated move.
func (n *Node) TakeIntent() *Intent {
	in := n.pending
	n.pending = nil
	return in
}

// HasPending reports whether a structural intent is buffered.
func (n *Node) HasPending() bool {
	return n.pending != nil
}

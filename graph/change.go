package graph

// Op names the store operation that produced a change.
type Op string

const (
	OpAddNode    Op = "add_node"
	OpAddEdge    Op = "add_edge"
	OpRemoveNode Op = "remove_node"
	OpRemoveEdge Op = "remove_edge"
	OpRenameNode Op = "rename_node"
	OpSetWeight  Op = "set_weight"
	OpClear      Op = "clear"
	OpLoad       Op = "load"
)

// ChangeKind mirrors the add / remove / data events of a rendering surface.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeRemove
	ChangeData
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	default:
		return "data"
	}
}

// Change is delivered to subscribers after every mutation. Composite
// operations (rename, cascading delete, clear, load) deliver exactly one
// Change once the whole operation has been applied.
type Change struct {
	Op Op
	ID string
}

// Kind classifies the change
func (c Change) Kind() ChangeKind {
	switch c.Op {
	case OpAddNode, OpAddEdge, OpLoad:
		return ChangeAdd
	case OpRemoveNode, OpRemoveEdge, OpClear:
		return ChangeRemove
	default:
		return ChangeData
	}
}

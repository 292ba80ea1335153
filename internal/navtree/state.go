package navtree

import "errors"

var (
	// ErrUnknownClaim is returned for claim ids the tree does not hold
	ErrUnknownClaim = errors.New("unknown claim")

	// ErrDocumentNotInClaim is returned when a loaded claim does not own the document
	ErrDocumentNotInClaim = errors.New("document not in claim")

	// ErrNoSource is returned when a location names no document
	ErrNoSource = errors.New("no source document")
)

// NodeState is the display state of a claim node
type NodeState int

const (
	Collapsed NodeState = iota
	ExpandedLoading
	ExpandedLoaded
	ExpandedFailed
)

func (s NodeState) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case ExpandedLoading:
		return "expanded-loading"
	case ExpandedLoaded:
		return "expanded-loaded"
	case ExpandedFailed:
		return "expanded-failed"
	default:
		return "unknown"
	}
}

// slotState is the lifecycle of a claim's document list, independent of
// whether the claim is expanded
type slotState int

const (
	slotLoading slotState = iota + 1
	slotLoaded
	slotFailed
)

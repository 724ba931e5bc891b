package reorder

// State is the phase of a drag gesture.
type State int

const (
	Idle State = iota
	Dragging
	DraggedOver
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case DraggedOver:
		return "draggedOver"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Visual is the feedback a host should draw for one block during a drag.
type Visual struct {
	// Dimmed marks the block being dragged (rendered translucent).
	Dimmed bool `json:"dimmed"`
	// Indicator is set on the block under the pointer.
	Indicator bool     `json:"indicator"`
	Position  Position `json:"position"`
}

// Session tracks a single drag gesture. The zero value is Idle and ready.
// One gesture runs at a time; a Start while not Idle is ignored.
type Session struct {
	state     State
	draggedID string
	over      DropTarget
}

// Snapshot is a read-only copy of a Session.
type Snapshot struct {
	State     State      `json:"state"`
	DraggedID string     `json:"draggedId,omitempty"`
	Over      DropTarget `json:"over"`
}

func (s *Session) State() State      { return s.state }
func (s *Session) DraggedID() string { return s.draggedID }

func (s *Session) Snapshot() Snapshot {
	return Snapshot{State: s.state, DraggedID: s.draggedID, Over: s.over}
}

// Target returns the current drop target while hovering another block.
func (s *Session) Target() (DropTarget, bool) {
	if s.state != DraggedOver {
		return DropTarget{}, false
	}
	return s.over, true
}

// Start begins dragging id. Returns false if a gesture is already running.
func (s *Session) Start(id string) bool {
	if s.state != Idle || id == "" {
		return false
	}
	s.state = Dragging
	s.draggedID = id
	return true
}

// Over records the pointer hovering targetID at pos. Hovering the dragged
// block itself is ignored.
func (s *Session) Over(targetID string, pos Position) bool {
	if s.state == Idle || targetID == "" || targetID == s.draggedID {
		return false
	}
	s.state = DraggedOver
	s.over = DropTarget{TargetID: targetID, Position: pos}
	return true
}

// Leave drops back to Dragging when the pointer leaves the hovered block.
// Leaving any other block is ignored.
func (s *Session) Leave(targetID string) bool {
	if s.state != DraggedOver || s.over.TargetID != targetID {
		return false
	}
	s.state = Dragging
	s.over = DropTarget{}
	return true
}

// End returns to Idle and clears all visual state, whatever the phase.
func (s *Session) End() {
	*s = Session{}
}

// Visual returns the feedback for blockID in the current phase.
func (s *Session) Visual(blockID string) Visual {
	var v Visual
	if s.state != Idle && blockID == s.draggedID {
		v.Dimmed = true
	}
	if s.state == DraggedOver && blockID == s.over.TargetID {
		v.Indicator = true
		v.Position = s.over.Position
	}
	return v
}

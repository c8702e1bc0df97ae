package machine

// Phase is the top level of the editor's hierarchical state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGraphCreating
	PhaseGraphOpen
	PhaseImporting
	PhaseExporting
	PhaseGraphDeleting
	PhaseClearingData
	PhaseSettingsOpen
	PhaseError
)

// SubPhase is the nested state inside PhaseGraphOpen
type SubPhase int

const (
	SubNone SubPhase = iota
	SubNodeIdle
	SubNodeCreating
	SubCreatingNode
	SubNodeSelected
	SubNodeEditing
	SubNodeMoving
	SubNodeConnecting
	SubNodeDeleting
	SubChatActive
	SubChatProcessing
)

// State is the machine's full position: a phase plus, when the phase is
// PhaseGraphOpen, a sub-phase. Sub is SubNone outside graph_open.
type State struct {
	Phase Phase
	Sub   SubPhase
}

// Initial returns the machine's starting state
func Initial() State {
	return State{Phase: PhaseIdle}
}

// GraphOpen returns a graph_open state at the given sub-phase
func GraphOpen(sub SubPhase) State {
	return State{Phase: PhaseGraphOpen, Sub: sub}
}

// InGraph reports whether a graph is open
func (s State) InGraph() bool {
	return s.Phase == PhaseGraphOpen
}

var phaseNames = map[Phase]string{
	PhaseIdle:          "app_idle",
	PhaseGraphCreating: "graph_creating",
	PhaseGraphOpen:     "graph_open",
	PhaseImporting:     "importing",
	PhaseExporting:     "exporting",
	PhaseGraphDeleting: "graph_deleting",
	PhaseClearingData:  "clearing_data",
	PhaseSettingsOpen:  "settings_open",
	PhaseError:         "error",
}

var subPhaseNames = map[SubPhase]string{
	SubNodeIdle:       "node_idle",
	SubNodeCreating:   "node_creating",
	SubCreatingNode:   "creating_node",
	SubNodeSelected:   "node_selected",
	SubNodeEditing:    "node_editing",
	SubNodeMoving:     "node_moving",
	SubNodeConnecting: "node_connecting",
	SubNodeDeleting:   "node_deleting",
	SubChatActive:     "chat_active",
	SubChatProcessing: "chat_processing",
}

// String renders the state in dotted form, e.g. "graph_open.node_selected"
func (s State) String() string {
	name, ok := phaseNames[s.Phase]
	if !ok {
		return "unknown"
	}
	if s.Phase == PhaseGraphOpen {
		if sub, ok := subPhaseNames[s.Sub]; ok {
			return name + "." + sub
		}
	}
	return name
}
